// Package orchestrator manages per-user autoapply sessions: it starts
// and stops them, runs scan and process cycles against the quota
// policy, and drives the periodic scheduling loop.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/automator"
	"github.com/jobwright/applypilot/internal/candidates"
	"github.com/jobwright/applypilot/internal/filtering"
	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/store"
	"github.com/jobwright/applypilot/internal/utils"
)

// Submitter executes one submission attempt. Implemented by the
// automator; faked in tests.
type Submitter interface {
	ApplyToJob(ctx context.Context, userID, jobID string, mode model.AutomationMode) (*model.SubmissionOutcome, error)
}

// Deps aggregates the orchestrator's collaborators.
type Deps struct {
	Store     store.Store
	Source    candidates.Source
	Submitter Submitter
	Logger    *zap.Logger

	// PauseMin and PauseMax bound the randomized wait between jobs in
	// one batch. Zero values disable pacing.
	PauseMin time.Duration
	PauseMax time.Duration
}

// ScanResult reports one scan cycle.
type ScanResult struct {
	Found     int
	Qualified int
	Remaining int
	Jobs      []*model.JobCandidate
}

// JobResult is the per-job entry of a ProcessResult.
type JobResult struct {
	JobID   string
	Status  model.ApplicationStatus
	Message string
}

// ProcessResult aggregates one process batch.
type ProcessResult struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
	Results   []JobResult
}

// Status is the session snapshot returned to the control surface.
type Status struct {
	Active            bool
	SessionID         string
	StartedAt         time.Time
	LastScanAt        *time.Time
	PendingJobs       int
	SubmittedToday    int
	TotalApplications int
	RemainingToday    int
}

type Orchestrator struct {
	store     store.Store
	source    candidates.Source
	submitter Submitter
	logger    *zap.Logger
	registry  *registry

	pauseMin time.Duration
	pauseMax time.Duration

	newID func() string
	now   func() time.Time
}

func New(deps *Deps) *Orchestrator {
	return &Orchestrator{
		store:     deps.Store,
		source:    deps.Source,
		submitter: deps.Submitter,
		logger:    deps.Logger,
		registry:  newRegistry(),
		pauseMin:  deps.PauseMin,
		pauseMax:  deps.PauseMax,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Start validates the user's preconditions, creates a session and runs
// one immediate scan. A failed precondition produces no side effects.
// When the initial scan fails the session stays active and the
// *ScanError is returned so the next tick can retry.
func (o *Orchestrator) Start(ctx context.Context, userID string) (*ScanResult, error) {
	lock := o.registry.userLock(userID)
	lock.Lock()

	if o.registry.get(userID).Active() {
		lock.Unlock()
		return nil, ErrSessionActive
	}

	missing, err := o.checkPreconditions(ctx, userID)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if len(missing) > 0 {
		lock.Unlock()
		return nil, &PreconditionError{MissingFields: missing}
	}

	session := &model.Session{
		ID:        o.newID(),
		UserID:    userID,
		StartedAt: o.now(),
	}
	if err := o.store.CreateSession(ctx, session); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("persist session: %w", err)
	}
	o.registry.put(session)
	lock.Unlock()

	o.logger.Info("session started",
		zap.String("user_id", userID),
		zap.String("session_id", session.ID),
	)

	return o.Scan(ctx, userID)
}

func (o *Orchestrator) checkPreconditions(ctx context.Context, userID string) ([]string, error) {
	if _, err := o.store.GetPreferences(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []string{"preferences"}, nil
		}
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	completeness, err := o.store.CheckProfileCompleteness(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check profile completeness: %w", err)
	}
	if !completeness.Complete {
		return completeness.MissingFields, nil
	}
	return nil, nil
}

// Stop removes the session from the registry and marks the persisted
// record ended. Calling it with no active session is a no-op and
// reports false.
func (o *Orchestrator) Stop(ctx context.Context, userID string) (bool, error) {
	session := o.registry.remove(userID)
	if session == nil {
		return false, nil
	}

	if err := o.store.EndSession(ctx, session.ID, o.now()); err != nil {
		return true, fmt.Errorf("end session %s: %w", session.ID, err)
	}

	o.logger.Info("session stopped",
		zap.String("user_id", userID),
		zap.String("session_id", session.ID),
	)
	return true, nil
}

// Scan fetches candidates, persists them, and narrows them to the jobs
// that fit the remaining daily capacity. Source order is preserved.
func (o *Orchestrator) Scan(ctx context.Context, userID string) (*ScanResult, error) {
	lock := o.registry.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if !o.registry.get(userID).Active() {
		return nil, ErrNoSession
	}

	prefs, err := o.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	found, err := o.source.ScanCandidates(ctx, userID)
	if err != nil {
		return nil, &ScanError{Err: err}
	}

	for _, job := range found {
		if err := o.store.SaveJob(ctx, job); err != nil {
			return nil, fmt.Errorf("persist job %s: %w", job.ID, err)
		}
	}

	today, err := o.store.CountSince(ctx, userID, store.StartOfDay(o.now()))
	if err != nil {
		return nil, fmt.Errorf("count today's applications: %w", err)
	}
	remaining := prefs.Policy.MaxDailyApplications - today
	if remaining < 0 {
		remaining = 0
	}

	qualified, err := filtering.Run(ctx, filtering.Deps{
		Logger:       o.logger,
		Applications: o.store,
		UserID:       userID,
		Policy:       &prefs.Policy,
		Remaining:    remaining,
	}, filtering.Defaults(), found)
	if err != nil {
		return nil, &ScanError{Err: err}
	}

	o.registry.setQualified(userID, qualified)
	o.registry.markScanned(userID, o.now())

	o.logger.Info("scan finished",
		zap.String("user_id", userID),
		zap.Int("found", len(found)),
		zap.Int("qualified", len(qualified)),
		zap.Int("remaining_today", remaining),
	)

	return &ScanResult{
		Found:     len(found),
		Qualified: len(qualified),
		Remaining: remaining,
		Jobs:      qualified,
	}, nil
}

// Process attempts a submission for each target job in order. Explicit
// jobIDs override the qualified list from the last scan; omitting them
// consumes that list. The per-user lock is held for the whole batch so
// quota checks cannot race a concurrent trigger.
func (o *Orchestrator) Process(ctx context.Context, userID string, jobIDs []string) (*ProcessResult, error) {
	lock := o.registry.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if !o.registry.get(userID).Active() {
		return nil, ErrNoSession
	}

	prefs, err := o.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	targets := jobIDs
	if len(targets) == 0 {
		for _, job := range o.registry.takeQualified(userID) {
			targets = append(targets, job.ID)
		}
	}

	result := &ProcessResult{}
	for i, jobID := range targets {
		capped, err := o.quotaReached(ctx, userID, &prefs.Policy)
		if err != nil {
			return result, err
		}
		if capped {
			o.logger.Info("quota reached, stopping batch",
				zap.String("user_id", userID),
				zap.Int("jobs_left", len(targets)-i),
			)
			break
		}

		skip, err := o.shouldSkip(ctx, userID, jobID, &prefs.Policy)
		if err != nil {
			return result, err
		}
		if skip {
			result.Skipped++
			continue
		}

		outcome, err := o.submitter.ApplyToJob(ctx, userID, jobID, prefs.Policy.Mode)
		if err != nil {
			var fatal *automator.FatalError
			if errors.As(err, &fatal) {
				return result, fmt.Errorf("batch aborted: %w", err)
			}
			o.logger.Error("submission attempt errored",
				zap.String("user_id", userID),
				zap.String("job_id", jobID),
				zap.Error(err),
			)
			result.Processed++
			result.Failed++
			result.Results = append(result.Results, JobResult{JobID: jobID, Status: model.StatusFailed, Message: err.Error()})
			continue
		}

		result.Processed++
		result.Results = append(result.Results, JobResult{JobID: jobID, Status: outcome.Status, Message: outcome.Message})

		switch outcome.Status {
		case model.StatusFailed:
			result.Failed++
		case model.StatusSubmitted:
			result.Succeeded++
			o.registry.markSubmitted(userID)
		default:
			result.Succeeded++
		}

		// Randomized pause between jobs keeps the pacing human-like.
		if i < len(targets)-1 {
			if err := utils.WaitFor(ctx, utils.RandomBetween(o.pauseMin, o.pauseMax)); err != nil {
				return result, err
			}
		}
	}

	o.logger.Info("process batch finished",
		zap.String("user_id", userID),
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// quotaReached checks the daily and weekly caps against the store.
func (o *Orchestrator) quotaReached(ctx context.Context, userID string, policy *model.QuotaPolicy) (bool, error) {
	now := o.now()

	today, err := o.store.CountSince(ctx, userID, store.StartOfDay(now))
	if err != nil {
		return false, fmt.Errorf("count today's applications: %w", err)
	}
	if today >= policy.MaxDailyApplications {
		return true, nil
	}

	if policy.MaxWeeklyApplications > 0 {
		week, err := o.store.CountSince(ctx, userID, store.StartOfWeek(now))
		if err != nil {
			return false, fmt.Errorf("count this week's applications: %w", err)
		}
		if week >= policy.MaxWeeklyApplications {
			return true, nil
		}
	}

	return false, nil
}

// shouldSkip drops jobs that already have a non-failed record and jobs
// at companies the user already hit the per-company cap for. Failed
// records stay eligible so a later cycle can retry them.
func (o *Orchestrator) shouldSkip(ctx context.Context, userID, jobID string, policy *model.QuotaPolicy) (bool, error) {
	existing, err := o.store.GetApplication(ctx, userID, jobID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("check existing record: %w", err)
	}
	if existing != nil && existing.Status != model.StatusFailed {
		o.logger.Debug("skipping job with existing record",
			zap.String("user_id", userID),
			zap.String("job_id", jobID),
			zap.String("status", string(existing.Status)),
		)
		return true, nil
	}

	if policy.MaxPerCompany > 0 {
		job, err := o.store.GetJob(ctx, jobID)
		if err != nil {
			return false, fmt.Errorf("load job %s: %w", jobID, err)
		}
		count, err := o.store.CountForCompany(ctx, userID, job.Company)
		if err != nil {
			return false, fmt.Errorf("count applications for %s: %w", job.Company, err)
		}
		if count >= policy.MaxPerCompany {
			o.logger.Debug("per-company cap reached",
				zap.String("user_id", userID),
				zap.String("company", job.Company),
			)
			return true, nil
		}
	}

	return false, nil
}

// Status reports the user's session state and counters.
func (o *Orchestrator) Status(ctx context.Context, userID string) (*Status, error) {
	session := o.registry.get(userID)
	if !session.Active() {
		return &Status{}, nil
	}

	prefs, err := o.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	today, err := o.store.CountSince(ctx, userID, store.StartOfDay(o.now()))
	if err != nil {
		return nil, fmt.Errorf("count today's applications: %w", err)
	}
	total, err := o.store.CountTotal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}

	remaining := prefs.Policy.MaxDailyApplications - today
	if remaining < 0 {
		remaining = 0
	}

	return &Status{
		Active:            true,
		SessionID:         session.ID,
		StartedAt:         session.StartedAt,
		LastScanAt:        session.LastScanAt,
		PendingJobs:       o.registry.qualifiedCount(userID),
		SubmittedToday:    today,
		TotalApplications: total,
		RemainingToday:    remaining,
	}, nil
}

// ActiveUsers snapshots the users the scheduling loop should visit.
func (o *Orchestrator) ActiveUsers() []string {
	return o.registry.activeUsers()
}

// Cycle is one scheduled visit for one user: scan when the interval has
// elapsed and, in auto mode, process the newly qualified jobs.
func (o *Orchestrator) Cycle(ctx context.Context, userID string) error {
	session := o.registry.get(userID)
	if !session.Active() {
		return nil
	}

	prefs, err := o.store.GetPreferences(ctx, userID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	if session.LastScanAt != nil && o.now().Sub(*session.LastScanAt) < prefs.Policy.ScanInterval() {
		return nil
	}

	scan, err := o.Scan(ctx, userID)
	if err != nil {
		return err
	}

	if prefs.Policy.Mode == model.ModeAuto && scan.Qualified > 0 {
		if _, err := o.Process(ctx, userID, nil); err != nil {
			return err
		}
	}
	return nil
}
