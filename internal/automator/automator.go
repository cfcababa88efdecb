// Package automator executes the full fill-and-submit flow for one
// (job, user) pair and folds the outcome into the application record.
package automator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/ats"
	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/resolver"
	"github.com/jobwright/applypilot/internal/store"
)

// FatalError marks engine-level failures that abort the whole batch,
// as opposed to per-job failures which only fail that attempt.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("automation engine failure: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Automator drives submission attempts over a shared browser engine.
type Automator struct {
	engine   browser.Engine
	store    store.Store
	logger   *zap.Logger
	deps     *ats.Deps
	strategy func(model.ATSType) ats.Strategy
	now      func() time.Time
}

func New(engine browser.Engine, st store.Store, fieldResolver resolver.FieldResolver, cache resolver.AnswerCache, logger *zap.Logger) *Automator {
	return &Automator{
		engine: engine,
		store:  st,
		logger: logger,
		deps: &ats.Deps{
			Logger:   logger,
			Resolver: fieldResolver,
			Screener: resolver.NewScreener(fieldResolver, cache),
		},
		strategy: ats.ForType,
		now:      time.Now,
	}
}

// ApplyToJob runs one submission attempt. Per-job failures come back as
// a failed outcome with a nil error; only engine failures return a
// *FatalError. The page opened for the attempt is closed on every exit
// path. The outcome is upserted into the application record keyed by
// (userID, jobID), so reprocessing the same pair updates in place.
func (a *Automator) ApplyToJob(ctx context.Context, userID, jobID string, mode model.AutomationMode) (*model.SubmissionOutcome, error) {
	job, err := a.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}

	profile, err := a.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile for %s: %w", userID, err)
	}

	page, err := a.engine.NewPage(ctx)
	if err != nil {
		return nil, &FatalError{Err: err}
	}
	defer func() {
		if err := page.Close(); err != nil {
			a.logger.Warn("closing page", zap.String("job_id", jobID), zap.Error(err))
		}
	}()

	outcome := a.attempt(ctx, page, userID, job, profile, mode)

	if err := a.record(ctx, userID, job, outcome); err != nil {
		return nil, err
	}

	a.logger.Info("submission attempt finished",
		zap.String("user_id", userID),
		zap.String("job_id", jobID),
		zap.String("ats", string(outcome.ATSType)),
		zap.String("status", string(outcome.Status)),
	)

	return outcome, nil
}

// attempt performs navigation, detection, fill and (maybe) submit.
// Every failure is converted into a failed outcome.
func (a *Automator) attempt(ctx context.Context, page browser.Page, userID string, job *model.JobCandidate, profile *model.Profile, mode model.AutomationMode) *model.SubmissionOutcome {
	fail := func(atsType model.ATSType, err error) *model.SubmissionOutcome {
		a.logger.Warn("submission attempt failed",
			zap.String("user_id", userID),
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return &model.SubmissionOutcome{
			Status:    model.StatusFailed,
			ATSType:   atsType,
			Timestamp: a.now(),
			Message:   err.Error(),
		}
	}

	if err := page.Goto(job.URL); err != nil {
		return fail(model.ATSGeneric, fmt.Errorf("navigate to %s: %w", job.URL, err))
	}

	content, err := page.Content()
	if err != nil {
		return fail(model.ATSGeneric, fmt.Errorf("read page content: %w", err))
	}

	atsType := ats.Detect(page.URL(), content)
	strategy := a.strategy(atsType)

	a.logger.Debug("ats detected",
		zap.String("job_id", job.ID),
		zap.String("ats", string(atsType)),
	)

	app := &ats.Application{UserID: userID, Job: job, Profile: profile}
	if err := strategy.Fill(ctx, a.deps, page, app); err != nil {
		return fail(atsType, err)
	}

	if mode != model.ModeAuto {
		// Review mode stops short of submission and leaves the filled
		// state for human confirmation.
		return &model.SubmissionOutcome{
			Status:    model.StatusReadyToSubmit,
			ATSType:   atsType,
			Timestamp: a.now(),
		}
	}

	if err := strategy.Submit(ctx, page); err != nil {
		return fail(atsType, err)
	}

	return &model.SubmissionOutcome{
		Status:    model.StatusSubmitted,
		ATSType:   atsType,
		Timestamp: a.now(),
	}
}

// record folds the outcome into the application record, carrying over
// the retry count for repeated failures.
func (a *Automator) record(ctx context.Context, userID string, job *model.JobCandidate, outcome *model.SubmissionOutcome) error {
	record := &model.ApplicationRecord{
		UserID:  userID,
		JobID:   job.ID,
		Company: job.Company,
		Status:  outcome.Status,
		ATSType: outcome.ATSType,
	}

	existing, err := a.store.GetApplication(ctx, userID, job.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load application record: %w", err)
	}
	if existing != nil {
		record.RetryCount = existing.RetryCount
	}

	switch outcome.Status {
	case model.StatusSubmitted:
		applied := outcome.Timestamp
		record.AppliedAt = &applied
	case model.StatusFailed:
		record.ErrorMessage = outcome.Message
		if existing != nil {
			record.RetryCount++
		}
	}

	if err := a.store.UpsertApplication(ctx, record); err != nil {
		return fmt.Errorf("persist outcome: %w", err)
	}
	return nil
}
