package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jobwright/applypilot/internal/model"
)

// Memory is an in-memory Store used by tests and dry runs.
type Memory struct {
	mu sync.RWMutex

	sessions     map[string]*model.Session
	jobs         map[string]*model.JobCandidate
	applications map[string]*model.ApplicationRecord
	history      map[string][]model.ApplicationStatus
	preferences  map[string]*model.Preferences
	profiles     map[string]*model.Profile
}

func NewMemory() *Memory {
	return &Memory{
		sessions:     make(map[string]*model.Session),
		jobs:         make(map[string]*model.JobCandidate),
		applications: make(map[string]*model.ApplicationRecord),
		history:      make(map[string][]model.ApplicationStatus),
		preferences:  make(map[string]*model.Preferences),
		profiles:     make(map[string]*model.Profile),
	}
}

func (s *Memory) Close() {}

func applicationKey(userID, jobID string) string {
	return userID + "/" + jobID
}

func (s *Memory) CreateSession(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *Memory) EndSession(_ context.Context, sessionID string, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok && session.EndedAt == nil {
		ended := endedAt
		session.EndedAt = &ended
	}
	return nil
}

// SessionRecord returns the persisted session mirror, or nil.
func (s *Memory) SessionRecord(sessionID string) *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if session, ok := s.sessions[sessionID]; ok {
		copied := *session
		return &copied
	}
	return nil
}

// SessionCount reports how many session records exist for the user.
func (s *Memory) SessionCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, session := range s.sessions {
		if session.UserID == userID {
			count++
		}
	}
	return count
}

func (s *Memory) SaveJob(_ context.Context, job *model.JobCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *Memory) GetJob(_ context.Context, jobID string) (*model.JobCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *Memory) GetApplication(_ context.Context, userID, jobID string) (*model.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.applications[applicationKey(userID, jobID)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *Memory) UpsertApplication(_ context.Context, record *model.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := applicationKey(record.UserID, record.JobID)
	copied := *record
	copied.UpdatedAt = time.Now()
	s.applications[key] = &copied
	s.history[key] = append(s.history[key], record.Status)
	return nil
}

// StatusHistory returns the appended status trail for a pair.
func (s *Memory) StatusHistory(userID, jobID string) []model.ApplicationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.history[applicationKey(userID, jobID)]
	out := make([]model.ApplicationStatus, len(history))
	copy(out, history)
	return out
}

func (s *Memory) ListByStatus(_ context.Context, userID string, status model.ApplicationStatus) ([]*model.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*model.ApplicationRecord
	for _, record := range s.applications {
		if record.UserID == userID && record.Status == status {
			copied := *record
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UpdatedAt.Before(records[j].UpdatedAt) })
	return records, nil
}

func (s *Memory) AppliedJobIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, record := range s.applications {
		if record.UserID == userID && record.Status != model.StatusFailed {
			ids = append(ids, record.JobID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Memory) CountSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.applications {
		if record.UserID != userID || record.Status != model.StatusSubmitted {
			continue
		}
		if record.AppliedAt != nil && !record.AppliedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *Memory) CountForCompany(_ context.Context, userID, company string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.applications {
		if record.UserID == userID && record.Company == company {
			count++
		}
	}
	return count, nil
}

func (s *Memory) CountTotal(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.applications {
		if record.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *Memory) GetPreferences(_ context.Context, userID string) (*model.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, ok := s.preferences[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *prefs
	copied.Policy.Normalize()
	return &copied, nil
}

func (s *Memory) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (s *Memory) CheckProfileCompleteness(ctx context.Context, userID string) (*model.Completeness, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return &model.Completeness{MissingFields: []string{"profile"}}, nil
	}

	missing := MissingProfileFields(profile)
	return &model.Completeness{Complete: len(missing) == 0, MissingFields: missing}, nil
}

// PutPreferences seeds preferences. Test helper.
func (s *Memory) PutPreferences(prefs *model.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *prefs
	s.preferences[prefs.UserID] = &copied
}

// PutProfile seeds a profile. Test helper.
func (s *Memory) PutProfile(profile *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *profile
	s.profiles[profile.UserID] = &copied
}
