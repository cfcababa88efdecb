// Package store defines the persistence contracts of the engine and
// provides a Postgres implementation plus an in-memory one for tests
// and dry runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jobwright/applypilot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// SessionStore mirrors the in-memory session registry for audit.
type SessionStore interface {
	CreateSession(ctx context.Context, session *model.Session) error
	EndSession(ctx context.Context, sessionID string, endedAt time.Time) error
}

// JobStore keeps discovered candidates so the automator can load them by ID.
type JobStore interface {
	SaveJob(ctx context.Context, job *model.JobCandidate) error
	GetJob(ctx context.Context, jobID string) (*model.JobCandidate, error)
}

// ApplicationStore owns application records keyed by (userID, jobID).
type ApplicationStore interface {
	// GetApplication returns ErrNotFound when the pair has no record.
	GetApplication(ctx context.Context, userID, jobID string) (*model.ApplicationRecord, error)
	// UpsertApplication creates or updates the record for its
	// (userID, jobID) pair and appends a status-history entry.
	UpsertApplication(ctx context.Context, record *model.ApplicationRecord) error
	ListByStatus(ctx context.Context, userID string, status model.ApplicationStatus) ([]*model.ApplicationRecord, error)
	// AppliedJobIDs lists the IDs of jobs with a non-failed record for
	// the user. Failed records are excluded so a later cycle can retry
	// them.
	AppliedJobIDs(ctx context.Context, userID string) ([]string, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountForCompany(ctx context.Context, userID, company string) (int, error)
	CountTotal(ctx context.Context, userID string) (int, error)
}

// UserStore exposes the read-only preference and profile checks.
type UserStore interface {
	GetPreferences(ctx context.Context, userID string) (*model.Preferences, error)
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	CheckProfileCompleteness(ctx context.Context, userID string) (*model.Completeness, error)
}

// Store aggregates all persistence contracts.
type Store interface {
	SessionStore
	JobStore
	ApplicationStore
	UserStore
	Close()
}

// StartOfDay returns midnight of the given moment, in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the most recent Monday midnight.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MissingProfileFields computes which fields block automation for the
// given profile. Used by stores to answer the completeness check.
func MissingProfileFields(p *model.Profile) []string {
	missing := make([]string, 0)
	if p == nil {
		return []string{"profile"}
	}
	if p.FullName == "" {
		missing = append(missing, "full_name")
	}
	if p.Email == "" {
		missing = append(missing, "email")
	}
	if p.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}
