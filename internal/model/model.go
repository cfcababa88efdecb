// Package model holds the shared domain types of the application engine.
package model

import (
	"strings"
	"time"
)

// AutomationMode controls whether filled applications are submitted
// without confirmation or left for human review.
type AutomationMode string

const (
	ModeReview AutomationMode = "review"
	ModeAuto   AutomationMode = "auto"
)

// ATSType identifies the applicant tracking system behind a job posting.
type ATSType string

const (
	ATSWorkday        ATSType = "workday"
	ATSGreenhouse     ATSType = "greenhouse"
	ATSLever          ATSType = "lever"
	ATSSuccessFactors ATSType = "successfactors"
	ATSICIMS          ATSType = "icims"
	ATSLinkedIn       ATSType = "linkedin"
	ATSGeneric        ATSType = "generic"
)

// CandidateScope marks whether a candidate was discovered globally or for one user.
type CandidateScope string

const (
	ScopeGlobal CandidateScope = "global"
	ScopeUser   CandidateScope = "user"
)

// ApplicationStatus is the lifecycle state of one application record.
type ApplicationStatus string

const (
	StatusPending       ApplicationStatus = "pending"
	StatusReadyToSubmit ApplicationStatus = "ready_to_submit"
	StatusSubmitted     ApplicationStatus = "submitted"
	StatusFailed        ApplicationStatus = "failed"
)

// Session records one user's active run, from start to stop.
// The in-memory registry owns the live instance; the store keeps a
// mirrored record for audit.
type Session struct {
	ID             string
	UserID         string
	StartedAt      time.Time
	EndedAt        *time.Time
	LastScanAt     *time.Time
	SubmittedToday int
}

// Active reports whether the session has not been ended yet.
func (s *Session) Active() bool {
	return s != nil && s.EndedAt == nil
}

// QuotaPolicy bounds how many applications may be attempted and which
// candidates qualify. It is read fresh at the start of each cycle.
type QuotaPolicy struct {
	MaxDailyApplications  int            `json:"max_daily_applications" mapstructure:"max-daily-applications"`
	MaxWeeklyApplications int            `json:"max_weekly_applications" mapstructure:"max-weekly-applications"`
	MaxPerCompany         int            `json:"max_per_company" mapstructure:"max-per-company"`
	MinMatchScore         int            `json:"min_match_score" mapstructure:"min-match-score"`
	ScanIntervalHours     int            `json:"scan_interval_hours" mapstructure:"scan-interval-hours"`
	Mode                  AutomationMode `json:"mode" mapstructure:"mode"`
}

// ScanInterval returns the configured scan interval as a duration.
func (p *QuotaPolicy) ScanInterval() time.Duration {
	hours := p.ScanIntervalHours
	if hours <= 0 {
		hours = 1
	}
	return time.Duration(hours) * time.Hour
}

// Normalize clamps nonsense values to safe defaults.
func (p *QuotaPolicy) Normalize() {
	if p.MaxDailyApplications < 0 {
		p.MaxDailyApplications = 0
	}
	if p.MinMatchScore < 0 {
		p.MinMatchScore = 0
	}
	if p.MinMatchScore > 100 {
		p.MinMatchScore = 100
	}
	if p.Mode != ModeAuto {
		p.Mode = ModeReview
	}
}

// Preferences is the per-user preference set read from the store.
type Preferences struct {
	UserID string
	Policy QuotaPolicy
}

// JobCandidate is a scored job posting produced by the candidate source.
type JobCandidate struct {
	ID           string         `json:"id" mapstructure:"id"`
	Title        string         `json:"title" mapstructure:"title"`
	Company      string         `json:"company" mapstructure:"company"`
	URL          string         `json:"url" mapstructure:"url"`
	MatchScore   int            `json:"match_score" mapstructure:"match_score"`
	DiscoveredAt time.Time      `json:"discovered_at" mapstructure:"-"`
	Scope        CandidateScope `json:"scope" mapstructure:"scope"`
}

// ApplicationRecord tracks one (user, job) application attempt. There is
// at most one record per pair; reprocessing updates it in place.
type ApplicationRecord struct {
	UserID       string
	JobID        string
	Company      string
	Status       ApplicationStatus
	ATSType      ATSType
	ErrorMessage string
	RetryCount   int
	AppliedAt    *time.Time
	UpdatedAt    time.Time
}

// SubmissionOutcome is the transient result of one submission attempt.
// It is folded into the application record, never persisted directly.
type SubmissionOutcome struct {
	Status    ApplicationStatus
	ATSType   ATSType
	Timestamp time.Time
	Message   string
}

// Profile is the applicant identity used to fill application forms.
type Profile struct {
	UserID      string
	FullName    string
	Email       string
	Phone       string
	Location    string
	LinkedInURL string
	GitHubURL   string
	WebsiteURL  string
	ResumePath  string
}

// FirstName returns the leading word of the full name.
func (p *Profile) FirstName() string {
	parts := strings.Fields(p.FullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// LastName returns everything after the first word of the full name.
func (p *Profile) LastName() string {
	parts := strings.Fields(p.FullName)
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}

// Completeness is the result of the profile completeness check.
type Completeness struct {
	Complete      bool
	MissingFields []string
}
