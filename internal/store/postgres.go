package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobwright/applypilot/internal/model"
)

// Postgres implements Store on top of a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

// Connect opens a pooled connection and verifies it with a ping.
func Connect(ctx context.Context, connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Postgres{db: pool}, nil
}

func (s *Postgres) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Postgres) CreateSession(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, started_at)
		VALUES ($1, $2, $3)`

	if _, err := s.db.Exec(ctx, query, session.ID, session.UserID, session.StartedAt); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Postgres) EndSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	query := `UPDATE sessions SET ended_at = $1 WHERE id = $2 AND ended_at IS NULL`

	if _, err := s.db.Exec(ctx, query, endedAt, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (s *Postgres) SaveJob(ctx context.Context, job *model.JobCandidate) error {
	query := `
		INSERT INTO jobs (id, title, company, url, match_score, discovered_at, scope)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company,
			url = EXCLUDED.url, match_score = EXCLUDED.match_score`

	_, err := s.db.Exec(ctx, query,
		job.ID, job.Title, job.Company, job.URL, job.MatchScore, job.DiscoveredAt, job.Scope)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

func (s *Postgres) GetJob(ctx context.Context, jobID string) (*model.JobCandidate, error) {
	var job model.JobCandidate
	query := `SELECT id, title, company, url, match_score, discovered_at, scope FROM jobs WHERE id = $1`

	err := s.db.QueryRow(ctx, query, jobID).
		Scan(&job.ID, &job.Title, &job.Company, &job.URL, &job.MatchScore, &job.DiscoveredAt, &job.Scope)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (s *Postgres) GetApplication(ctx context.Context, userID, jobID string) (*model.ApplicationRecord, error) {
	var record model.ApplicationRecord
	query := `
		SELECT user_id, job_id, company, status, ats_type, error_message, retry_count, applied_at, updated_at
		FROM applications WHERE user_id = $1 AND job_id = $2`

	err := s.db.QueryRow(ctx, query, userID, jobID).Scan(
		&record.UserID, &record.JobID, &record.Company, &record.Status, &record.ATSType,
		&record.ErrorMessage, &record.RetryCount, &record.AppliedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &record, nil
}

func (s *Postgres) UpsertApplication(ctx context.Context, record *model.ApplicationRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO applications (user_id, job_id, company, status, ats_type, error_message, retry_count, applied_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id, job_id)
		DO UPDATE SET status = EXCLUDED.status, ats_type = EXCLUDED.ats_type,
			error_message = EXCLUDED.error_message, retry_count = EXCLUDED.retry_count,
			applied_at = EXCLUDED.applied_at, updated_at = now()`

	_, err = tx.Exec(ctx, query,
		record.UserID, record.JobID, record.Company, record.Status, record.ATSType,
		record.ErrorMessage, record.RetryCount, record.AppliedAt)
	if err != nil {
		return fmt.Errorf("upsert application: %w", err)
	}

	history := `
		INSERT INTO application_status_history (user_id, job_id, status, detail, recorded_at)
		VALUES ($1, $2, $3, $4, now())`

	detail, _ := json.Marshal(map[string]string{"error": record.ErrorMessage})
	if _, err := tx.Exec(ctx, history, record.UserID, record.JobID, record.Status, detail); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *Postgres) ListByStatus(ctx context.Context, userID string, status model.ApplicationStatus) ([]*model.ApplicationRecord, error) {
	query := `
		SELECT user_id, job_id, company, status, ats_type, error_message, retry_count, applied_at, updated_at
		FROM applications WHERE user_id = $1 AND status = $2 ORDER BY updated_at`

	rows, err := s.db.Query(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var records []*model.ApplicationRecord
	for rows.Next() {
		var record model.ApplicationRecord
		if err := rows.Scan(
			&record.UserID, &record.JobID, &record.Company, &record.Status, &record.ATSType,
			&record.ErrorMessage, &record.RetryCount, &record.AppliedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

func (s *Postgres) AppliedJobIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT job_id FROM applications WHERE user_id = $1 AND status <> $2`

	rows, err := s.db.Query(ctx, query, userID, model.StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("list applied job ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan job id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Postgres) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	query := `
		SELECT count(*) FROM applications
		WHERE user_id = $1 AND status = $2 AND applied_at >= $3`

	if err := s.db.QueryRow(ctx, query, userID, model.StatusSubmitted, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count applications since: %w", err)
	}
	return count, nil
}

func (s *Postgres) CountForCompany(ctx context.Context, userID, company string) (int, error) {
	var count int
	query := `SELECT count(*) FROM applications WHERE user_id = $1 AND company = $2`

	if err := s.db.QueryRow(ctx, query, userID, company).Scan(&count); err != nil {
		return 0, fmt.Errorf("count applications for company: %w", err)
	}
	return count, nil
}

func (s *Postgres) CountTotal(ctx context.Context, userID string) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM applications WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

func (s *Postgres) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT policy FROM preferences WHERE user_id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	prefs := &model.Preferences{UserID: userID}
	if err := json.Unmarshal(raw, &prefs.Policy); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	prefs.Policy.Normalize()

	return prefs, nil
}

func (s *Postgres) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	query := `
		SELECT user_id, full_name, email, phone, location, linkedin_url, github_url, website_url, resume_path
		FROM profiles WHERE user_id = $1`

	err := s.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID, &profile.FullName, &profile.Email, &profile.Phone, &profile.Location,
		&profile.LinkedInURL, &profile.GitHubURL, &profile.WebsiteURL, &profile.ResumePath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

func (s *Postgres) CheckProfileCompleteness(ctx context.Context, userID string) (*model.Completeness, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &model.Completeness{MissingFields: []string{"profile"}}, nil
		}
		return nil, err
	}

	missing := MissingProfileFields(profile)
	return &model.Completeness{Complete: len(missing) == 0, MissingFields: missing}, nil
}
