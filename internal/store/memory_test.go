package store

import (
	"context"
	"testing"
	"time"

	"github.com/jobwright/applypilot/internal/model"
)

func TestUpsertApplicationKeepsOneRecordPerPair(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()

	record := &model.ApplicationRecord{UserID: "u1", JobID: "j1", Status: model.StatusPending}
	if err := s.UpsertApplication(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record.Status = model.StatusFailed
	record.ErrorMessage = "timeout"
	record.RetryCount = 1
	if err := s.UpsertApplication(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if total, _ := s.CountTotal(ctx, "u1"); total != 1 {
		t.Fatalf("expected a single record for the pair, got %d", total)
	}

	got, err := s.GetApplication(ctx, "u1", "j1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.StatusFailed || got.RetryCount != 1 {
		t.Fatalf("expected updated record, got %+v", got)
	}

	history := s.StatusHistory("u1", "j1")
	if len(history) != 2 || history[0] != model.StatusPending || history[1] != model.StatusFailed {
		t.Fatalf("expected appended history, got %v", history)
	}
}

func TestCountSinceCountsOnlySubmitted(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()
	now := time.Now()
	yesterday := now.Add(-36 * time.Hour)

	submit := func(jobID string, at time.Time) {
		applied := at
		s.UpsertApplication(ctx, &model.ApplicationRecord{
			UserID: "u1", JobID: jobID, Status: model.StatusSubmitted, AppliedAt: &applied,
		})
	}

	submit("j1", now)
	submit("j2", yesterday)
	s.UpsertApplication(ctx, &model.ApplicationRecord{UserID: "u1", JobID: "j3", Status: model.StatusFailed})

	count, err := s.CountSince(ctx, "u1", StartOfDay(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 submission today, got %d", count)
	}
}

func TestEndSessionSetsEndedAtOnce(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()

	session := &model.Session{ID: "s1", UserID: "u1", StartedAt: time.Now()}
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := time.Now()
	if err := s.EndSession(ctx, "s1", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.EndSession(ctx, "s1", first.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := s.SessionRecord("s1")
	if record == nil || record.EndedAt == nil {
		t.Fatal("expected ended session record")
	}
	if !record.EndedAt.Equal(first) {
		t.Fatalf("expected first ended_at preserved, got %v", record.EndedAt)
	}
}

func TestCompletenessReportsMissingFields(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	ctx := context.Background()

	s.PutProfile(&model.Profile{UserID: "u1", FullName: "Jane Doe"})

	check, err := s.CheckProfileCompleteness(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Complete {
		t.Fatal("expected incomplete profile")
	}
	if len(check.MissingFields) != 2 {
		t.Fatalf("expected email and phone missing, got %v", check.MissingFields)
	}

	check, err = s.CheckProfileCompleteness(ctx, "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Complete {
		t.Fatal("expected missing profile to be incomplete")
	}
}

func TestStartOfWeekIsMonday(t *testing.T) {
	t.Parallel()

	// 2026-08-30 is a Sunday.
	sunday := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	monday := StartOfWeek(sunday)
	if monday.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %v", monday.Weekday())
	}
	if monday.Day() != 24 {
		t.Fatalf("expected Aug 24, got %v", monday)
	}
}
