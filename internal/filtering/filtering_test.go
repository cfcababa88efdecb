package filtering

import (
	"context"
	"fmt"
	"testing"

	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/store"
)

func candidateList(scores ...int) []*model.JobCandidate {
	candidates := make([]*model.JobCandidate, 0, len(scores))
	for i, score := range scores {
		candidates = append(candidates, &model.JobCandidate{
			ID:         fmt.Sprintf("j%d", i+1),
			MatchScore: score,
		})
	}
	return candidates
}

func TestMinScoreFilterDropsBelowThreshold(t *testing.T) {
	t.Parallel()

	deps := Deps{Policy: &model.QuotaPolicy{MinMatchScore: 70}}
	kept, info, err := NewMinScore().Apply(context.Background(), deps, candidateList(65, 70, 90, 69))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.Left != 2 || info.Dropped != 2 {
		t.Fatalf("unexpected step info: %+v", info)
	}
	for _, candidate := range kept {
		if candidate.MatchScore < 70 {
			t.Fatalf("candidate %s below threshold survived", candidate.ID)
		}
	}
}

func TestQuotaTruncateKeepsHeadOfList(t *testing.T) {
	t.Parallel()

	// Daily limit 5 with 3 already applied leaves room for exactly 2.
	deps := Deps{Policy: &model.QuotaPolicy{MaxDailyApplications: 5}, Remaining: 2}

	candidates := candidateList(90, 91, 92, 93, 94, 95, 96, 97, 98, 99)
	kept, info, err := NewQuotaTruncate().Apply(context.Background(), deps, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(kept) != 2 {
		t.Fatalf("expected exactly 2 qualified, got %d", len(kept))
	}
	if kept[0].ID != "j1" || kept[1].ID != "j2" {
		t.Fatalf("expected source order preserved, got %s, %s", kept[0].ID, kept[1].ID)
	}
	if info.Dropped != 8 {
		t.Fatalf("expected 8 dropped, got %d", info.Dropped)
	}
}

func TestQuotaTruncateNegativeRemaining(t *testing.T) {
	t.Parallel()

	deps := Deps{Remaining: -3}
	kept, _, err := NewQuotaTruncate().Apply(context.Background(), deps, candidateList(90))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 0 {
		t.Fatalf("expected empty list when over quota, got %d", len(kept))
	}
}

func TestAlreadyAppliedFilterExcludesRecordedJobs(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	mem.UpsertApplication(context.Background(), &model.ApplicationRecord{
		UserID: "u1", JobID: "j2", Status: model.StatusSubmitted,
	})

	deps := Deps{Applications: mem, UserID: "u1"}
	kept, info, err := NewAlreadyApplied().Apply(context.Background(), deps, candidateList(90, 91, 92))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.Left != 2 {
		t.Fatalf("expected 2 left, got %d", info.Left)
	}
	for _, candidate := range kept {
		if candidate.ID == "j2" {
			t.Fatal("already applied candidate survived filter")
		}
	}
}

func TestRunChainsStepsInOrder(t *testing.T) {
	t.Parallel()

	deps := Deps{
		Policy:    &model.QuotaPolicy{MinMatchScore: 70, MaxDailyApplications: 5},
		Remaining: 2,
	}

	kept, err := Run(context.Background(), deps, Defaults(), candidateList(95, 50, 85, 80, 75))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(kept) != 2 {
		t.Fatalf("expected 2 candidates after chain, got %d", len(kept))
	}
	if kept[0].ID != "j1" || kept[1].ID != "j3" {
		t.Fatalf("expected j1 and j3 in order, got %s, %s", kept[0].ID, kept[1].ID)
	}
}
