package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/model"
)

type minScoreFilter struct{}

// NewMinScore creates a filter that removes candidates scoring below the
// policy threshold.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, candidates []*model.JobCandidate) ([]*model.JobCandidate, Step, error) {
	initial := len(candidates)
	if deps.Policy == nil {
		return nil, Step{}, fmt.Errorf("quota policy is required")
	}

	kept := make([]*model.JobCandidate, 0, initial)
	for _, candidate := range candidates {
		if candidate.MatchScore >= deps.Policy.MinMatchScore {
			kept = append(kept, candidate)
		}
	}

	if deps.Logger != nil && len(kept) < initial {
		deps.Logger.Debug("excluding candidates below score threshold",
			zap.Int("threshold", deps.Policy.MinMatchScore),
			zap.Int("candidates_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type alreadyAppliedFilter struct{}

// NewAlreadyApplied creates a filter that removes candidates the user
// already has an application record for.
func NewAlreadyApplied() Filter {
	return &alreadyAppliedFilter{}
}

func (f *alreadyAppliedFilter) Name() string { return "already_applied" }

func (f *alreadyAppliedFilter) Apply(ctx context.Context, deps Deps, candidates []*model.JobCandidate) ([]*model.JobCandidate, Step, error) {
	initial := len(candidates)
	if deps.Applications == nil {
		return candidates, Step{Initial: initial, Left: initial}, nil
	}

	applied, err := deps.Applications.AppliedJobIDs(ctx, deps.UserID)
	if err != nil {
		return nil, Step{}, fmt.Errorf("list applied job ids: %w", err)
	}

	seen := make(map[string]struct{}, len(applied))
	for _, id := range applied {
		seen[id] = struct{}{}
	}

	kept := make([]*model.JobCandidate, 0, initial)
	for _, candidate := range candidates {
		if _, ok := seen[candidate.ID]; ok {
			continue
		}
		kept = append(kept, candidate)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type quotaTruncateFilter struct{}

// NewQuotaTruncate creates a filter that truncates the list to the
// remaining daily capacity, keeping the head of the list.
func NewQuotaTruncate() Filter {
	return &quotaTruncateFilter{}
}

func (f *quotaTruncateFilter) Name() string { return "quota_truncate" }

func (f *quotaTruncateFilter) Apply(_ context.Context, deps Deps, candidates []*model.JobCandidate) ([]*model.JobCandidate, Step, error) {
	initial := len(candidates)

	remaining := deps.Remaining
	if remaining < 0 {
		remaining = 0
	}

	if initial <= remaining {
		return candidates, Step{Initial: initial, Left: initial}, nil
	}

	kept := candidates[:remaining]
	if deps.Logger != nil {
		deps.Logger.Info("truncating candidates to remaining daily capacity",
			zap.Int("remaining", remaining),
			zap.Int("dropped", initial-remaining),
		)
	}

	return kept, Step{Initial: initial, Dropped: initial - remaining, Left: remaining}, nil
}
