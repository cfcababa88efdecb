// Package filtering narrows a scanned candidate list down to the jobs
// that will actually be processed, as a sequence of independent steps.
// Steps never reorder candidates; source order is preserved end to end.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/store"
)

// Filter represents a single filtering step applied to candidates.
type Filter interface {
	Name() string
	Apply(ctx context.Context, deps Deps, candidates []*model.JobCandidate) ([]*model.JobCandidate, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger       *zap.Logger
	Applications store.ApplicationStore
	UserID       string
	Policy       *model.QuotaPolicy
	// Remaining is the daily capacity left for the user this cycle.
	Remaining int
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the supplied filters sequentially.
func Run(ctx context.Context, deps Deps, steps []Filter, candidates []*model.JobCandidate) ([]*model.JobCandidate, error) {
	for _, step := range steps {
		next, info, err := step.Apply(ctx, deps, candidates)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		candidates = next
	}

	return candidates, nil
}

// Defaults returns the standard step chain used by a scan cycle.
func Defaults() []Filter {
	return []Filter{
		NewMinScore(),
		NewAlreadyApplied(),
		NewQuotaTruncate(),
	}
}
