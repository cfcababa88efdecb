// Package candidates talks to the external job candidate source. The
// matching and scoring logic behind it is not ours; we only consume the
// scored list it returns for a user.
package candidates

import (
	"context"

	"github.com/jobwright/applypilot/internal/model"
)

// Source produces scored job candidates for a user.
type Source interface {
	ScanCandidates(ctx context.Context, userID string) ([]*model.JobCandidate, error)
}
