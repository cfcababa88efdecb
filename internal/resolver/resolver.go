// Package resolver defines the AI-assisted field resolution capability
// used when a form field cannot be mapped from the profile directly.
package resolver

import (
	"context"

	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/model"
)

// Request carries one unmapped field plus the context needed to answer it.
type Request struct {
	Field   browser.FormField
	Job     *model.JobCandidate
	Profile *model.Profile
}

// Answer is the resolver verdict for one field. Skip means the resolver
// declined to answer and the field should be left untouched.
type Answer struct {
	Value string
	Skip  bool
	Raw   string
}

// FieldResolver suggests a value for an unmapped form field.
// Implementations wrap non-deterministic text generation and must be
// replaceable with a deterministic fake in tests.
type FieldResolver interface {
	Resolve(ctx context.Context, req *Request) (*Answer, error)
}

// Func adapts a function to the FieldResolver interface.
type Func func(ctx context.Context, req *Request) (*Answer, error)

func (f Func) Resolve(ctx context.Context, req *Request) (*Answer, error) {
	return f(ctx, req)
}
