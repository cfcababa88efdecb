package ats

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/resolver"
)

// Application is the (job, user) pair a strategy works on.
type Application struct {
	UserID  string
	Job     *model.JobCandidate
	Profile *model.Profile
}

// Deps aggregates the collaborators shared by all strategies.
type Deps struct {
	Logger   *zap.Logger
	Resolver resolver.FieldResolver
	Screener *resolver.Screener
}

// Strategy fills and submits an application on one kind of ATS.
// Fill leaves the page in a submittable state; Submit performs the
// final, irreversible step.
type Strategy interface {
	Type() model.ATSType
	Fill(ctx context.Context, deps *Deps, page browser.Page, app *Application) error
	Submit(ctx context.Context, page browser.Page) error
}

// ForType selects the strategy for a detected ATS type.
func ForType(t model.ATSType) Strategy {
	switch t {
	case model.ATSWorkday:
		return NewWorkday()
	case model.ATSGreenhouse:
		return NewGreenhouse()
	case model.ATSLever:
		return NewLever()
	case model.ATSSuccessFactors:
		return NewSuccessFactors()
	case model.ATSICIMS:
		return NewICIMS()
	case model.ATSLinkedIn:
		return NewLinkedIn()
	default:
		return NewGeneric()
	}
}

// formStrategy is the common fill-and-submit machinery. Variants differ
// in selectors and in how many form steps they walk through.
type formStrategy struct {
	atsType         model.ATSType
	entrySelectors  []string
	formSelector    string
	resumeSelectors []string
	nextSelector    string
	submitSelector  string
	maxSteps        int
}

func (s *formStrategy) Type() model.ATSType { return s.atsType }

func (s *formStrategy) Fill(ctx context.Context, deps *Deps, page browser.Page, app *Application) error {
	if s.formSelector != "" && !page.Exists(s.formSelector) {
		if !clickFirst(page, s.entrySelectors) {
			return fmt.Errorf("%s: application entry point not found", s.atsType)
		}
		if err := page.WaitFor(s.formSelector); err != nil {
			return fmt.Errorf("%s: application form did not appear: %w", s.atsType, err)
		}
	} else if s.formSelector == "" {
		// No known form marker: activate an entry point only when the
		// page shows no fields yet, to avoid navigating away from one.
		if fields, err := page.Fields(); err == nil && len(fields) == 0 {
			clickFirst(page, s.entrySelectors)
		}
	}

	uploadResume(deps, page, app, s.resumeSelectors)

	steps := s.maxSteps
	if steps <= 0 {
		steps = 1
	}

	for step := 0; step < steps; step++ {
		if err := fillVisibleFields(ctx, deps, page, app); err != nil {
			return fmt.Errorf("%s: %w", s.atsType, err)
		}

		if s.nextSelector == "" || page.Exists(s.submitSelector) || !page.Exists(s.nextSelector) {
			break
		}

		if err := page.Click(s.nextSelector); err != nil {
			return fmt.Errorf("%s: advance to next step: %w", s.atsType, err)
		}
	}

	return nil
}

func (s *formStrategy) Submit(_ context.Context, page browser.Page) error {
	if !page.Exists(s.submitSelector) {
		return fmt.Errorf("%s: submit control not found", s.atsType)
	}
	if err := page.Click(s.submitSelector); err != nil {
		return fmt.Errorf("%s: submit: %w", s.atsType, err)
	}
	return nil
}
