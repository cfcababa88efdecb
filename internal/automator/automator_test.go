package automator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/browser/browsertest"
	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/resolver"
	"github.com/jobwright/applypilot/internal/store"
)

func skipResolver() resolver.FieldResolver {
	return resolver.Func(func(context.Context, *resolver.Request) (*resolver.Answer, error) {
		return &resolver.Answer{Skip: true}, nil
	})
}

func seededStore(t *testing.T) *store.Memory {
	t.Helper()

	st := store.NewMemory()
	st.PutProfile(&model.Profile{
		UserID:     "u1",
		FullName:   "Jane Doe",
		Email:      "jane@example.com",
		Phone:      "+1 555 0100",
		ResumePath: "/data/resumes/jane.pdf",
	})
	require.NoError(t, st.SaveJob(context.Background(), &model.JobCandidate{
		ID:      "j1",
		Title:   "Backend Engineer",
		Company: "Acme",
		URL:     "https://boards.greenhouse.io/acme/jobs/1",
	}))
	return st
}

func greenhousePage() *browsertest.Page {
	page := browsertest.NewPage()
	page.Selectors["#application_form, #application-form"] = true
	page.Selectors["#submit_app, input[type='submit'][value='Submit Application']"] = true
	page.FormFields = []browser.FormField{
		{Selector: "#email", Name: "email"},
	}
	return page
}

func newAutomator(engine browser.Engine, st store.Store) *Automator {
	return New(engine, st, skipResolver(), resolver.NewMemoryCache(), zap.NewNop())
}

func TestApplyToJobAutoSubmits(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	page := greenhousePage()
	a := newAutomator(browsertest.NewEngine(page), st)

	outcome, err := a.ApplyToJob(context.Background(), "u1", "j1", model.ModeAuto)
	require.NoError(t, err)

	assert.Equal(t, model.StatusSubmitted, outcome.Status)
	assert.Equal(t, model.ATSGreenhouse, outcome.ATSType)
	assert.True(t, page.Closed, "page must be closed after the attempt")

	record, err := st.GetApplication(context.Background(), "u1", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, record.Status)
	assert.Equal(t, "Acme", record.Company)
	require.NotNil(t, record.AppliedAt)
}

func TestApplyToJobReviewModeStopsBeforeSubmit(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	page := greenhousePage()
	a := newAutomator(browsertest.NewEngine(page), st)

	outcome, err := a.ApplyToJob(context.Background(), "u1", "j1", model.ModeReview)
	require.NoError(t, err)

	assert.Equal(t, model.StatusReadyToSubmit, outcome.Status)
	assert.Empty(t, page.Clicked, "review mode must not press submit")

	record, err := st.GetApplication(context.Background(), "u1", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReadyToSubmit, record.Status)
	assert.Nil(t, record.AppliedAt)
}

func TestApplyToJobFillFailureBecomesFailedOutcome(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	// Bare page: no form, no entry point, so the fill fails.
	page := browsertest.NewPage()
	a := newAutomator(browsertest.NewEngine(page), st)

	outcome, err := a.ApplyToJob(context.Background(), "u1", "j1", model.ModeAuto)
	require.NoError(t, err, "per-job failures must not surface as errors")

	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "entry point")
	assert.True(t, page.Closed, "page must be closed after a failure too")

	record, err := st.GetApplication(context.Background(), "u1", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, record.Status)
	assert.Equal(t, outcome.Message, record.ErrorMessage)
	assert.Equal(t, 0, record.RetryCount, "first failure is not a retry")
}

func TestApplyToJobRepeatedFailureIncrementsRetryCount(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	a := newAutomator(browsertest.NewEngine(browsertest.NewPage(), browsertest.NewPage()), st)

	for i := 0; i < 2; i++ {
		_, err := a.ApplyToJob(context.Background(), "u1", "j1", model.ModeAuto)
		require.NoError(t, err)
	}

	record, err := st.GetApplication(context.Background(), "u1", "j1")
	require.NoError(t, err)
	assert.Equal(t, 1, record.RetryCount)
	assert.Equal(t, []model.ApplicationStatus{model.StatusFailed, model.StatusFailed}, st.StatusHistory("u1", "j1"))
}

func TestApplyToJobEngineFailureIsFatal(t *testing.T) {
	t.Parallel()

	st := seededStore(t)
	engine := browsertest.NewEngine()
	engine.LaunchErr = errors.New("chromium did not start")
	a := newAutomator(engine, st)

	_, err := a.ApplyToJob(context.Background(), "u1", "j1", model.ModeAuto)
	require.Error(t, err)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)

	_, err = st.GetApplication(context.Background(), "u1", "j1")
	assert.ErrorIs(t, err, store.ErrNotFound, "no record is written when the engine fails")
}

func TestApplyToJobUnknownJob(t *testing.T) {
	t.Parallel()

	a := newAutomator(browsertest.NewEngine(), store.NewMemory())

	_, err := a.ApplyToJob(context.Background(), "u1", "missing", model.ModeAuto)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
