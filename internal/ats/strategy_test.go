package ats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/browser/browsertest"
	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/resolver"
)

type recordingResolver struct {
	calls   []string
	answers map[string]*resolver.Answer
}

func (r *recordingResolver) Resolve(_ context.Context, req *resolver.Request) (*resolver.Answer, error) {
	name := req.Field.Name
	if name == "" {
		name = req.Field.Label
	}
	r.calls = append(r.calls, name)
	if answer, ok := r.answers[name]; ok {
		return answer, nil
	}
	return &resolver.Answer{Skip: true}, nil
}

func testDeps(res resolver.FieldResolver) *Deps {
	return &Deps{
		Logger:   zap.NewNop(),
		Resolver: res,
		Screener: resolver.NewScreener(res, resolver.NewMemoryCache()),
	}
}

func testApplication() *Application {
	return &Application{
		UserID: "u1",
		Job:    &model.JobCandidate{ID: "j1", Title: "Backend Engineer", Company: "Acme", URL: "https://boards.greenhouse.io/acme/jobs/1"},
		Profile: &model.Profile{
			UserID:      "u1",
			FullName:    "Jane Doe",
			Email:       "jane@example.com",
			Phone:       "+1 555 0100",
			Location:    "Berlin",
			LinkedInURL: "https://linkedin.com/in/janedoe",
			ResumePath:  "/data/resumes/jane.pdf",
		},
	}
}

func TestGreenhouseFillCompletesIdentityFields(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage()
	page.Selectors["#apply_button"] = true
	page.Selectors["#application_form, #application-form"] = true
	page.Selectors[`input[type="file"]`] = true
	page.FormFields = []browser.FormField{
		{Selector: "#first", Name: "first_name"},
		{Selector: "#last", Name: "last_name"},
		{Selector: "#email", Name: "email"},
		{Selector: "#phone", Name: "phone"},
	}

	res := &recordingResolver{}
	err := NewGreenhouse().Fill(context.Background(), testDeps(res), page, testApplication())
	require.NoError(t, err)

	assert.Equal(t, "Jane", page.Filled["#first"])
	assert.Equal(t, "Doe", page.Filled["#last"])
	assert.Equal(t, "jane@example.com", page.Filled["#email"])
	assert.Equal(t, "+1 555 0100", page.Filled["#phone"])
	assert.Empty(t, res.calls, "identity fields must not reach the resolver")
	assert.Equal(t, "/data/resumes/jane.pdf", page.Uploads[`input[type="file"]`])
}

func TestFillMissingEntryPointFails(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage() // no selectors at all

	err := NewGreenhouse().Fill(context.Background(), testDeps(&recordingResolver{}), page, testApplication())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry point")
}

func TestFillResolvesUnmappedFieldsAndSkips(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage()
	page.Selectors["#application_form, #application-form"] = true
	page.FormFields = []browser.FormField{
		{Selector: "#pronouns", Name: "pronouns"},
		{Selector: "#salary", Name: "salary_expectation"},
	}

	res := &recordingResolver{answers: map[string]*resolver.Answer{
		"pronouns": {Value: "they/them"},
		// salary_expectation falls through to the default skip
	}}

	err := NewGreenhouse().Fill(context.Background(), testDeps(res), page, testApplication())
	require.NoError(t, err)

	assert.Equal(t, "they/them", page.Filled["#pronouns"])
	_, filled := page.Filled["#salary"]
	assert.False(t, filled, "skipped field must stay untouched")
}

func TestFillAnswersScreeningQuestionsThroughCache(t *testing.T) {
	t.Parallel()

	question := browser.FormField{Selector: "#q1", Name: "visa", Label: "Do you require sponsorship?", Kind: "textarea"}

	res := &recordingResolver{answers: map[string]*resolver.Answer{"visa": {Value: "No"}}}
	deps := testDeps(res)

	for i := 0; i < 2; i++ {
		page := browsertest.NewPage()
		page.Selectors["#application_form, #application-form"] = true
		page.FormFields = []browser.FormField{question}

		err := NewGreenhouse().Fill(context.Background(), deps, page, testApplication())
		require.NoError(t, err)
		assert.Equal(t, "No", page.Filled["#q1"])
	}

	assert.Len(t, res.calls, 1, "second application must hit the answer cache")
}

func TestFillMissingResumeIsNotFatal(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage()
	page.Selectors["#application_form, #application-form"] = true
	page.FormFields = []browser.FormField{{Selector: "#email", Name: "email"}}

	app := testApplication()
	app.Profile.ResumePath = ""

	err := NewGreenhouse().Fill(context.Background(), testDeps(&recordingResolver{}), page, app)
	require.NoError(t, err)
	assert.Empty(t, page.Uploads)
}

func TestWorkdayAdvancesWizardSteps(t *testing.T) {
	t.Parallel()

	next := "button[data-automation-id='bottom-navigation-next-button']"
	submit := "button[data-automation-id='bottom-navigation-submit-button']"

	page := browsertest.NewPage()
	page.Selectors["[data-automation-id='applyFlowPage'], [data-automation-id='jobApplication']"] = true
	page.Selectors[next] = true
	page.FormFields = []browser.FormField{{Selector: "#email", Name: "email"}}

	err := NewWorkday().Fill(context.Background(), testDeps(&recordingResolver{}), page, testApplication())
	require.NoError(t, err)
	assert.NotEmpty(t, page.Clicked, "expected wizard advancement clicks")
	for _, clicked := range page.Clicked {
		assert.Equal(t, next, clicked)
	}

	// Submit requires the final control to be present.
	err = NewWorkday().Submit(context.Background(), page)
	require.Error(t, err)

	page.Selectors[submit] = true
	require.NoError(t, NewWorkday().Submit(context.Background(), page))
	assert.Equal(t, submit, page.Clicked[len(page.Clicked)-1])
}

func TestGenericFillsBarePage(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage()
	page.FormFields = []browser.FormField{
		{Selector: "#name", Name: "name"},
		{Selector: "#email", Name: "email"},
	}

	err := NewGeneric().Fill(context.Background(), testDeps(&recordingResolver{}), page, testApplication())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", page.Filled["#name"])
	assert.Equal(t, "jane@example.com", page.Filled["#email"])
}

func TestFillRequiredCheckboxGetsChecked(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage()
	page.Selectors["#application_form, #application-form"] = true
	page.Selectors["#consent"] = true
	page.FormFields = []browser.FormField{
		{Selector: "#consent", Name: "privacy_consent", Kind: "checkbox", Required: true},
		{Selector: "#newsletter", Name: "newsletter", Kind: "checkbox"},
	}

	err := NewGreenhouse().Fill(context.Background(), testDeps(&recordingResolver{}), page, testApplication())
	require.NoError(t, err)
	assert.Contains(t, page.Clicked, "#consent")
	assert.NotContains(t, page.Clicked, "#newsletter")
}
