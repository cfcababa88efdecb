package ats

import "github.com/jobwright/applypilot/internal/model"

// NewSuccessFactors builds the strategy for SAP SuccessFactors career
// sites.
func NewSuccessFactors() Strategy {
	return &formStrategy{
		atsType: model.ATSSuccessFactors,
		entrySelectors: []string{
			"a.applyButton",
			"button[title='Apply']",
			"a[href*='careerSiteCandidate']",
		},
		formSelector: "form[name='frmApplication'], .jobAppPage",
		resumeSelectors: []string{
			"input[name='attachment']",
		},
		nextSelector:   "button.nextButton",
		submitSelector: "button.applyFormSubmit, button[title='Submit Application']",
		maxSteps:       4,
	}
}
