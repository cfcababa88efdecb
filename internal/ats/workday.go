package ats

import "github.com/jobwright/applypilot/internal/model"

// NewWorkday builds the strategy for Workday tenants. Workday walks the
// applicant through several wizard pages, so the fill loop advances
// with the automation-id "next" button until the review step appears.
func NewWorkday() Strategy {
	return &formStrategy{
		atsType: model.ATSWorkday,
		entrySelectors: []string{
			"a[data-automation-id='adventureButton']",
			"button[data-automation-id='applyButton']",
		},
		formSelector: "[data-automation-id='applyFlowPage'], [data-automation-id='jobApplication']",
		resumeSelectors: []string{
			"input[data-automation-id='file-upload-input-ref']",
		},
		nextSelector:   "button[data-automation-id='bottom-navigation-next-button']",
		submitSelector: "button[data-automation-id='bottom-navigation-submit-button']",
		maxSteps:       6,
	}
}
