package ats

import "github.com/jobwright/applypilot/internal/model"

// NewLinkedIn builds the strategy for LinkedIn Easy Apply. The flow is
// a modal wizard; the review step exposes the final submit control.
func NewLinkedIn() Strategy {
	return &formStrategy{
		atsType: model.ATSLinkedIn,
		entrySelectors: []string{
			"button.jobs-apply-button",
			"button[aria-label*='Easy Apply']",
		},
		formSelector: ".jobs-easy-apply-content, .jobs-easy-apply-modal",
		resumeSelectors: []string{
			".js-jobs-document-upload__container input[type='file']",
		},
		nextSelector:   "button[aria-label='Continue to next step'], button[aria-label='Review your application']",
		submitSelector: "button[aria-label='Submit application']",
		maxSteps:       8,
	}
}
