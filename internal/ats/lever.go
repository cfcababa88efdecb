package ats

import "github.com/jobwright/applypilot/internal/model"

// NewLever builds the strategy for Lever postings. Lever serves the
// form on a dedicated /apply page reached from the posting.
func NewLever() Strategy {
	return &formStrategy{
		atsType: model.ATSLever,
		entrySelectors: []string{
			"a.postings-btn[href$='/apply']",
			"a[href$='/apply']",
		},
		formSelector: ".application-form, #application-form",
		resumeSelectors: []string{
			"input[name='resume']",
		},
		submitSelector: "button[type='submit'].postings-btn, button#btn-submit",
	}
}
