package ats

import "github.com/jobwright/applypilot/internal/model"

// NewGreenhouse builds the strategy for Greenhouse job boards. The
// application form lives on the posting page itself behind an anchor.
func NewGreenhouse() Strategy {
	return &formStrategy{
		atsType: model.ATSGreenhouse,
		entrySelectors: []string{
			"#apply_button",
			"a[href*='#app']",
			"a[href*='applications/new']",
		},
		formSelector: "#application_form, #application-form",
		resumeSelectors: []string{
			"#resume_upload input[type='file']",
			"input[name='resume']",
		},
		submitSelector: "#submit_app, input[type='submit'][value='Submit Application']",
	}
}
