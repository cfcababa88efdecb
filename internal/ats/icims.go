package ats

import "github.com/jobwright/applypilot/internal/model"

// NewICIMS builds the strategy for iCIMS portals.
func NewICIMS() Strategy {
	return &formStrategy{
		atsType: model.ATSICIMS,
		entrySelectors: []string{
			"a.iCIMS_ApplyOnlineButton",
			"a[title='Apply for this job online']",
		},
		formSelector: "form#icims_applicationFormContainer, .iCIMS_ApplicationForm",
		resumeSelectors: []string{
			"input#icims_fileField",
		},
		nextSelector:   "input[value='Next']",
		submitSelector: "input[value='Submit'], button#icims_btn_submit",
		maxSteps:       4,
	}
}
