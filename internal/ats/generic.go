package ats

import "github.com/jobwright/applypilot/internal/model"

// NewGeneric builds the fallback strategy for unrecognized sites: poke
// the most common apply affordances and fill whatever form shows up.
// No formSelector means the page is filled as-is when no entry point is
// found, which covers postings that land directly on the form.
func NewGeneric() Strategy {
	return &formStrategy{
		atsType: model.ATSGeneric,
		entrySelectors: []string{
			"a[href*='apply']",
			"button[class*='apply']",
			"button[id*='apply']",
		},
		submitSelector: "button[type='submit'], input[type='submit']",
	}
}
