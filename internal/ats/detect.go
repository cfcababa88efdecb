// Package ats classifies job pages by applicant tracking system and
// implements one submission strategy per system.
package ats

import (
	"strings"

	"github.com/jobwright/applypilot/internal/model"
)

type signature struct {
	atsType model.ATSType
	// domains are substrings matched against the page URL.
	domains []string
	// markers are substrings matched against the rendered content.
	markers []string
}

// Order matters: the first matching signature wins, LinkedIn last among
// the specific ones because its domain also hosts reposted listings.
var signatures = []signature{
	{
		atsType: model.ATSWorkday,
		domains: []string{"myworkdayjobs.com", ".workday.com"},
		markers: []string{"data-automation-id=\"adventureButton\"", "workday"},
	},
	{
		atsType: model.ATSGreenhouse,
		domains: []string{"greenhouse.io", "boards.greenhouse"},
		markers: []string{"greenhouse.io/embed", "gh_jid"},
	},
	{
		atsType: model.ATSLever,
		domains: []string{"jobs.lever.co", "lever.co"},
		markers: []string{"lever-jobs", "postings-btn"},
	},
	{
		atsType: model.ATSSuccessFactors,
		domains: []string{"successfactors.com", "successfactors.eu", "careers.sap.com"},
		markers: []string{"successfactors"},
	},
	{
		atsType: model.ATSICIMS,
		domains: []string{"icims.com"},
		markers: []string{"icims_content_iframe"},
	},
	{
		atsType: model.ATSLinkedIn,
		domains: []string{"linkedin.com"},
		markers: []string{"jobs-apply-button"},
	},
}

// Detect classifies the navigated page. Unmatched pages are Generic.
func Detect(pageURL, content string) model.ATSType {
	url := strings.ToLower(pageURL)
	body := strings.ToLower(content)

	for _, sig := range signatures {
		for _, domain := range sig.domains {
			if strings.Contains(url, domain) {
				return sig.atsType
			}
		}
	}

	for _, sig := range signatures {
		for _, marker := range sig.markers {
			if marker != "" && strings.Contains(body, strings.ToLower(marker)) {
				return sig.atsType
			}
		}
	}

	return model.ATSGeneric
}
