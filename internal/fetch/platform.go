package fetch

import (
	"net/url"
	"strings"
)

// Platform is the job board or applicant tracking system hosting a posting.
type Platform string

// Known platforms.
const (
	PlatformGreenhouse      Platform = "greenhouse"
	PlatformLever           Platform = "lever"
	PlatformWorkday         Platform = "workday"
	PlatformAshby           Platform = "ashby"
	PlatformSmartRecruiters Platform = "smartrecruiters"
	PlatformUnknown         Platform = "unknown"
)

// platformProfile describes where a platform puts the job description and what
// surrounds it.
type platformProfile struct {
	hosts   []string // matched as the host or a parent domain
	content []string // most specific first
	noise   []string // removed in addition to commonNoiseSelectors
}

// platformOrder fixes detection order so results are deterministic.
var platformOrder = []Platform{
	PlatformGreenhouse,
	PlatformLever,
	PlatformWorkday,
	PlatformAshby,
	PlatformSmartRecruiters,
}

var platformProfiles = map[Platform]platformProfile{
	PlatformGreenhouse: {
		hosts:   []string{"greenhouse.io"},
		content: []string{".job__description.body", ".job__description", ".job-description__content", "#content", ".job-post-container"},
		noise:   []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	PlatformLever: {
		hosts:   []string{"lever.co"},
		content: []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
		noise:   []string{".apply-section", ".posting-apply"},
	},
	PlatformWorkday: {
		hosts:   []string{"myworkdayjobs.com", "workday.com"},
		content: []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']", ".job-description"},
		noise:   []string{"[data-automation-id='applyButton']", ".application-section"},
	},
	PlatformAshby: {
		hosts:   []string{"ashbyhq.com"},
		content: []string{"[class*='descriptionText']", "main"},
		noise:   []string{"[class*='applicationForm']"},
	},
	PlatformSmartRecruiters: {
		hosts:   []string{"smartrecruiters.com"},
		content: []string{"[itemprop='description']", ".job-sections", "main"},
		noise:   []string{".job-apply", "oc-apply-button"},
	},
}

// commonNoiseSelectors are stripped on every platform: application forms, EEO
// boilerplate, share widgets and consent banners. None of it is ATS keyword material.
var commonNoiseSelectors = []string{
	"form",
	"#application-form",
	".application-form",
	".application--container",
	".apply-button-container",
	"[data-testid='application-form']",
	".voluntary-disclosure",
	".eeo-statement",
	".eeo-section",
	"[data-testid='eeo']",
	".legal-disclosure",
	".self-identification",
	".social-share",
	".share-buttons",
	".cookie-banner",
	".cookie-consent",
	".gdpr-notice",
}

// DetectPlatform identifies the platform from a URL's host. Hosts must match on a
// label boundary, so notlever.com is not Lever.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	for _, p := range platformOrder {
		for _, h := range platformProfiles[p].hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p
			}
		}
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns where to look for the description. Unknown
// platforms get JobPostingSelectors.
func PlatformContentSelectors(platform Platform) []string {
	if profile, ok := platformProfiles[platform]; ok {
		return append([]string(nil), profile.content...)
	}
	return JobPostingSelectors()
}

// PlatformNoiseSelectors returns the selectors stripped before text extraction.
func PlatformNoiseSelectors(platform Platform) []string {
	selectors := append([]string(nil), commonNoiseSelectors...)
	return append(selectors, platformProfiles[platform].noise...)
}
