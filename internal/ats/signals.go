package ats

import "github.com/jonathan/resume-builder/internal/types"

// Signals rates the summary, experience, skills and education sections.
// Every call returns exactly one signal per section, in that order.
func Signals(doc *types.ResumeDocument) []types.SectionSignal {
	return []types.SectionSignal{
		summarySignal(doc),
		experienceSignal(doc),
		skillsSignal(doc),
		educationSignal(doc),
	}
}

func summarySignal(doc *types.ResumeDocument) types.SectionSignal {
	n := charCount(doc.Summary)
	switch {
	case n < 100:
		return signal(types.SectionSummary, types.SignalRisk,
			"Summary is too short for ATS context; aim for at least 100 characters")
	case n < 200:
		return signal(types.SectionSummary, types.SignalNeedsImprovement,
			"Summary could use more role-specific detail")
	default:
		return signal(types.SectionSummary, types.SignalStrong,
			"Summary length is ATS-friendly")
	}
}

func experienceSignal(doc *types.ResumeDocument) types.SectionSignal {
	entries := len(doc.Experience)
	bullets := len(doc.AllBullets())
	// Mean bullets per entry against 2 and 4; zero entries is a mean of 0.
	switch {
	case entries == 0 || bullets < 2*entries:
		return signal(types.SectionExperience, types.SignalRisk,
			"Add at least 2 bullets per role to describe your impact")
	case bullets < 4*entries:
		return signal(types.SectionExperience, types.SignalNeedsImprovement,
			"Aim for 4 or more bullets per role")
	default:
		return signal(types.SectionExperience, types.SignalStrong,
			"Experience entries are well detailed")
	}
}

func skillsSignal(doc *types.ResumeDocument) types.SectionSignal {
	n := len(doc.AllSkillItems())
	switch {
	case n < 5:
		return signal(types.SectionSkills, types.SignalRisk,
			"List at least 5 skills so keyword filters can match you")
	case n < 10:
		return signal(types.SectionSkills, types.SignalNeedsImprovement,
			"Add more skills to broaden keyword coverage")
	default:
		return signal(types.SectionSkills, types.SignalStrong,
			"Skills section has good keyword coverage")
	}
}

func educationSignal(doc *types.ResumeDocument) types.SectionSignal {
	if len(doc.Education) == 0 {
		return signal(types.SectionEducation, types.SignalRisk,
			"Add your education; many ATS filters require it")
	}
	return signal(types.SectionEducation, types.SignalStrong, "Education section is present")
}

func signal(section string, status types.SignalStatus, message string) types.SectionSignal {
	return types.SectionSignal{SectionID: section, Status: status, Message: message}
}
