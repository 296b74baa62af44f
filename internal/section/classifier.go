// Package section assigns a closed-vocabulary section tag to a chunk of
// résumé or job-description text, driving the weight table the matching
// engine applies in §4.6.
package section

import (
	"regexp"
	"strings"

	"resumatch/internal/domain"
)

// minConfidence is the minimum keyword-score a category must reach before
// it beats the "other" fallback.
const minConfidence = 1.0

// term is one scored keyword or heading pattern contributing to a
// category's score. Headings score higher than body keywords because a
// heading match is a much stronger signal.
type term struct {
	pattern    *regexp.Regexp
	weight     float64
}

func headingTerm(words ...string) term {
	pattern := `(?im)^\s*(` + strings.Join(words, "|") + `)\s*:?\s*$`
	return term{pattern: regexp.MustCompile(pattern), weight: 3.0}
}

func keywordTerm(word string) term {
	pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
	return term{pattern: regexp.MustCompile(pattern), weight: 1.0}
}

// specificity orders categories from most to least specific so a tie is
// broken toward the more specific one (e.g. "preferred" over
// "requirements" when both match).
var resumeSpecificity = map[domain.SectionType]int{
	domain.SectionCertifications: 5,
	domain.SectionProjects:       4,
	domain.SectionEducation:      3,
	domain.SectionSkills:         3,
	domain.SectionExperience:     2,
	domain.SectionSummary:        1,
}

var jdSpecificity = map[domain.SectionType]int{
	domain.SectionBenefits:         5,
	domain.SectionPreferred:        4,
	domain.SectionTechnical:        3,
	domain.SectionResponsibilities: 2,
	domain.SectionRequirements:     1,
}

var resumeTerms = map[domain.SectionType][]term{
	domain.SectionSummary: {
		headingTerm("summary", "profile", "objective", "about me", "professional summary"),
	},
	domain.SectionExperience: {
		headingTerm("experience", "work experience", "employment history", "professional experience"),
		keywordTerm("responsible for"),
		keywordTerm("managed"),
	},
	domain.SectionSkills: {
		headingTerm("skills", "technical skills", "technologies", "tech stack"),
		keywordTerm("proficient"),
	},
	domain.SectionEducation: {
		headingTerm("education", "academic background"),
		keywordTerm("university"),
		keywordTerm("degree"),
		keywordTerm("bachelor"),
		keywordTerm("master"),
	},
	domain.SectionProjects: {
		headingTerm("projects", "personal projects", "side projects", "portfolio"),
	},
	domain.SectionCertifications: {
		headingTerm("certifications", "certificates", "licenses"),
		keywordTerm("certified"),
	},
}

var jdTerms = map[domain.SectionType][]term{
	domain.SectionRequirements: {
		headingTerm("requirements", "required qualifications", "minimum qualifications", "qualifications"),
		keywordTerm("must have"),
		keywordTerm("you have"),
	},
	domain.SectionPreferred: {
		headingTerm("preferred", "preferred qualifications", "nice to have", "bonus points"),
		keywordTerm("preferred"),
		keywordTerm("nice to have"),
	},
	domain.SectionResponsibilities: {
		headingTerm("responsibilities", "what you'll do", "role", "duties"),
		keywordTerm("you will"),
	},
	domain.SectionTechnical: {
		headingTerm("tech stack", "technologies", "technical requirements", "stack"),
	},
	domain.SectionBenefits: {
		headingTerm("benefits", "perks", "what we offer", "compensation"),
		keywordTerm("health insurance"),
		keywordTerm("401k"),
		keywordTerm("pto"),
	},
}

// Classify assigns a SectionType to chunk text given the document's
// FileType. Deterministic given identical input.
func Classify(text string, fileType domain.FileType) domain.SectionType {
	terms := resumeTerms
	specificity := resumeSpecificity
	if fileType == domain.FileTypeJD {
		terms = jdTerms
		specificity = jdSpecificity
	}

	var best domain.SectionType
	bestScore := -1.0
	bestSpecificity := -1

	for section, ts := range terms {
		score := 0.0
		for _, t := range ts {
			if t.pattern.MatchString(text) {
				score += t.weight
			}
		}
		if score < minConfidence {
			continue
		}
		sp := specificity[section]
		if score > bestScore || (score == bestScore && sp > bestSpecificity) {
			best = section
			bestScore = score
			bestSpecificity = sp
		}
	}

	if bestScore < minConfidence {
		return domain.SectionOther
	}
	return best
}
