package roadmap

import (
	"sort"

	"resumatch/internal/domain"
	"resumatch/internal/keyword"
)

// weakSectionThreshold is spec §4.8 step 2(b)'s cutoff: a JD section
// scoring below this counts as a gap driver even for keywords the résumé
// does technically contain.
const weakSectionThreshold = 0.6

// gap is one JD keyword the roadmap should target, carrying the JD section
// weight it was found under so key improvement areas can be ranked.
type gap struct {
	keyword string
	weight  float64
}

// computeGaps implements spec §4.8 step 2: a JD keyword is a gap if (a) it
// is absent from the résumé and not covered by a SimilarTechMatch, or (b)
// its enclosing JD section scored below weakSectionThreshold.
func computeGaps(result *domain.MatchResult, resumeKW, jdKW map[string]bool) []gap {
	techCovered := make(map[string]bool, len(result.SimilarTechMatches))
	for _, m := range result.SimilarTechMatches {
		techCovered[keyword.Normalize(m.JDRequired)] = true
	}

	sectionScore := make(map[domain.SectionType]float64)
	sectionWeight := make(map[domain.SectionType]float64)
	for _, s := range result.SectionScores {
		sectionScore[s.SectionType] = s.Score
		sectionWeight[s.SectionType] = s.Weight
	}
	kwSection := keywordSections(result.ChunkMatches)

	var gaps []gap
	seen := make(map[string]bool)
	for kw := range jdKW {
		if seen[kw] {
			continue
		}
		missing := !resumeKW[kw] && !techCovered[kw]

		weak := false
		weight := 0.05 // default to the "other" section's weight when unseen among chunk matches
		if sec, ok := kwSection[kw]; ok {
			weight = sectionWeight[sec]
			if score, ok2 := sectionScore[sec]; ok2 && score < weakSectionThreshold {
				weak = true
			}
		}

		if missing || weak {
			gaps = append(gaps, gap{keyword: kw, weight: weight})
			seen[kw] = true
		}
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].weight != gaps[j].weight {
			return gaps[i].weight > gaps[j].weight
		}
		return gaps[i].keyword < gaps[j].keyword
	})
	return gaps
}

// keywordSections maps each keyword found in a JD excerpt to the section it
// first appeared under, the approximation this service uses for "a
// keyword's enclosing JD section" since section membership is tracked at
// the chunk level, not the keyword level.
func keywordSections(matches []domain.ChunkMatch) map[string]domain.SectionType {
	out := make(map[string]domain.SectionType)
	for _, m := range matches {
		for kw := range keyword.Extract(m.JDExcerpt) {
			if _, exists := out[kw]; !exists {
				out[kw] = m.SectionType
			}
		}
	}
	return out
}

func gapKeywords(gaps []gap) []string {
	out := make([]string, len(gaps))
	for i, g := range gaps {
		out[i] = g.keyword
	}
	return out
}

// topGapKeywords returns the n highest-weighted gap keywords, already
// sorted by computeGaps. This backs Roadmap.KeyImprovementAreas.
func topGapKeywords(gaps []gap, n int) []string {
	if n > len(gaps) {
		n = len(gaps)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = gaps[i].keyword
	}
	return out
}
