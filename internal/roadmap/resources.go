package roadmap

import (
	"sort"

	"resumatch/internal/catalog"
	"resumatch/internal/domain"
)

var difficultyRank = map[domain.ResourceDifficulty]int{
	domain.DifficultyBeginner:     0,
	domain.DifficultyIntermediate: 1,
	domain.DifficultyAdvanced:     2,
}

// bindResources resolves up to limit catalog resources for a week's
// keywords (spec §4.8 step 6): normalized-keyword lookup through the
// catalog, preferring entries closest to desired difficulty, never
// repeating a URL already used elsewhere in the plan.
func bindResources(cat *catalog.Catalog, keywords []string, desired domain.ResourceDifficulty, limit int, exclude map[string]bool) []domain.LearningResource {
	var candidates []domain.LearningResource
	seen := make(map[string]bool)
	for _, kw := range keywords {
		for _, r := range cat.Lookup(kw) {
			if seen[r.URL] || exclude[r.URL] {
				continue
			}
			seen[r.URL] = true
			candidates = append(candidates, r)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		di := abs(difficultyRank[candidates[i].Difficulty] - difficultyRank[desired])
		dj := abs(difficultyRank[candidates[j].Difficulty] - difficultyRank[desired])
		if di != dj {
			return di < dj
		}
		return candidates[i].Title < candidates[j].Title
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// desiredDifficulty implements the grade-tiered strategy table (spec
// §4.8 step 4): which difficulty tier a given week should draw resources
// from, given the candidate's current (pre-roadmap) grade.
func desiredDifficulty(grade domain.Grade, weekNumber, totalWeeks int) domain.ResourceDifficulty {
	switch grade {
	case domain.GradeD:
		return domain.DifficultyBeginner
	case domain.GradeC:
		if weekNumber == totalWeeks {
			return domain.DifficultyIntermediate
		}
		return domain.DifficultyBeginner
	case domain.GradeB:
		if weekNumber > totalWeeks-2 {
			return domain.DifficultyAdvanced
		}
		return domain.DifficultyIntermediate
	case domain.GradeA, domain.GradeS:
		return domain.DifficultyAdvanced
	default:
		return domain.DifficultyBeginner
	}
}
