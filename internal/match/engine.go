// Package match implements the Matching Engine, spec §4.6 — the
// algorithmic heart of the service: section-weighted chunk similarity plus
// a similar-technology bonus, collapsed into a 0-100 score and a letter
// grade.
package match

import (
	"context"
	"math"
	"sort"

	"resumatch/internal/domain"
	"resumatch/internal/keyword"
	"resumatch/internal/similartech"
	"resumatch/internal/vectorstore"
)

// sectionWeights is the fixed table from spec §4.6, authoritative per
// DESIGN.md's Open Question decision.
var sectionWeights = map[domain.SectionType]float64{
	domain.SectionRequirements:     0.45,
	domain.SectionTechnical:        0.25,
	domain.SectionPreferred:        0.15,
	domain.SectionResponsibilities: 0.10,
	domain.SectionBenefits:         0.00,
	domain.SectionOther:            0.05,
}

const topKPerChunk = 3
const maxTopMatchesPerSection = 5

// Engine computes MatchResults from two ingested documents.
type Engine struct {
	store vectorstore.Store
}

// New builds a matching Engine backed by store.
func New(store vectorstore.Store) *Engine {
	return &Engine{store: store}
}

// Match implements spec §4.6 end to end. Both documents must already be in
// the "completed" embedding_status; callers should check that before
// calling (the HTTP handler returns NotReadyError earlier in the stack).
func (e *Engine) Match(ctx context.Context, resumeDocumentID, jdDocumentID string) (*domain.MatchResult, error) {
	resumeDoc, err := e.store.GetDocument(ctx, resumeDocumentID, "")
	if err != nil {
		return nil, err
	}
	jdDoc, err := e.store.GetDocument(ctx, jdDocumentID, "")
	if err != nil {
		return nil, err
	}

	resumeChunks, err := e.store.CountChunks(ctx, resumeDocumentID)
	if err != nil {
		return nil, domain.NewUpstreamError("match.Match", err.Error())
	}
	jdChunks, err := e.store.CountChunks(ctx, jdDocumentID)
	if err != nil {
		return nil, domain.NewUpstreamError("match.Match", err.Error())
	}

	if resumeChunks == 0 || jdChunks == 0 {
		return insufficientDataResult(resumeDocumentID, jdDocumentID), nil
	}

	pairwise, err := e.store.MatchDocumentsByFile(ctx, resumeDocumentID, jdDocumentID, topKPerChunk)
	if err != nil {
		return nil, domain.NewUpstreamError("match.Match", err.Error())
	}

	sectionScores, allTop := scoreSections(pairwise)
	weighted := weightedSimilarity(sectionScores)

	overallSim, err := e.store.OverallSimilarity(ctx, resumeDocumentID, jdDocumentID)
	if err != nil {
		return nil, domain.NewUpstreamError("match.Match", err.Error())
	}

	resumeKW := keyword.Extract(resumeDoc.CleanedText)
	jdKW := keyword.Extract(jdDoc.CleanedText)
	techMatches := similartech.FindMatches(jdKW, resumeKW)
	bonus := techBonus(techMatches)

	score := clampScore(100*weighted + bonus)
	grade := gradeFor(score)

	return &domain.MatchResult{
		ResumeDocumentID:   resumeDocumentID,
		JDDocumentID:       jdDocumentID,
		OverallSimilarity:  clip01(overallSim),
		MatchScore:         score,
		MatchGrade:         grade,
		SectionScores:      sectionScores,
		ChunkMatches:       allTop,
		SimilarTechMatches: toDomainTechMatches(techMatches),
		SimilarTechBonus:   bonus,
		InsufficientData:   false,
	}, nil
}

func insufficientDataResult(resumeID, jdID string) *domain.MatchResult {
	return &domain.MatchResult{
		ResumeDocumentID:   resumeID,
		JDDocumentID:       jdID,
		OverallSimilarity:  0,
		MatchScore:         0,
		MatchGrade:         domain.GradeD,
		SectionScores:      nil,
		ChunkMatches:       nil,
		SimilarTechMatches: nil,
		SimilarTechBonus:   0,
		InsufficientData:   true,
	}
}

// scoreSections groups pairwise chunk matches by JD section_type and
// computes section_score(s) = mean over j in s of max_r sim(j,r). Returns
// the per-section scores (sorted per Ordering Guarantees: by weight desc,
// then score desc, with ChunkMatches inside each section sorted by
// similarity desc) and every pairwise match, flattened and sorted by
// similarity desc. Only the per-section lists are capped.
func scoreSections(pairwise []domain.ChunkMatch) ([]domain.SectionScore, []domain.ChunkMatch) {
	bySection := make(map[domain.SectionType][]domain.ChunkMatch)
	bestPerJDChunk := make(map[domain.SectionType]map[int]domain.ChunkMatch)

	for _, m := range pairwise {
		bySection[m.SectionType] = append(bySection[m.SectionType], m)
		if bestPerJDChunk[m.SectionType] == nil {
			bestPerJDChunk[m.SectionType] = make(map[int]domain.ChunkMatch)
		}
		if cur, ok := bestPerJDChunk[m.SectionType][m.JDChunkIndex]; !ok || m.Similarity > cur.Similarity {
			bestPerJDChunk[m.SectionType][m.JDChunkIndex] = m
		}
	}

	var scores []domain.SectionScore
	var allTop []domain.ChunkMatch

	for sectionType, perJD := range bestPerJDChunk {
		sum := 0.0
		best := make([]domain.ChunkMatch, 0, len(perJD))
		for _, m := range perJD {
			sum += m.Similarity
			best = append(best, m)
		}
		sort.Slice(best, func(i, j int) bool { return best[i].Similarity > best[j].Similarity })

		top := best
		if len(top) > maxTopMatchesPerSection {
			top = top[:maxTopMatchesPerSection]
		}

		scores = append(scores, domain.SectionScore{
			SectionType: sectionType,
			Score:       sum / float64(len(perJD)),
			Weight:      sectionWeights[sectionType],
			ChunkCount:  len(perJD),
			TopMatches:  top,
		})

		allTop = append(allTop, sortedBySimilarity(bySection[sectionType])...)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Weight != scores[j].Weight {
			return scores[i].Weight > scores[j].Weight
		}
		return scores[i].Score > scores[j].Score
	})
	allTop = sortedBySimilarity(allTop)

	return scores, allTop
}

func sortedBySimilarity(matches []domain.ChunkMatch) []domain.ChunkMatch {
	out := make([]domain.ChunkMatch, len(matches))
	copy(out, matches)
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out
}

// weightedSimilarity normalizes sectionWeights over the sections actually
// present among sectionScores, per spec §4.6 step 3.
func weightedSimilarity(sectionScores []domain.SectionScore) float64 {
	var weightedSum, totalWeight float64
	for _, s := range sectionScores {
		weightedSum += s.Weight * s.Score
		totalWeight += s.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

func techBonus(matches []similartech.Match) float64 {
	return math.Min(10, 2*float64(len(matches)))
}

func toDomainTechMatches(matches []similartech.Match) []domain.SimilarTechMatch {
	out := make([]domain.SimilarTechMatch, len(matches))
	for i, m := range matches {
		out[i] = domain.SimilarTechMatch{
			JDRequired:        m.JDKeyword,
			ResumeHas:         m.ResumeKeyword,
			Relationship:      m.Relationship,
			BonusContribution: 2,
		}
	}
	return out
}

func clampScore(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return int(math.Round(v))
}

func gradeFor(score int) domain.Grade {
	switch {
	case score >= 90:
		return domain.GradeS
	case score >= 80:
		return domain.GradeA
	case score >= 70:
		return domain.GradeB
	case score >= 55:
		return domain.GradeC
	default:
		return domain.GradeD
	}
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
