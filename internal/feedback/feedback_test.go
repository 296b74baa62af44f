package feedback

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"resumatch/internal/domain"
)

// fakeChatModel is a minimal model.ToolCallingChatModel double that returns
// a fixed sequence of responses, one per call, so tests can exercise the
// repair-retry path deterministically without a network call.
type fakeChatModel struct {
	responses []string
	calls     int
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return &schema.Message{Role: schema.Assistant, Content: f.responses[i]}, nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func (f *fakeChatModel) WithTools([]*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func sampleResult() *domain.MatchResult {
	return &domain.MatchResult{
		ResumeDocumentID: "r1",
		JDDocumentID:     "j1",
		MatchScore:       82,
		MatchGrade:       domain.GradeA,
		SectionScores: []domain.SectionScore{
			{SectionType: domain.SectionRequirements, Score: 0.9, Weight: 0.45, ChunkCount: 2},
			{SectionType: domain.SectionTechnical, Score: 0.4, Weight: 0.25, ChunkCount: 1},
		},
		SimilarTechMatches: []domain.SimilarTechMatch{
			{JDRequired: "next.js", ResumeHas: "react", Relationship: "framework family"},
		},
	}
}

func sampleExcerpts() ([]Excerpt, []Excerpt) {
	resume := []Excerpt{{SectionType: domain.SectionExperience, Text: "Built react and postgres services at a startup."}}
	jd := []Excerpt{{SectionType: domain.SectionRequirements, Text: "Looking for react and next.js experience with postgres."}}
	return resume, jd
}

const validJSON = `{
  "summary": "Strong overall fit on core requirements, weaker on the technical stack section.",
  "strengths": ["react experience lines up with the core requirements", "postgres appears in both documents"],
  "improvements": ["next.js is missing from the technical stack section", "consider adding more depth on postgres"],
  "potential": ["closing the next.js gap could raise the score", "react experience transfers well to next.js"],
  "action_items": ["add a next.js project to work experience", "mention postgres query optimization explicitly"]
}`

func TestGenerate_ValidFirstTry(t *testing.T) {
	model := &fakeChatModel{responses: []string{validJSON}}
	g := New(model)
	resumeEx, jdEx := sampleExcerpts()

	fb := g.Generate(context.Background(), sampleResult(), resumeEx, jdEx)

	require.Len(t, fb.Strengths, 2)
	require.Len(t, fb.Improvements, 2)
	require.Len(t, fb.Potential, 2)
	require.Len(t, fb.ActionItems, 2)
	require.Equal(t, 1, model.calls)
}

func TestGenerate_RepairsOnceThenFallsBackToDeterministic(t *testing.T) {
	model := &fakeChatModel{responses: []string{"not json at all", "still not json"}}
	g := New(model)
	resumeEx, jdEx := sampleExcerpts()

	fb := g.Generate(context.Background(), sampleResult(), resumeEx, jdEx)

	require.Equal(t, 2, model.calls)
	require.NotEmpty(t, fb.Summary)
	require.GreaterOrEqual(t, len(fb.Strengths), 2)
	require.GreaterOrEqual(t, len(fb.Improvements), 2)
}

func TestGenerate_RepairSucceedsOnSecondAttempt(t *testing.T) {
	model := &fakeChatModel{responses: []string{"garbage", validJSON}}
	g := New(model)
	resumeEx, jdEx := sampleExcerpts()

	fb := g.Generate(context.Background(), sampleResult(), resumeEx, jdEx)

	require.Equal(t, 2, model.calls)
	require.Contains(t, fb.Strengths[0], "react")
}

func TestGenerate_InsufficientDataSkipsLLM(t *testing.T) {
	model := &fakeChatModel{responses: []string{validJSON}}
	g := New(model)
	result := &domain.MatchResult{InsufficientData: true, MatchGrade: domain.GradeD}

	fb := g.Generate(context.Background(), result, nil, nil)

	require.Equal(t, 0, model.calls)
	require.GreaterOrEqual(t, len(fb.Strengths), 2)
}

func TestGenerate_NilClientFallsBack(t *testing.T) {
	g := New(nil)

	fb := g.Generate(context.Background(), sampleResult(), nil, nil)

	require.NotEmpty(t, fb.Summary)
	require.GreaterOrEqual(t, len(fb.ActionItems), 2)
}

func TestDeterministicFallback_NeverEmpty(t *testing.T) {
	result := sampleResult()
	fb := deterministicFallback(result)

	require.Len(t, fb.Strengths, 2)
	require.Len(t, fb.Improvements, 2)
	require.Contains(t, fb.Summary, "82")
}

func TestLabelOf_FallsBackToRawTagForUnknown(t *testing.T) {
	require.Equal(t, "mystery_section", labelOf(domain.SectionType("mystery_section")))
}
