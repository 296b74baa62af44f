package roadmap

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"resumatch/internal/domain"
)

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

func sampleMatchResult(grade domain.Grade, score int) *domain.MatchResult {
	return &domain.MatchResult{
		ResumeDocumentID: "r1",
		JDDocumentID:     "j1",
		MatchScore:       score,
		MatchGrade:       grade,
		SectionScores: []domain.SectionScore{
			{SectionType: domain.SectionRequirements, Score: 0.9, Weight: 0.45, ChunkCount: 2},
			{SectionType: domain.SectionTechnical, Score: 0.3, Weight: 0.25, ChunkCount: 1},
		},
		ChunkMatches: []domain.ChunkMatch{
			{SectionType: domain.SectionTechnical, JDExcerpt: "requires kubernetes and docker experience", Similarity: 0.3},
		},
	}
}

func fourWeekPlanJSON() string {
	return `{"weeks":[
		{"week_number":1,"title":"Foundations","duration":"1 week","description":"intro","keywords":["docker"],"tasks":[{"task":"learn docker basics","priority":"high"},{"task":"write a dockerfile","priority":"medium"},{"task":"review networking fundamentals","priority":"low"}]},
		{"week_number":2,"title":"Orchestration","duration":"1 week","description":"k8s","keywords":["kubernetes"],"tasks":[{"task":"deploy a pod on kubernetes","priority":"high"},{"task":"write a kubernetes service manifest","priority":"medium"},{"task":"explore helm charts"}]},
		{"week_number":3,"title":"Practice","duration":"1 week","description":"apply","keywords":["docker","kubernetes"],"tasks":[{"task":"containerize a sample app with docker"},{"task":"deploy the app to a kubernetes cluster"},{"task":"polish your resume summary"}]},
		{"week_number":4,"title":"Review","duration":"1 week","description":"wrap up","keywords":["kubernetes"],"tasks":[{"task":"mock interview on kubernetes"},{"task":"write a blog post"},{"task":"update your portfolio"}]}
	]}`
}

func TestNextGrade_Progression(t *testing.T) {
	require.Equal(t, domain.GradeC, NextGrade(domain.GradeD))
	require.Equal(t, domain.GradeB, NextGrade(domain.GradeC))
	require.Equal(t, domain.GradeA, NextGrade(domain.GradeB))
	require.Equal(t, domain.GradeS, NextGrade(domain.GradeA))
	require.Equal(t, domain.GradeS, NextGrade(domain.GradeS))
}

func TestClampWeeks(t *testing.T) {
	require.Equal(t, defaultWeeks, clampWeeks(0))
	require.Equal(t, minWeeks, clampWeeks(1))
	require.Equal(t, maxWeeks, clampWeeks(99))
	require.Equal(t, 6, clampWeeks(6))
}

func TestNormalizeKeywords_DedupesAndNormalizes(t *testing.T) {
	out := normalizeKeywords([]string{"Docker", "docker", " Kubernetes ", ""})
	require.Equal(t, []string{"docker", "kubernetes"}, out)
}

func TestEnforceGapBudget_MeetsSeventyPercentThreshold(t *testing.T) {
	weeks := []domain.Week{
		{
			WeekNumber: 1,
			Keywords:   []string{"docker"},
			Tasks: []domain.Task{
				{Task: "write a readme"},
				{Task: "polish resume"},
				{Task: "network with recruiters"},
				{Task: "practice behavioral questions"},
			},
		},
	}
	gapSet := map[string]bool{"docker": true, "kubernetes": true}

	enforceGapBudget(weeks, gapSet)

	total := len(weeks[0].Tasks)
	gapCount := 0
	for _, task := range weeks[0].Tasks {
		if strings.Contains(strings.ToLower(task.Task), "docker") || strings.Contains(strings.ToLower(task.Task), "kubernetes") {
			gapCount++
		}
	}
	require.GreaterOrEqual(t, float64(gapCount)/float64(total), gapTaskBudget)
}

func TestEnforceGapBudget_NoopWhenGapSetEmpty(t *testing.T) {
	weeks := []domain.Week{
		{Tasks: []domain.Task{{Task: "anything"}, {Task: "anything else"}}},
	}
	original := weeks[0].Tasks[0].Task

	enforceGapBudget(weeks, map[string]bool{})

	require.Equal(t, original, weeks[0].Tasks[0].Task)
}

func TestEnforceGapBudget_AlreadyAboveThresholdUnchanged(t *testing.T) {
	weeks := []domain.Week{
		{
			Keywords: []string{"docker"},
			Tasks: []domain.Task{
				{Task: "learn docker"},
				{Task: "learn more docker"},
				{Task: "write a cover letter"},
				{Task: "ship a docker side project"},
			},
		},
	}
	gapSet := map[string]bool{"docker": true}
	before := weeks[0].Tasks[2].Task

	enforceGapBudget(weeks, gapSet)

	require.Equal(t, before, weeks[0].Tasks[2].Task)
}

func TestDesiredDifficulty_GradeTiers(t *testing.T) {
	require.Equal(t, domain.DifficultyBeginner, desiredDifficulty(domain.GradeD, 1, 4))
	require.Equal(t, domain.DifficultyAdvanced, desiredDifficulty(domain.GradeA, 1, 8))
	require.Equal(t, domain.DifficultyAdvanced, desiredDifficulty(domain.GradeB, 8, 8))
	require.Equal(t, domain.DifficultyIntermediate, desiredDifficulty(domain.GradeB, 1, 8))
}

func TestValidatePlan_RejectsWrongWeekCount(t *testing.T) {
	p := New(nil, nil)
	ps := &planShape{Weeks: []weekShape{
		{Title: "a", Duration: "1 week", Description: "d", Keywords: []string{"docker"}, Tasks: []taskShape{{Task: "t1"}, {Task: "t2"}, {Task: "t3"}}},
	}}

	err := p.validatePlan(ps, 4)
	require.Error(t, err)
}

func TestValidatePlan_RejectsTooFewTasks(t *testing.T) {
	p := New(nil, nil)
	ps := &planShape{Weeks: []weekShape{
		{Title: "a", Duration: "1 week", Description: "d", Keywords: []string{"docker"}, Tasks: []taskShape{{Task: "t1"}}},
	}}

	err := p.validatePlan(ps, 1)
	require.Error(t, err)
}

func TestToDomainWeeks_AssignsSequentialWeekNumbers(t *testing.T) {
	var ps planShape
	require.NoError(t, json.Unmarshal([]byte(fourWeekPlanJSON()), &ps))

	weeks := toDomainWeeks(ps.Weeks)

	require.Len(t, weeks, 4)
	for i, w := range weeks {
		require.Equal(t, i+1, w.WeekNumber)
	}
}

func TestBuildPrompt_MentionsGapsAndWeekCount(t *testing.T) {
	prompt := buildPrompt([]string{"kubernetes", "docker"}, domain.GradeC, domain.GradeB, "emphasis text", 6)

	require.Contains(t, prompt, "kubernetes")
	require.Contains(t, prompt, "docker")
	require.Contains(t, prompt, "exactly 6 weeks")
}

func TestBuildPrompt_NoGapsFallsBackToStrengthsMessage(t *testing.T) {
	prompt := buildPrompt(nil, domain.GradeS, domain.GradeS, "stretch", 4)

	require.Contains(t, prompt, "No specific keyword gaps")
}

func TestSummaryFor_IncludesGradesAndScore(t *testing.T) {
	result := sampleMatchResult(domain.GradeB, 75)
	summary := summaryFor(result, domain.GradeA, "advanced emphasis")

	require.Contains(t, summary, "B")
	require.Contains(t, summary, "A")
	require.Contains(t, summary, "75")
}
