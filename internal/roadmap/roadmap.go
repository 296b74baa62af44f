// Package roadmap implements the Roadmap Planner (spec §4.8): given a
// MatchResult, it derives a target grade one tier above the current one, a
// gap set of JD keywords the résumé should close, and an LLM-generated
// N-week curriculum enforcing a 70/30 gap-to-bridge task budget, with
// resources bound from the static catalog. Grounded on
// anatolykoptev-go_job/skillgap.go's prompt-construction style and the
// teacher's LLM retry shape, reused here via internal/agent.
package roadmap

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/go-playground/validator/v10"

	"resumatch/internal/agent"
	"resumatch/internal/catalog"
	"resumatch/internal/domain"
	"resumatch/internal/keyword"
	"resumatch/internal/tracing"
)

const (
	minWeeks        = 4
	maxWeeks        = 12
	defaultWeeks    = 8
	gapTaskBudget   = 0.70
	keyAreaCount    = 5
	resourcesPerWk  = 3
)

var emphasisByGrade = map[domain.Grade]string{
	domain.GradeD: "foundations first; single-keyword weeks; beginner resources dominate",
	domain.GradeC: "fundamentals plus one intermediate project-themed week",
	domain.GradeB: "mostly intermediate; introduce advanced topics in the final two weeks",
	domain.GradeA: "advanced topics plus interview and portfolio polish",
	domain.GradeS: "stretch topics plus open-source contribution and portfolio weeks",
}

// NextGrade returns the target grade one tier above current, fixed at S.
func NextGrade(current domain.Grade) domain.Grade {
	switch current {
	case domain.GradeD:
		return domain.GradeC
	case domain.GradeC:
		return domain.GradeB
	case domain.GradeB:
		return domain.GradeA
	case domain.GradeA:
		return domain.GradeS
	case domain.GradeS:
		return domain.GradeS
	default:
		return domain.GradeC
	}
}

const systemPrompt = `You are a curriculum designer building a personalized technical learning roadmap.
Respond with ONLY a JSON object of this exact shape, no prose, no markdown fences:
{
  "weeks": [
    {
      "week_number": 1,
      "title": "...",
      "duration": "1 week",
      "description": "...",
      "keywords": ["..."],
      "tasks": [{"task": "...", "priority": "high"}]
    }
  ]
}
Rules:
- Emit exactly the requested number of weeks, numbered contiguously starting at 1.
- Each week has between 3 and 5 tasks.
- At least 70% of all tasks across the whole plan must target a keyword from the gap list you are given.
- The remaining tasks may reinforce matched strengths or cover bridge topics relevant to the target role.
- priority is one of "high", "medium", "low", or omitted.
- Keywords should be short technology/skill names, not sentences.`

type taskShape struct {
	Task     string `json:"task" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=high medium low"`
}

type weekShape struct {
	WeekNumber  int         `json:"week_number"`
	Title       string      `json:"title" validate:"required"`
	Duration    string      `json:"duration" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Keywords    []string    `json:"keywords" validate:"required,min=1"`
	Tasks       []taskShape `json:"tasks" validate:"required,min=3,max=5,dive"`
}

type planShape struct {
	Weeks []weekShape `json:"weeks" validate:"required,dive"`
}

// Planner generates Roadmaps from MatchResults.
type Planner struct {
	client   model.ToolCallingChatModel
	catalog  *catalog.Catalog
	validate *validator.Validate
}

// New builds a Planner backed by client and cat.
func New(client model.ToolCallingChatModel, cat *catalog.Catalog) *Planner {
	return &Planner{client: client, catalog: cat, validate: validator.New()}
}

// Generate implements spec §4.8 end to end. targetWeeks is clamped to
// [4,12], defaulting to 8 when 0.
func (p *Planner) Generate(ctx context.Context, result *domain.MatchResult, resumeText, jdText string, targetWeeks int) (*domain.Roadmap, error) {
	tracer := tracing.Tracer("resumatch/roadmap")
	ctx, span := tracer.Start(ctx, "roadmap.Generate")
	defer span.End()

	targetWeeks = clampWeeks(targetWeeks)
	currentGrade := result.MatchGrade
	targetGrade := NextGrade(currentGrade)
	emphasis := emphasisByGrade[currentGrade]

	resumeKW := keyword.Extract(resumeText)
	jdKW := keyword.Extract(jdText)
	gaps := computeGaps(result, resumeKW, jdKW)
	gapSet := make(map[string]bool, len(gaps))
	for _, g := range gaps {
		gapSet[g.keyword] = true
	}

	if p.client == nil {
		return nil, domain.NewUpstreamError("roadmap.Generate", "no LLM client configured")
	}

	prompt := buildPrompt(gapKeywords(gaps), currentGrade, targetGrade, emphasis, targetWeeks)
	a := agent.NewBaseAgent("roadmap-planner", systemPrompt, p.client, nil)
	plan, err := agent.GenerateValidated[planShape](ctx, a, prompt, func(ps *planShape) error {
		return p.validatePlan(ps, targetWeeks)
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, domain.NewInternalError("roadmap.Generate", err.Error())
	}

	weeks := toDomainWeeks(plan.Weeks)
	enforceGapBudget(weeks, gapSet)
	bindAllResources(p.catalog, weeks, currentGrade, targetWeeks)

	return &domain.Roadmap{
		TotalWeeks:          targetWeeks,
		CurrentGrade:        currentGrade,
		TargetGrade:         targetGrade,
		Summary:             summaryFor(result, targetGrade, emphasis),
		KeyImprovementAreas: topGapKeywords(gaps, keyAreaCount),
		WeeklyPlan:          weeks,
	}, nil
}

func (p *Planner) validatePlan(ps *planShape, targetWeeks int) error {
	if err := p.validate.Struct(ps); err != nil {
		return err
	}
	if len(ps.Weeks) != targetWeeks {
		return fmt.Errorf("expected exactly %d weeks, got %d", targetWeeks, len(ps.Weeks))
	}
	return nil
}

func buildPrompt(gaps []string, current, target domain.Grade, emphasis string, weeks int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate's current grade: %s. Target grade: %s.\n", current, target)
	fmt.Fprintf(&b, "Emphasis for this tier: %s.\n", emphasis)
	fmt.Fprintf(&b, "Generate exactly %d weeks.\n", weeks)
	if len(gaps) > 0 {
		fmt.Fprintf(&b, "Gap keywords to target (at least 70%% of all tasks must reference one of these): %s\n", strings.Join(gaps, ", "))
	} else {
		b.WriteString("No specific keyword gaps were found; focus on deepening and broadening existing strengths.\n")
	}
	return b.String()
}

func toDomainWeeks(in []weekShape) []domain.Week {
	out := make([]domain.Week, len(in))
	for i, w := range in {
		out[i] = domain.Week{
			WeekNumber:  i + 1,
			Title:       w.Title,
			Duration:    w.Duration,
			Description: w.Description,
			Keywords:    normalizeKeywords(w.Keywords),
			Tasks:       toDomainTasks(w.Tasks),
		}
	}
	return out
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, k := range in {
		n := keyword.Normalize(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func toDomainTasks(in []taskShape) []domain.Task {
	out := make([]domain.Task, len(in))
	for i, t := range in {
		out[i] = domain.Task{Task: t.Task, Priority: domain.Priority(t.Priority)}
	}
	return out
}

// enforceGapBudget guarantees the testable ">=70% of tasks reference a gap
// keyword" property server-side rather than trusting the LLM's compliance:
// it rewrites the minimum number of non-gap tasks (in plan order) to
// explicitly reference a gap keyword until the ratio is met.
func enforceGapBudget(weeks []domain.Week, gapSet map[string]bool) {
	if len(gapSet) == 0 {
		return
	}
	gapList := make([]string, 0, len(gapSet))
	for k := range gapSet {
		gapList = append(gapList, k)
	}
	sort.Strings(gapList)

	type ref struct{ week, task int }
	var all []ref
	refersGap := func(r ref) bool {
		text := keyword.Normalize(weeks[r.week].Tasks[r.task].Task)
		for _, g := range gapList {
			if strings.Contains(text, g) {
				return true
			}
		}
		return false
	}

	gapCount := 0
	for w := range weeks {
		for t := range weeks[w].Tasks {
			r := ref{w, t}
			all = append(all, r)
			if refersGap(r) {
				gapCount++
			}
		}
	}
	total := len(all)
	if total == 0 {
		return
	}
	needed := int(math.Ceil(gapTaskBudget * float64(total)))
	if gapCount >= needed {
		return
	}

	gi := 0
	for _, r := range all {
		if gapCount >= needed {
			break
		}
		if refersGap(r) {
			continue
		}
		g := gapList[gi%len(gapList)]
		gi++
		weeks[r.week].Tasks[r.task].Task = fmt.Sprintf("%s (focus keyword: %s)", weeks[r.week].Tasks[r.task].Task, g)
		gapCount++
	}
}

func bindAllResources(cat *catalog.Catalog, weeks []domain.Week, currentGrade domain.Grade, totalWeeks int) {
	used := make(map[string]bool)
	for i := range weeks {
		desired := desiredDifficulty(currentGrade, weeks[i].WeekNumber, totalWeeks)
		res := bindResources(cat, weeks[i].Keywords, desired, resourcesPerWk, used)
		for _, r := range res {
			used[r.URL] = true
		}
		weeks[i].Resources = res
	}
}

func summaryFor(result *domain.MatchResult, targetGrade domain.Grade, emphasis string) string {
	return fmt.Sprintf(
		"Starting from grade %s (%d/100), this plan targets grade %s. Emphasis: %s.",
		result.MatchGrade, result.MatchScore, targetGrade, emphasis,
	)
}

func clampWeeks(n int) int {
	if n <= 0 {
		return defaultWeeks
	}
	if n < minWeeks {
		return minWeeks
	}
	if n > maxWeeks {
		return maxWeeks
	}
	return n
}
