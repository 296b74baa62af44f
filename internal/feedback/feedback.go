// Package feedback implements the Feedback Generator (spec §4.7): an
// LLM-backed renderer that turns a MatchResult plus source excerpts into
// strengths/weaknesses/potential/action-item prose, schema-validated with
// one repair retry and a deterministic fallback on persistent failure.
// Grounded on the teacher's chunker_llm.go retry-call shape and
// anatolykoptev-go_job/skillgap.go's "return ONLY the JSON object" prompt
// style.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/go-playground/validator/v10"

	"resumatch/internal/agent"
	"resumatch/internal/domain"
	"resumatch/internal/tracing"
)

// labels maps each closed-vocabulary section_type onto the English prose
// label the generator is told to use instead of the raw wire tag, per
// spec §4.7's "the generator receives a label map and must use it."
var labels = map[domain.SectionType]string{
	domain.SectionSummary:          "professional summary",
	domain.SectionExperience:       "work experience",
	domain.SectionSkills:           "skills",
	domain.SectionEducation:        "education",
	domain.SectionProjects:         "projects",
	domain.SectionCertifications:   "certifications",
	domain.SectionRequirements:     "core requirements",
	domain.SectionPreferred:        "preferred qualifications",
	domain.SectionResponsibilities: "day-to-day responsibilities",
	domain.SectionTechnical:        "technical stack",
	domain.SectionBenefits:         "benefits",
	domain.SectionOther:            "general content",
}

func labelOf(s domain.SectionType) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

const systemPrompt = `You are a career coach evaluating how well a résumé fits a job description.
You will be given a match analysis (scores per section) and excerpts from both documents.
Respond with ONLY a JSON object of this exact shape, no prose, no markdown fences:
{
  "summary": "one paragraph, plain prose",
  "strengths": ["...", "..."],
  "improvements": ["...", "..."],
  "potential": ["...", "..."],
  "action_items": ["...", "..."]
}
Rules:
- Each of strengths, improvements, potential, action_items must have between 2 and 5 items.
- Every item must reference a specific section label or keyword from the input, never a generic platitude.
- Never invent a job title or employer name that is not present in the excerpts.
- Refer to document sections using the plain-English labels given to you (e.g. "work experience"), never the internal tag names.`

// responseShape is the JSON contract the LLM must satisfy; validator tags
// enforce the 2-5 item bound from spec §4.7(a).
type responseShape struct {
	Summary      string   `json:"summary" validate:"required"`
	Strengths    []string `json:"strengths" validate:"required,min=2,max=5,dive,required"`
	Improvements []string `json:"improvements" validate:"required,min=2,max=5,dive,required"`
	Potential    []string `json:"potential" validate:"required,min=2,max=5,dive,required"`
	ActionItems  []string `json:"action_items" validate:"required,min=2,max=5,dive,required"`
}

// Generator renders a Feedback block from a MatchResult.
type Generator struct {
	client   model.ToolCallingChatModel
	validate *validator.Validate
}

// New builds a Generator backed by client (an llmclient.GeminiChatModel, in
// production, or a test double implementing the same interface).
func New(client model.ToolCallingChatModel) *Generator {
	return &Generator{client: client, validate: validator.New()}
}

// Excerpt is one chunk's text plus the section it was classified into, fed
// to the LLM as grounding material.
type Excerpt struct {
	SectionType domain.SectionType
	Text        string
}

// Generate produces a Feedback block for result. resumeExcerpts/jdExcerpts
// are the source chunks the prompt grounds itself in. Never returns an
// error: on LLM or schema failure (after one repair retry) it falls back
// to a deterministic summary built from the match result's own section
// scores, per spec §4.7.
func (g *Generator) Generate(ctx context.Context, result *domain.MatchResult, resumeExcerpts, jdExcerpts []Excerpt) *domain.Feedback {
	tracer := tracing.Tracer("resumatch/feedback")
	ctx, span := tracer.Start(ctx, "feedback.Generate")
	defer span.End()

	if result.InsufficientData || g.client == nil {
		return deterministicFallback(result)
	}

	prompt := buildPrompt(result, resumeExcerpts, jdExcerpts)
	grounding := groundingVocabulary(result, resumeExcerpts, jdExcerpts)

	a := agent.NewBaseAgent("feedback-generator", systemPrompt, g.client, nil)
	resp, err := agent.GenerateValidated[responseShape](ctx, a, prompt, func(r *responseShape) error {
		return g.validateShape(r, grounding)
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return deterministicFallback(result)
	}

	return &domain.Feedback{
		Summary:      resp.Summary,
		Strengths:    resp.Strengths,
		Improvements: resp.Improvements,
		Potential:    resp.Potential,
		ActionItems:  resp.ActionItems,
	}
}

// validateShape runs struct-tag validation plus the grounding check spec
// §4.7(b) asks for that tags alone can't express: every item must reference
// a specific section label or keyword drawn from the inputs. The "no raw
// taxonomy tag" rule (§4.7's label-map instruction) is prompt-enforced only
// — English prose legitimately contains words like "requirements" or
// "benefits", so a hard token-level check would reject correct output; the
// label map exists to keep a localized UI from showing untranslated tags,
// not to forbid ordinary English.
func (g *Generator) validateShape(r *responseShape, grounding map[string]bool) error {
	if err := g.validate.Struct(r); err != nil {
		return err
	}
	allItems := append(append(append(append([]string{}, r.Strengths...), r.Improvements...), r.Potential...), r.ActionItems...)
	for _, item := range allItems {
		if !groundedIn(item, grounding) {
			return fmt.Errorf("item %q is not grounded in any section label or source keyword", item)
		}
	}
	return nil
}

func buildPrompt(result *domain.MatchResult, resumeExcerpts, jdExcerpts []Excerpt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Match score: %d/100 (grade %s). Overall similarity: %.2f.\n\n", result.MatchScore, result.MatchGrade, result.OverallSimilarity)

	b.WriteString("Section scores (JD side):\n")
	for _, s := range result.SectionScores {
		fmt.Fprintf(&b, "- %s: %.2f (weight %.2f, %d chunks)\n", labelOf(s.SectionType), s.Score, s.Weight, s.ChunkCount)
	}

	if len(result.SimilarTechMatches) > 0 {
		b.WriteString("\nPartial-credit technology matches:\n")
		for _, m := range result.SimilarTechMatches {
			fmt.Fprintf(&b, "- JD wants %q, résumé has %q (%s)\n", m.JDRequired, m.ResumeHas, m.Relationship)
		}
	}

	b.WriteString("\nRésumé excerpts:\n")
	for _, e := range resumeExcerpts {
		fmt.Fprintf(&b, "[%s] %s\n", labelOf(e.SectionType), truncate(e.Text, 500))
	}

	b.WriteString("\nJob description excerpts:\n")
	for _, e := range jdExcerpts {
		fmt.Fprintf(&b, "[%s] %s\n", labelOf(e.SectionType), truncate(e.Text, 500))
	}

	return b.String()
}

// groundingVocabulary is the set of words an item is allowed to "reference"
// for the grounding check: every section label in play plus every distinct
// word appearing in the excerpts or the similar-tech table, lowercased.
func groundingVocabulary(result *domain.MatchResult, resumeExcerpts, jdExcerpts []Excerpt) map[string]bool {
	vocab := make(map[string]bool)
	add := func(s string) {
		for _, w := range strings.Fields(strings.ToLower(s)) {
			w = strings.Trim(w, ".,;:()[]\"'")
			if len(w) >= 3 {
				vocab[w] = true
			}
		}
	}
	for _, s := range result.SectionScores {
		add(labelOf(s.SectionType))
	}
	for _, m := range result.SimilarTechMatches {
		add(m.JDRequired)
		add(m.ResumeHas)
	}
	for _, e := range resumeExcerpts {
		add(e.Text)
		add(labelOf(e.SectionType))
	}
	for _, e := range jdExcerpts {
		add(e.Text)
		add(labelOf(e.SectionType))
	}
	return vocab
}

func groundedIn(item string, vocab map[string]bool) bool {
	for _, w := range strings.Fields(strings.ToLower(item)) {
		w = strings.Trim(w, ".,;:()[]\"'")
		if vocab[w] {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// deterministicFallback builds a Feedback block purely from the match
// result's own numbers, used when the result already flags insufficient
// data, no LLM client is configured, or the LLM's output fails validation
// twice. Never returns an error.
func deterministicFallback(result *domain.MatchResult) *domain.Feedback {
	if result.InsufficientData {
		return &domain.Feedback{
			Summary: "Not enough content was embedded from one or both documents to produce a detailed analysis.",
			Strengths: []string{
				"Unable to determine strengths without embedded content.",
				"Re-upload the document once text extraction succeeds.",
			},
			Improvements: []string{
				"Ensure the uploaded file contains extractable text.",
				"Re-run ingestion after confirming the document is not empty.",
			},
			Potential: []string{
				"Once ingestion succeeds, a full section-by-section analysis will be available.",
				"A complete résumé typically yields a higher match score.",
			},
			ActionItems: []string{
				"Verify the uploaded file is not a scanned image with no text layer.",
				"Re-submit the document for ingestion.",
			},
		}
	}

	scores := append([]domain.SectionScore{}, result.SectionScores...)
	sort.Slice(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	strengths := topSections(scores, true, 3)
	improvements := topSections(scores, false, 3)

	return &domain.Feedback{
		Summary: fmt.Sprintf(
			"This résumé scored %d/100 (grade %s) against the job description, with an overall document similarity of %.0f%%.",
			result.MatchScore, result.MatchGrade, result.OverallSimilarity*100,
		),
		Strengths:    nonEmpty(strengths, "No section scored strongly enough to call out individually."),
		Improvements: nonEmpty(improvements, "No section scored low enough to flag individually."),
		Potential: []string{
			fmt.Sprintf("Closing the gap on the weakest section could raise the grade above %s.", result.MatchGrade),
			"Targeted upskilling in the highest-weighted sections below 0.6 similarity tends to move the score the most.",
		},
		ActionItems: []string{
			"Review the lowest-scoring JD sections above and add matching, truthful experience to the résumé where it genuinely applies.",
			"Use the similar-technology matches, if any, to phrase transferable experience in the JD's own terminology.",
		},
	}
}

func topSections(scores []domain.SectionScore, best bool, n int) []string {
	var out []string
	for i := 0; i < len(scores) && len(out) < n; i++ {
		s := scores[i]
		if best && s.Score < 0.6 {
			continue
		}
		if !best && s.Score >= 0.6 {
			continue
		}
		out = append(out, fmt.Sprintf("%s scored %.2f similarity (%d chunks)", labelOf(s.SectionType), s.Score, s.ChunkCount))
	}
	return out
}

func nonEmpty(items []string, fallback string) []string {
	if len(items) >= 2 {
		return items
	}
	out := append([]string{}, items...)
	for len(out) < 2 {
		out = append(out, fallback)
	}
	return out
}
