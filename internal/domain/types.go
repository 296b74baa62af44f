// Package domain holds the core types the rest of the service operates on:
// Document/Chunk persistence shapes and the transient MatchResult/Roadmap
// structures the matching engine and roadmap planner produce.
package domain

import "time"

// FileType distinguishes a résumé from a job description. Downstream
// section classification and weighting both depend on it.
type FileType string

const (
	FileTypeResume FileType = "resume"
	FileTypeJD     FileType = "job_description"
)

// EmbeddingStatus is a Document's ingestion lifecycle state.
type EmbeddingStatus string

const (
	StatusPending    EmbeddingStatus = "pending"
	StatusProcessing EmbeddingStatus = "processing"
	StatusCompleted  EmbeddingStatus = "completed"
	StatusFailed     EmbeddingStatus = "failed"
)

// SectionType is a closed-vocabulary tag assigned to a chunk. The résumé and
// JD taxonomies are disjoint except for "other".
type SectionType string

const (
	// Résumé sections.
	SectionSummary        SectionType = "summary"
	SectionExperience     SectionType = "experience"
	SectionSkills         SectionType = "skills"
	SectionEducation      SectionType = "education"
	SectionProjects       SectionType = "projects"
	SectionCertifications SectionType = "certifications"

	// JD sections.
	SectionRequirements    SectionType = "requirements"
	SectionPreferred       SectionType = "preferred"
	SectionResponsibilities SectionType = "responsibilities"
	SectionTechnical       SectionType = "technical"
	SectionBenefits        SectionType = "benefits"

	// Shared fallback.
	SectionOther SectionType = "other"
)

// Grade is the letter grade derived from a match score.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Priority is an optional task-urgency tag on a roadmap task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Document is a single uploaded artifact (résumé or JD). document_id is the
// only identifier used by downstream matching; file_id is a client-visible
// convenience handle and must never be used to key a match or a chunk.
type Document struct {
	DocumentID       string          `json:"document_id"`
	FileID           string          `json:"file_id"`
	Filename         string          `json:"filename"`
	FileType         FileType        `json:"file_type"`
	RawText          string          `json:"raw_text,omitempty"`
	CleanedText      string          `json:"cleaned_text,omitempty"`
	ContentHash      string          `json:"content_hash,omitempty"`
	Language         string          `json:"language"`
	WordCount        int             `json:"word_count"`
	CharCount        int             `json:"char_count"`
	PageCount        int             `json:"page_count"`
	ParserUsed       string          `json:"parser_used"`
	ExtractionTimeMS int64           `json:"extraction_time_ms"`
	EmbeddingStatus  EmbeddingStatus `json:"embedding_status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Chunk is a bounded text region of a Document, the atomic unit of
// embedding and matching. It is eligible for matching iff Embedding is
// non-nil.
type Chunk struct {
	ChunkID        string      `json:"chunk_id"`
	DocumentID     string      `json:"document_id"`
	ChunkIndex     int         `json:"chunk_index"`
	Content        string      `json:"content"`
	SectionType    SectionType `json:"section_type"`
	CharCount      int         `json:"char_count"`
	TokenCount     int         `json:"token_count"`
	Embedding      []float32   `json:"embedding,omitempty"`
	EmbeddingModel string      `json:"embedding_model,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ChunkMatch pairs a resume chunk with a JD chunk and their similarity.
type ChunkMatch struct {
	ResumeChunkIndex int         `json:"resume_chunk_index"`
	JDChunkIndex     int         `json:"jd_chunk_index"`
	ResumeExcerpt    string      `json:"resume_excerpt"`
	JDExcerpt        string      `json:"jd_excerpt"`
	SectionType      SectionType `json:"section_type"`
	Similarity       float64     `json:"similarity"`
}

// SectionScore is the weighted-mean similarity for one JD section.
type SectionScore struct {
	SectionType SectionType  `json:"section_type"`
	Score       float64      `json:"score"`
	Weight      float64      `json:"weight"`
	ChunkCount  int          `json:"chunk_count"`
	TopMatches  []ChunkMatch `json:"top_matches"`
}

// SimilarTechMatch records partial credit granted because a résumé keyword
// shares a Similar-Tech group with a JD keyword the résumé lacks verbatim.
type SimilarTechMatch struct {
	JDRequired      string  `json:"jd_required"`
	ResumeHas       string  `json:"resume_has"`
	Relationship    string  `json:"relationship"`
	BonusContribution float64 `json:"bonus_contribution"`
}

// MatchResult is the transient output of the Matching Engine. Never
// persisted.
type MatchResult struct {
	ResumeDocumentID   string             `json:"resume_document_id"`
	JDDocumentID       string             `json:"jd_document_id"`
	OverallSimilarity  float64            `json:"overall_similarity"`
	MatchScore         int                `json:"match_score"`
	MatchGrade         Grade              `json:"match_grade"`
	SectionScores      []SectionScore     `json:"section_scores"`
	ChunkMatches       []ChunkMatch       `json:"chunk_matches"`
	SimilarTechMatches []SimilarTechMatch `json:"similar_tech_matches"`
	SimilarTechBonus   float64            `json:"similar_tech_bonus"`
	InsufficientData   bool               `json:"insufficient_data"`
}

// Task is one actionable item in a roadmap Week.
type Task struct {
	Task     string   `json:"task"`
	Priority Priority `json:"priority,omitempty"`
}

// Week is one week of a Roadmap.
type Week struct {
	WeekNumber  int                `json:"week_number"`
	Title       string             `json:"title"`
	Duration    string             `json:"duration"`
	Description string             `json:"description"`
	Keywords    []string           `json:"keywords"`
	Tasks       []Task             `json:"tasks"`
	Resources   []LearningResource `json:"resources"`
}

// Roadmap is the transient output of the Roadmap Planner.
type Roadmap struct {
	TotalWeeks          int      `json:"total_weeks"`
	CurrentGrade         Grade    `json:"current_grade"`
	TargetGrade          Grade    `json:"target_grade"`
	Summary              string   `json:"summary"`
	KeyImprovementAreas  []string `json:"key_improvement_areas"`
	WeeklyPlan           []Week   `json:"weekly_plan"`
}

// ResourceType and ResourcePlatform are closed vocabularies for catalog
// entries.
type ResourceType string

const (
	ResourceDocumentation ResourceType = "documentation"
	ResourceTutorial      ResourceType = "tutorial"
	ResourceVideo         ResourceType = "video"
	ResourceArticle       ResourceType = "article"
	ResourceCourse        ResourceType = "course"
)

type ResourceDifficulty string

const (
	DifficultyBeginner     ResourceDifficulty = "beginner"
	DifficultyIntermediate ResourceDifficulty = "intermediate"
	DifficultyAdvanced     ResourceDifficulty = "advanced"
)

// LearningResource is one catalog entry. The catalog is read-only process
// state loaded once at startup.
type LearningResource struct {
	Title          string             `yaml:"title" json:"title"`
	URL            string             `yaml:"url" json:"url"`
	Type           ResourceType       `yaml:"type" json:"type"`
	Platform       string             `yaml:"platform" json:"platform"`
	Difficulty     ResourceDifficulty `yaml:"difficulty" json:"difficulty"`
	Description    string             `yaml:"description,omitempty" json:"description,omitempty"`
	EstimatedHours float64            `yaml:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	Keywords       []string           `yaml:"keywords" json:"keywords,omitempty"`
}

// Feedback is the Feedback Generator's output shape.
type Feedback struct {
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Potential    []string `json:"potential"`
	ActionItems  []string `json:"action_items"`
}
