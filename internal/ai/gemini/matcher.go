package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/ai"
	"github.com/crb12546/musical-memory/internal/logger"
	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

type Matcher struct {
	generator contentGenerator
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const (
	providerName        = "gemini"
	defaultMaxLogLength = 200
)

func NewMatcher(generator contentGenerator, minScore float64, maxLogLength int, log *zap.Logger) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Matcher{
		generator: generator,
		minScore:  minScore,
		logger:    logger.WithCommonFields(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

// projectPayload carries the fields of a project the model judges on.
type projectPayload struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Department       string   `json:"department,omitempty"`
	JobType          string   `json:"job_type,omitempty"`
	JobLevel         string   `json:"job_level,omitempty"`
	Location         string   `json:"location,omitempty"`
	RemotePolicy     string   `json:"remote_policy,omitempty"`
	Description      string   `json:"description,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Qualifications   []string `json:"qualifications,omitempty"`
}

type candidatePayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

type resumePayload struct {
	ID       string         `json:"id"`
	FileType string         `json:"file_type,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Parsed   map[string]any `json:"parsed_content,omitempty"`
	Note     string         `json:"note,omitempty"`
}

func (m *Matcher) Evaluate(ctx context.Context, project recruiting.Project, candidate recruiting.Candidate, resume *recruiting.Resume) (*ai.FitAssessment, error) {
	if strings.TrimSpace(project.ID) == "" {
		return nil, fmt.Errorf("project is required")
	}
	if strings.TrimSpace(candidate.ID) == "" {
		return nil, fmt.Errorf("candidate is required")
	}

	projectJSON, err := json.MarshalIndent(projectPayload{
		ID:               project.ID,
		Title:            project.Title,
		Department:       project.Department,
		JobType:          string(project.JobType),
		JobLevel:         string(project.JobLevel),
		Location:         project.Location,
		RemotePolicy:     string(project.RemotePolicy),
		Description:      project.Description,
		Responsibilities: project.Responsibilities,
		Qualifications:   project.Qualifications,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project payload: %w", err)
	}

	candidateJSON, err := json.MarshalIndent(candidatePayload{
		ID:     candidate.ID,
		Name:   candidate.Name,
		Status: candidate.Status,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate payload: %w", err)
	}

	resumeJSON, err := json.MarshalIndent(buildResumePayload(resume), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resume payload: %w", err)
	}

	prompt := buildPrompt(string(projectJSON), string(candidateJSON), string(resumeJSON))

	m.logger.Debug("gemini generate content request",
		zap.String("project_id", project.ID),
		zap.String("candidate_id", candidate.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("gemini generate content response",
		zap.String("project_id", project.ID),
		zap.String("candidate_id", candidate.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if m.minScore > 0 && assessment.Score < m.minScore {
		m.logger.Debug("set fit to false by score threshold",
			zap.String("candidate_id", candidate.ID),
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", m.minScore),
		)
		assessment.Fit = false
	}

	assessment.Raw = raw
	return assessment, nil
}

func buildResumePayload(resume *recruiting.Resume) resumePayload {
	if resume == nil {
		return resumePayload{Note: "no resume uploaded"}
	}

	payload := resumePayload{
		ID:       resume.ID,
		FileType: resume.FileType,
		Tags:     resume.TagNames(),
	}
	if resume.ParsedContent.IsParsed() {
		payload.Parsed = resume.ParsedContent.Raw
	} else {
		payload.Note = "resume content is not parsed"
	}
	return payload
}

func buildPrompt(projectJSON, candidateJSON, resumeJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Project:\n{{PROJECT_JSON}}\n\nCandidate:\n{{CANDIDATE_JSON}}\n\nResume:\n{{RESUME_JSON}}\n\nJSON Response:"
	}
	return strings.NewReplacer(
		"{{PROJECT_JSON}}", projectJSON,
		"{{CANDIDATE_JSON}}", candidateJSON,
		"{{RESUME_JSON}}", resumeJSON,
	).Replace(template)
}

func parseResponse(raw string) (*ai.FitAssessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &ai.FitAssessment{
		Fit:     coerceBool(data["fit"]),
		Score:   score,
		Reason:  coerceString(data["reason"]),
		Message: coerceString(data["message"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	// Models sometimes wrap the object in prose.
	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
