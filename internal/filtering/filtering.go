package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/ai"
	"github.com/crb12546/musical-memory/internal/recruiting"
)

// Filter narrows a candidate list for one project. Steps run in order and
// each sees only what the previous one kept.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, c recruiting.Candidates) (recruiting.Candidates, Counts, error)
}

// Deps aggregates the data shared across all steps for one project.
type Deps struct {
	Project    recruiting.Project
	Resumes    []recruiting.Resume
	Interviews []recruiting.Interview
	Logger     *zap.Logger
	Matcher    ai.Matcher
}

// Counts is the candidate count before and after a step.
type Counts struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

func (c Counts) Dropped() int { return c.In - c.Out }

// StepReport records what one step did during a run. Skipped steps carry no
// counts.
type StepReport struct {
	Name    string `json:"name"`
	Skipped bool   `json:"skipped,omitempty"`
	Counts
}

// Result is the outcome of a run: the shortlist in input order, AI
// assessments keyed by candidate id and one report per step.
type Result struct {
	Shortlist   recruiting.Candidates
	Assessments map[string]*ai.FitAssessment
	Steps       []StepReport
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	// Exclude lists candidate ids that never enter a shortlist.
	Exclude []string
	AI      *AIConfig
}

// AIConfig stores AI-related configuration used by the filters.
type AIConfig struct {
	Enabled         bool
	MinimumFitScore float64
	Gemini          *GeminiConfig
}

// GeminiConfig stores Gemini provider configuration.
type GeminiConfig struct {
	Model        string
	MaxLogLength int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns the shortlist steps in execution order.
func Default(includeInterviewed bool) []Filter {
	return []Filter{
		NewQualificationMatch(),
		NewInterviewed(includeInterviewed),
		NewExcluded(),
		NewAIFit(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates every enabled step and then applies them in order. Any
// validation or step error aborts the run.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, c recruiting.Candidates) (Result, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return Result{}, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	res := Result{
		Assessments: make(map[string]*ai.FitAssessment),
		Steps:       make([]StepReport, 0, len(steps)),
	}
	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			res.Steps = append(res.Steps, StepReport{Name: step.Name(), Skipped: true})
			continue
		}

		next, counts, err := step.Apply(ctx, deps, c)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", step.Name(), err)
		}
		c = next

		deps.Logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.String("project_id", deps.Project.ID),
			zap.Int("in", counts.In),
			zap.Int("dropped", counts.Dropped()),
			zap.Int("out", counts.Out),
		)
		res.Steps = append(res.Steps, StepReport{Name: step.Name(), Counts: counts})

		if collector, ok := step.(interface {
			Assessments() map[string]*ai.FitAssessment
		}); ok {
			for id, assessment := range collector.Assessments() {
				res.Assessments[id] = assessment
			}
		}
	}

	res.Shortlist = c
	return res, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
