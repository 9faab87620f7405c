package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/ai"
	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/recruiting"
)

const includeFlagSetMsg = "include-interviewed flag is set"

func ids(c recruiting.Candidates) []string {
	out := make([]string, 0, len(c))
	for _, candidate := range c {
		out = append(out, candidate.ID)
	}
	return out
}

// dropped lists the ids present in before but not in after.
func dropped(before, after recruiting.Candidates) []string {
	kept := make(map[string]struct{}, len(after))
	for _, c := range after {
		kept[c.ID] = struct{}{}
	}

	var out []string
	for _, c := range before {
		if _, ok := kept[c.ID]; !ok {
			out = append(out, c.ID)
		}
	}
	return out
}

type qualificationMatchFilter struct{}

// NewQualificationMatch keeps candidates whose resume tags appear in the project's qualifications.
func NewQualificationMatch() Filter {
	return &qualificationMatchFilter{}
}

func (f *qualificationMatchFilter) Name() string { return "qualification_match" }

func (f *qualificationMatchFilter) Disable(string) {}

func (f *qualificationMatchFilter) IsEnabled() bool { return true }

func (f *qualificationMatchFilter) Validate(*Config) error { return nil }

func (f *qualificationMatchFilter) Apply(_ context.Context, deps Deps, c recruiting.Candidates) (recruiting.Candidates, Counts, error) {
	initial := c.Len()
	project := deps.Project
	matched := analytics.MatchCandidates(&project, c, deps.Resumes)

	if removed := dropped(c, matched); len(removed) > 0 {
		deps.Logger.Debug("candidates without matching tags",
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", matched.Len()),
		)
	}

	return matched, Counts{In: initial, Out: matched.Len()}, nil
}

func (f *qualificationMatchFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true}
}

type interviewedFilter struct {
	include bool
}

// NewInterviewed drops candidates who already have an interview for the project
// unless include is set.
func NewInterviewed(include bool) Filter {
	return &interviewedFilter{include: include}
}

func (f *interviewedFilter) Name() string { return "interviewed" }

func (f *interviewedFilter) Disable(string) {}

func (f *interviewedFilter) IsEnabled() bool { return true }

func (f *interviewedFilter) Validate(*Config) error { return nil }

func (f *interviewedFilter) Apply(_ context.Context, deps Deps, c recruiting.Candidates) (recruiting.Candidates, Counts, error) {
	initial := c.Len()
	if f.include {
		deps.Logger.Info("keeping already interviewed candidates", zap.String("reason", includeFlagSetMsg))
		return c, Counts{In: initial, Out: initial}, nil
	}

	left := c.Exclude(analytics.InterviewedCandidates(deps.Interviews, deps.Project.ID))
	if removed := dropped(c, left); len(removed) > 0 {
		deps.Logger.Info("excluding candidates already interviewed for the project",
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", left.Len()),
		)
	}

	return left, Counts{In: initial, Out: left.Len()}, nil
}

func (f *interviewedFilter) Status() Status {
	details := map[string]string{
		"exclude_interviewed": strconv.FormatBool(!f.include),
	}
	reason := ""
	if f.include {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: true, Reason: reason, Details: details}
}

type excludedFilter struct {
	ids []string
}

// NewExcluded creates a filter that removes candidates listed in the config.
func NewExcluded() Filter {
	return &excludedFilter{}
}

func (f *excludedFilter) Name() string { return "excluded" }

func (f *excludedFilter) Disable(string) {}

func (f *excludedFilter) IsEnabled() bool { return true }

func (f *excludedFilter) Validate(cfg *Config) error {
	f.ids = nil
	if cfg == nil {
		return nil
	}
	for _, id := range cfg.Exclude {
		if id = strings.TrimSpace(id); id != "" {
			f.ids = append(f.ids, id)
		}
	}
	return nil
}

func (f *excludedFilter) Apply(_ context.Context, deps Deps, c recruiting.Candidates) (recruiting.Candidates, Counts, error) {
	initial := c.Len()
	if len(f.ids) == 0 {
		return c, Counts{In: initial, Out: initial}, nil
	}

	skip := make(map[string]struct{}, len(f.ids))
	for _, id := range f.ids {
		skip[id] = struct{}{}
	}

	left := c.Exclude(skip)
	if removed := dropped(c, left); len(removed) > 0 {
		deps.Logger.Info("excluding candidates by config",
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", left.Len()),
		)
	}

	return left, Counts{In: initial, Out: left.Len()}, nil
}

func (f *excludedFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["candidates"] = strings.Join(f.ids, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type aiFitFilter struct {
	disabled    bool
	reason      string
	config      *AIConfig
	assessments map[string]*ai.FitAssessment
}

// NewAIFit creates the AI-based filtering step.
func NewAIFit() Filter {
	return &aiFitFilter{}
}

func (f *aiFitFilter) Name() string { return "ai_fit" }

func (f *aiFitFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *aiFitFilter) IsEnabled() bool { return !f.disabled }

func (f *aiFitFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if !f.IsEnabled() {
		return nil
	}
	if cfg == nil || cfg.AI == nil {
		return fmt.Errorf("ai configuration is required when ai filter is enabled")
	}
	if cfg.AI.Gemini == nil {
		return fmt.Errorf("gemini configuration is required when ai filter is enabled")
	}
	if strings.TrimSpace(cfg.AI.Gemini.Model) == "" {
		return fmt.Errorf("gemini model is required when ai filter is enabled")
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, deps Deps, c recruiting.Candidates) (recruiting.Candidates, Counts, error) {
	initial := c.Len()
	if deps.Matcher == nil {
		deps.Logger.Info("ai matcher is not configured; skipping ai_fit filter")
		return c, Counts{In: initial, Out: initial}, nil
	}

	approved, assessments, err := evaluateCandidates(ctx, deps, c)
	if err != nil {
		return c, Counts{}, err
	}

	f.assessments = assessments

	return approved, Counts{In: initial, Out: approved.Len()}, nil
}

func (f *aiFitFilter) Assessments() map[string]*ai.FitAssessment {
	if f.assessments == nil {
		return map[string]*ai.FitAssessment{}
	}
	return f.assessments
}

func (f *aiFitFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["minimum_fit_score"] = fmt.Sprintf("%.2f", f.config.MinimumFitScore)
		if f.config.Gemini != nil {
			details["model"] = f.config.Gemini.Model
			details["max_log_length"] = strconv.Itoa(f.config.Gemini.MaxLogLength)
		}
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// evaluateCandidates asks the matcher about every candidate. A failed
// evaluation keeps the candidate and records the error.
func evaluateCandidates(ctx context.Context, deps Deps, candidates recruiting.Candidates) (recruiting.Candidates, map[string]*ai.FitAssessment, error) {
	logger := deps.Logger
	approved := make(recruiting.Candidates, 0, candidates.Len())
	assessments := make(map[string]*ai.FitAssessment)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		var resume *recruiting.Resume
		if current, ok := analytics.CurrentResume(deps.Resumes, candidate.ID); ok {
			resume = &current
		}

		assessment, err := deps.Matcher.Evaluate(ctx, deps.Project, candidate, resume)
		if err != nil {
			logger.Warn("AI evaluation failed",
				zap.String("candidate_id", candidate.ID),
				zap.Error(err),
			)
			assessments[candidate.ID] = &ai.FitAssessment{Error: err.Error()}
			approved = append(approved, candidate)
			continue
		}

		if !assessment.Fit {
			logger.Info("candidate rejected by AI provider",
				zap.String("candidate_id", candidate.ID),
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)
			assessments[candidate.ID] = assessment
			continue
		}

		logger.Info("candidate approved by AI",
			zap.String("candidate_id", candidate.ID),
			zap.Float64("ai_score", assessment.Score),
		)

		approved = append(approved, candidate)
		assessments[candidate.ID] = assessment
	}

	if candidates.Len() != approved.Len() {
		logger.Info("AI filtering completed",
			zap.Int("initial_candidates", candidates.Len()),
			zap.Int("approved_candidates", approved.Len()),
			zap.Strings("approved", ids(approved)),
		)
	}

	return approved, assessments, nil
}
