package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/ai"
	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/filtering"
	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

const (
	PromptShowShortlist = "Show shortlist"
	PromptShowSteps     = "Show filter steps"
	PromptDumpToFile    = "Dump shortlist to file"
	PromptExit          = "Exit"
)

var errExit = errors.New("exit requested")

var matchPrompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptShowShortlist, PromptShowSteps, PromptDumpToFile, PromptExit},
}

// shortlistEntry is one candidate left after filtering.
type shortlistEntry struct {
	Candidate   recruiting.Candidate `json:"candidate"`
	MatchedTags []string             `json:"matched_tags"`
	Assessment  *ai.FitAssessment    `json:"assessment,omitempty"`
}

// matchOutcome is what a match run produced. Rejected holds the candidates
// the AI step evaluated and dropped, with their assessments.
type matchOutcome struct {
	Shortlist []shortlistEntry `json:"shortlist"`
	Rejected  []shortlistEntry `json:"rejected,omitempty"`
}

func buildOutcome(project recruiting.Project, snap store.Snapshot, res filtering.Result) matchOutcome {
	entry := func(c recruiting.Candidate) shortlistEntry {
		return shortlistEntry{
			Candidate:   c,
			MatchedTags: analytics.MatchedTags(project, snap.Resumes, c.ID),
			Assessment:  res.Assessments[c.ID],
		}
	}

	outcome := matchOutcome{Shortlist: make([]shortlistEntry, 0, res.Shortlist.Len())}
	kept := make(map[string]struct{}, res.Shortlist.Len())
	for _, c := range res.Shortlist {
		kept[c.ID] = struct{}{}
		outcome.Shortlist = append(outcome.Shortlist, entry(c))
	}
	for _, c := range snap.Candidates {
		if _, ok := kept[c.ID]; ok {
			continue
		}
		if _, assessed := res.Assessments[c.ID]; assessed {
			outcome.Rejected = append(outcome.Rejected, entry(c))
		}
	}
	return outcome
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Shortlist candidates whose resume tags match a project's qualifications",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()
		ctx := cmd.Context()

		s := newStore(logger, config, newClient(logger, config), nil)
		snap, err := load(ctx, logger, s)
		if err != nil {
			return report(logger, "loading collections", err)
		}

		project, err := selectProject(cmd, snap)
		if err != nil {
			return err
		}

		logger.Info("matching candidates",
			zap.String("project_id", project.ID),
			zap.String("project", project.Title),
			zap.Int("candidates", snap.Candidates.Len()),
		)

		includeInterviewed, _ := cmd.Flags().GetBool("include-interviewed")
		steps, deps := prepareFilters(ctx, config, logger, project, snap, includeInterviewed)

		res, err := filtering.Run(ctx, filterConfig(config), deps, steps, snap.Candidates)
		if err != nil {
			return report(logger, "filtering failed", err)
		}
		outcome := buildOutcome(project, snap, res)
		if viper.GetBool("debug") {
			printSteps(cmd.ErrOrStderr(), res.Steps)
			if len(outcome.Rejected) > 0 {
				printTable(cmd.ErrOrStderr(), shortlistHeader, shortlistRows(outcome.Rejected))
			}
		}

		if len(outcome.Shortlist) == 0 {
			logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
			return nil
		}

		format, _ := cmd.Flags().GetString("output")
		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			return printShortlist(cmd, format, outcome.Shortlist)
		}

		for {
			_, action, err := matchPrompt.Run()
			if err != nil {
				return err
			}

			if err := handleAction(cmd, logger, action, format, outcome, steps); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				return err
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("project", "p", "", "project id; asks interactively when empty")
	matchCmd.Flags().BoolP("include-interviewed", "i", false, "keep candidates already interviewed for the project")
	matchCmd.Flags().BoolP("yes", "y", false, "print the shortlist without asking")
	matchCmd.Flags().StringSlice("exclude", nil, "candidate ids that never enter a shortlist")

	viper.BindPFlag("match.exclude", matchCmd.Flags().Lookup("exclude"))
}

func handleAction(cmd *cobra.Command, logger *zap.Logger, action, format string, outcome matchOutcome, steps []filtering.Filter) error {
	switch action {
	case PromptShowShortlist:
		return printShortlist(cmd, format, outcome.Shortlist)
	case PromptShowSteps:
		for _, status := range filtering.Describe(steps) {
			logger.Info("filter status",
				zap.String("name", status.Name),
				zap.Bool("enabled", status.Enabled),
				zap.String("reason", status.Reason),
				zap.Any("details", status.Details),
			)
		}
		return nil
	case PromptDumpToFile:
		filename, err := dumpToTmpFile("shortlist_*.json", outcome)
		if err != nil {
			return fmt.Errorf("dump shortlist to file: %w", err)
		}
		logger.Info("dumping shortlist to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// printSteps shows how each filter narrowed the candidate list.
func printSteps(w io.Writer, steps []filtering.StepReport) {
	rows := make([][]string, 0, len(steps))
	for _, step := range steps {
		if step.Skipped {
			rows = append(rows, []string{step.Name, "-", "-", "skipped"})
			continue
		}
		rows = append(rows, []string{step.Name, strconv.Itoa(step.In), strconv.Itoa(step.Out), strconv.Itoa(step.Dropped())})
	}
	printTable(w, []string{"step", "in", "out", "dropped"}, rows)
}

var shortlistHeader = []string{"ID", "姓名", "邮箱", "匹配标签", "AI评分", "理由"}

func printShortlist(cmd *cobra.Command, format string, entries []shortlistEntry) error {
	return render(cmd.OutOrStdout(), format, entries, shortlistHeader, func() [][]string {
		return shortlistRows(entries)
	})
}

func shortlistRows(entries []shortlistEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		score, reason := "-", "-"
		if a := e.Assessment; a != nil {
			if a.Failed() {
				reason = "评估失败: " + a.Error
			} else {
				score = fmt.Sprintf("%.2f", a.Score)
				reason = dash(a.Reason)
			}
		}
		rows = append(rows, []string{
			e.Candidate.ID, e.Candidate.Name, e.Candidate.Email,
			strings.Join(e.MatchedTags, ", "), score, reason,
		})
	}
	return rows
}

// selectProject resolves --project or asks for one of the loaded projects.
func selectProject(cmd *cobra.Command, snap store.Snapshot) (recruiting.Project, error) {
	if id, _ := cmd.Flags().GetString("project"); id != "" {
		project, ok := snap.ProjectByID(id)
		if !ok {
			return recruiting.Project{}, fmt.Errorf("there is no such project id %s", id)
		}
		return project, nil
	}

	if len(snap.Projects) == 0 {
		return recruiting.Project{}, errors.New("no projects loaded")
	}

	items := make([]string, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		items = append(items, fmt.Sprintf("%s %s / %s / %s", p.ID, p.Title, p.Status.Label(), p.Qualifications.Text()))
	}

	projectPrompt := promptui.Select{
		Label: "Choose a project and press ENTER",
		Items: items,
		Size:  10,
	}

	idx, _, err := projectPrompt.Run()
	if err != nil {
		return recruiting.Project{}, err
	}
	return snap.Projects[idx], nil
}

func filterConfig(config *Config) *filtering.Config {
	cfg := &filtering.Config{Exclude: config.Match.Exclude}
	if config.AI != nil {
		cfg.AI = &filtering.AIConfig{
			Enabled:         config.AI.Enabled,
			MinimumFitScore: config.AI.MinimumFitScore,
		}
		if config.AI.Gemini != nil {
			cfg.AI.Gemini = &filtering.GeminiConfig{
				Model:        config.AI.Gemini.Model,
				MaxLogLength: config.AI.Gemini.MaxLogLength,
			}
		}
	}
	return cfg
}

func prepareFilters(ctx context.Context, config *Config, logger *zap.Logger, project recruiting.Project, snap store.Snapshot, includeInterviewed bool) ([]filtering.Filter, filtering.Deps) {
	steps := filtering.Default(includeInterviewed)
	deps := filtering.Deps{
		Project:    project,
		Resumes:    snap.Resumes,
		Interviews: snap.Interviews,
		Logger:     logger,
	}

	switch {
	case config.AI == nil || !config.AI.Enabled:
		filtering.DisableByName(steps, "ai_fit", "ai is disabled in config")
	case config.AI.Gemini == nil:
		logger.Warn("skipping AI filter", zap.String("reason", "gemini configuration is missing"))
		filtering.DisableByName(steps, "ai_fit", "gemini configuration is missing")
	default:
		matcher, err := newAIMatcher(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping AI filter", zap.Error(err))
			filtering.DisableByName(steps, "ai_fit", err.Error())
			break
		}
		deps.Matcher = matcher
	}

	return steps, deps
}
