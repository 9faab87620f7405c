package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

var interviewsCmd = &cobra.Command{
	Use:   "interviews",
	Short: "Schedule interviews and record feedback",
}

var interviewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List interviews with candidate and project names",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		snap, err := load(cmd.Context(), logger, s)
		if err != nil {
			return report(logger, "listing interviews", err)
		}

		rows := analytics.InterviewRows(snap)
		if projectID, _ := cmd.Flags().GetString("project"); projectID != "" {
			filtered := rows[:0:0]
			for _, row := range rows {
				if row.ProjectID == projectID {
					filtered = append(filtered, row)
				}
			}
			rows = filtered
		}

		format, _ := cmd.Flags().GetString("output")
		return render(cmd.OutOrStdout(), format, rows,
			[]string{"ID", "候选人", "职位", "时间", "类型", "状态", "反馈"},
			func() [][]string {
				out := make([][]string, 0, len(rows))
				for _, row := range rows {
					out = append(out, []string{
						row.ID, row.CandidateName, row.ProjectTitle, formatTime(row.ScheduledTime),
						row.InterviewType.Label(), row.Status.Label(), row.Feedback.Summary(),
					})
				}
				return out
			})
	},
}

var interviewsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print interview statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		if err := s.Refresh(cmd.Context(), store.Interviews); err != nil {
			return report(logger, "loading interviews", err)
		}

		stats := analytics.ComputeInterviewStats(s.Snapshot().Interviews)
		format, _ := cmd.Flags().GetString("output")
		return render(cmd.OutOrStdout(), format, stats,
			[]string{"面试总数", "已完成", "已安排", "进行中", "已取消", "完成率"},
			func() [][]string {
				return [][]string{{
					fmt.Sprint(stats.Total),
					fmt.Sprint(stats.Completed),
					fmt.Sprint(stats.Scheduled),
					fmt.Sprint(stats.InProgress),
					fmt.Sprint(stats.Cancelled),
					fmt.Sprintf("%.0f%%", stats.CompletionRate*100),
				}}
			})
	},
}

var interviewsScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule an interview",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		flags := cmd.Flags()
		var in recruiting.InterviewInput
		in.ProjectID, _ = flags.GetString("project")
		in.CandidateID, _ = flags.GetString("candidate")
		in.ScheduledTime, _ = flags.GetString("at")
		in.Rating, _ = flags.GetInt("rating")
		in.Notes, _ = flags.GetString("notes")

		kind, _ := flags.GetString("type")
		in.InterviewType = recruiting.InterviewType(kind)
		status, _ := flags.GetString("status")
		in.Status = recruiting.InterviewStatus(status)

		s := newStore(logger, config, newClient(logger, config), nil)
		iv, err := s.CreateInterview(cmd.Context(), in)
		if err != nil {
			return report(logger, "scheduling interview", err)
		}

		logger.Info("interview scheduled",
			zap.String("id", iv.ID),
			zap.String("candidate_id", iv.CandidateID),
			zap.String("scheduled_time", formatTime(iv.ScheduledTime)),
		)
		return nil
	},
}

var interviewsStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Change the status of an interview",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		iv, err := findInterview(cmd, s, args[0])
		if err != nil {
			return report(logger, "loading interviews", err)
		}

		note, _ := cmd.Flags().GetString("note")
		updated, err := s.UpdateInterview(cmd.Context(), iv.ID, statusUpdate(iv, args[1], note))
		if err != nil {
			return report(logger, "updating interview", err)
		}

		logger.Info("interview updated", zap.String("id", updated.ID), zap.String("status", updated.Status.Label()))
		return nil
	},
}

// statusUpdate moves iv to status. A non-blank note replaces the stored
// feedback with free text.
func statusUpdate(iv recruiting.Interview, status, note string) recruiting.InterviewUpdate {
	update := recruiting.UpdateFrom(iv)
	update.Status = recruiting.InterviewStatus(status)
	if fb := recruiting.TextFeedback(note); !fb.IsZero() {
		update.Feedback = fb
	}
	return update
}

var interviewsFeedbackCmd = &cobra.Command{
	Use:   "feedback <id>",
	Short: "Submit structured feedback and complete the interview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		iv, err := findInterview(cmd, s, args[0])
		if err != nil {
			return report(logger, "loading interviews", err)
		}

		flags := cmd.Flags()
		var fb recruiting.InterviewFeedback
		fb.TechnicalScore, _ = flags.GetInt("technical")
		fb.CommunicationScore, _ = flags.GetInt("communication")
		fb.CultureFitScore, _ = flags.GetInt("culture-fit")
		fb.OverallRating, _ = flags.GetFloat64("overall")
		fb.InterviewerNotes, _ = flags.GetString("notes")

		recommendation, _ := flags.GetString("recommendation")
		fb.Recommendation = recruiting.Recommendation(recommendation)

		strengths, _ := flags.GetString("strengths")
		fb.Strengths = recruiting.SplitList(strengths)
		improvements, _ := flags.GetString("improvements")
		fb.AreasForImprovement = recruiting.SplitList(improvements)

		updated, err := s.SubmitFeedback(cmd.Context(), iv, fb)
		if err != nil {
			return report(logger, "submitting feedback", err)
		}

		logger.Info("feedback submitted",
			zap.String("id", updated.ID),
			zap.String("summary", updated.Feedback.Summary()),
		)
		return nil
	},
}

func findInterview(cmd *cobra.Command, s *store.Store, id string) (recruiting.Interview, error) {
	if err := s.Refresh(cmd.Context(), store.Interviews); err != nil {
		return recruiting.Interview{}, err
	}

	iv, ok := s.Snapshot().InterviewByID(id)
	if !ok {
		return recruiting.Interview{}, fmt.Errorf("there is no such interview id %s", id)
	}
	return iv, nil
}

func init() {
	rootCmd.AddCommand(interviewsCmd)
	interviewsCmd.AddCommand(interviewsListCmd, interviewsStatsCmd, interviewsScheduleCmd, interviewsStatusCmd, interviewsFeedbackCmd)

	interviewsListCmd.Flags().String("project", "", "only interviews of this project id")
	interviewsStatusCmd.Flags().String("note", "", "free-text feedback stored with the new status")

	f := interviewsScheduleCmd.Flags()
	f.String("project", "", "project id")
	f.String("candidate", "", "candidate id")
	f.String("at", "", "local date and time, YYYY-MM-DDTHH:MM")
	f.String("type", "technical", "technical, hr, manager, behavioral or culture")
	f.String("status", string(recruiting.InterviewScheduled), "initial status")
	f.Int("rating", 0, "rating 1-5, required when status is completed")
	f.String("notes", "", "feedback notes, required when status is completed")

	f = interviewsFeedbackCmd.Flags()
	f.Int("technical", 0, "technical score 1-5")
	f.Int("communication", 0, "communication score 1-5")
	f.Int("culture-fit", 0, "culture fit score 1-5")
	f.Float64("overall", 0, "overall rating 1-5")
	f.String("recommendation", "", "strong_hire, hire, hold or reject")
	f.String("strengths", "", "comma separated strengths")
	f.String("improvements", "", "comma separated areas for improvement")
	f.String("notes", "", "interviewer notes")
}
