package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage recruitment projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects with their progress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		stages, err := progressStages(config)
		if err != nil {
			return err
		}

		s := newStore(logger, config, newClient(logger, config), nil)
		if err := s.Refresh(cmd.Context(), store.Projects); err != nil {
			return report(logger, "listing projects", err)
		}

		status, _ := cmd.Flags().GetString("status")
		priority, _ := cmd.Flags().GetString("priority")
		projects := analytics.FilterProjects(s.Snapshot().Projects, status, priority)

		format, _ := cmd.Flags().GetString("output")
		return render(cmd.OutOrStdout(), format, projects,
			[]string{"ID", "职位", "部门", "状态", "优先级", "进度", "目标日期"},
			func() [][]string {
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{
						p.ID, p.Title, dash(p.Department), p.Status.Label(), p.Priority.Label(),
						fmt.Sprintf("%.0f%%", analytics.Progress(p.Status, stages)),
						formatTime(p.TargetDate),
					})
				}
				return rows
			})
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project and its hiring timeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		if err := s.Refresh(cmd.Context(), store.Projects); err != nil {
			return report(logger, "loading projects", err)
		}

		project, ok := s.Snapshot().ProjectByID(args[0])
		if !ok {
			return fmt.Errorf("there is no such project id %s", args[0])
		}

		format, _ := cmd.Flags().GetString("output")
		if format == outputJSON {
			return printJSON(cmd.OutOrStdout(), project)
		}

		w := cmd.OutOrStdout()
		printTable(w, []string{"字段", "值"}, [][]string{
			{"职位", project.Title},
			{"部门", dash(project.Department)},
			{"人数", fmt.Sprint(project.Headcount)},
			{"类型", project.JobType.Label()},
			{"级别", project.JobLevel.Label()},
			{"地点", dash(project.Location)},
			{"办公方式", project.RemotePolicy.Label()},
			{"薪资", dash(project.SalaryRange)},
			{"职责", dash(project.Responsibilities.Text())},
			{"任职要求", dash(project.Qualifications.Text())},
			{"福利", dash(project.Benefits.Text())},
			{"状态", project.Status.Label()},
			{"优先级", project.Priority.Label()},
			{"目标日期", formatTime(project.TargetDate)},
		})

		rows := make([][]string, 0, 4)
		for _, stage := range analytics.Timeline(project) {
			state := ""
			switch {
			case stage.Complete:
				state = "✓"
			case stage.Active:
				state = "●"
			}
			rows = append(rows, []string{stage.Label, state})
		}
		printTable(w, []string{"阶段", ""}, rows)
		return nil
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		var in recruiting.ProjectInput
		if err := applyProjectFlags(cmd.Flags(), &in, true); err != nil {
			return err
		}

		s := newStore(logger, config, newClient(logger, config), nil)
		project, err := s.CreateProject(cmd.Context(), in)
		if err != nil {
			return report(logger, "creating project", err)
		}

		logger.Info("project created", zap.String("id", project.ID), zap.String("title", project.Title))
		return nil
	},
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update the fields given as flags, keeping the rest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		if err := s.Refresh(cmd.Context(), store.Projects); err != nil {
			return report(logger, "loading projects", err)
		}

		current, ok := s.Snapshot().ProjectByID(args[0])
		if !ok {
			return fmt.Errorf("there is no such project id %s", args[0])
		}

		in := recruiting.InputFrom(current)
		if err := applyProjectFlags(cmd.Flags(), &in, false); err != nil {
			return err
		}
		if status, _ := cmd.Flags().GetString("status"); cmd.Flags().Changed("status") {
			in.Status = recruiting.ProjectStatus(status)
		}

		project, err := s.UpdateProject(cmd.Context(), current.ID, in)
		if err != nil {
			return report(logger, "updating project", err)
		}

		logger.Info("project updated",
			zap.String("id", project.ID),
			zap.String("status", string(project.Status)),
		)
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, config := setup()

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			confirm := promptui.Prompt{
				Label:     fmt.Sprintf("Delete project %s", args[0]),
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				logger.Info("exiting", zap.String("reason", "deletion not confirmed"))
				return nil
			}
		}

		s := newStore(logger, config, newClient(logger, config), nil)
		if err := s.DeleteProject(cmd.Context(), args[0]); err != nil {
			return report(logger, "deleting project", err)
		}

		logger.Info("project deleted", zap.String("id", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsCreateCmd, projectsUpdateCmd, projectsDeleteCmd)

	projectsListCmd.Flags().String("status", analytics.All, "filter by status (draft, open, in-progress, on-hold, closed or all)")
	projectsListCmd.Flags().String("priority", analytics.All, "filter by priority (low, normal, high, urgent or all)")

	for _, c := range []*cobra.Command{projectsCreateCmd, projectsUpdateCmd} {
		f := c.Flags()
		f.String("title", "", "job title")
		f.String("department", "", "department")
		f.Int("headcount", 1, "number of hires")
		f.String("job-type", "full-time", "full-time, part-time or contract")
		f.String("job-level", "mid", "entry, mid, senior or lead")
		f.String("location", "", "work location")
		f.String("remote-policy", "office", "office, hybrid or remote")
		f.String("salary-range", "", "salary range, free text")
		f.String("description", "", "job description")
		f.String("responsibilities", "", "comma separated responsibilities")
		f.String("qualifications", "", "comma separated qualifications")
		f.String("benefits", "", "comma separated benefits")
		f.String("priority", string(recruiting.PriorityNormal), "low, normal, high or urgent")
		f.String("target-date", "", "target completion date, YYYY-MM-DD")
	}
	projectsUpdateCmd.Flags().String("status", "", "draft, open, in-progress, on-hold or closed")

	projectsDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// applyProjectFlags copies flags into in. On create every flag applies; on
// update only the flags set explicitly overwrite the current values.
func applyProjectFlags(flags *pflag.FlagSet, in *recruiting.ProjectInput, creating bool) error {
	use := func(name string) bool { return creating || flags.Changed(name) }

	str := func(name string) string {
		v, _ := flags.GetString(name)
		return v
	}

	if use("title") {
		in.Title = str("title")
	}
	if use("department") {
		in.Department = str("department")
	}
	if use("headcount") {
		in.Headcount, _ = flags.GetInt("headcount")
	}
	if use("job-type") {
		in.JobType = recruiting.JobType(str("job-type"))
	}
	if use("job-level") {
		in.JobLevel = recruiting.JobLevel(str("job-level"))
	}
	if use("location") {
		in.Location = str("location")
	}
	if use("remote-policy") {
		in.RemotePolicy = recruiting.RemotePolicy(str("remote-policy"))
	}
	if use("salary-range") {
		in.SalaryRange = str("salary-range")
	}
	if use("description") {
		in.Description = str("description")
	}
	if use("responsibilities") {
		in.Responsibilities = recruiting.ParseStringList(str("responsibilities"))
	}
	if use("qualifications") {
		in.Qualifications = recruiting.ParseStringList(str("qualifications"))
	}
	if use("benefits") {
		in.Benefits = recruiting.ParseStringList(str("benefits"))
	}
	if use("priority") {
		in.Priority = recruiting.Priority(str("priority"))
	}
	if use("target-date") {
		if date := strings.TrimSpace(str("target-date")); date != "" {
			t, err := time.ParseInLocation(time.DateOnly, date, time.Local)
			if err != nil {
				return fmt.Errorf("target-date: %w", err)
			}
			in.TargetDate = recruiting.NewTime(t)
		}
	}
	return nil
}
