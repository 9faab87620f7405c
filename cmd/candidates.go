package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/recruiting"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Manage candidates",
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates with their current resume",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		snap, err := load(cmd.Context(), logger, s)
		if err != nil {
			return report(logger, "listing candidates", err)
		}

		format, _ := cmd.Flags().GetString("output")
		return render(cmd.OutOrStdout(), format, snap.Candidates,
			[]string{"ID", "姓名", "邮箱", "电话", "状态", "简历", "标签"},
			func() [][]string {
				rows := make([][]string, 0, snap.Candidates.Len())
				for _, c := range snap.Candidates {
					resumeID, tags := "-", "-"
					if r, ok := analytics.CurrentResume(snap.Resumes, c.ID); ok {
						resumeID = r.ID
						if r.HasTags() {
							tags = strings.Join(r.TagNames(), ", ")
						}
					}
					rows = append(rows, []string{c.ID, c.Name, c.Email, dash(c.Phone), c.StatusLabel(), resumeID, tags})
				}
				return rows
			})
	},
}

var candidatesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a candidate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		var in recruiting.CandidateInput
		in.Name, _ = cmd.Flags().GetString("name")
		in.Email, _ = cmd.Flags().GetString("email")
		in.Phone, _ = cmd.Flags().GetString("phone")

		s := newStore(logger, config, newClient(logger, config), nil)
		candidate, err := s.CreateCandidate(cmd.Context(), in)
		if err != nil {
			return report(logger, "creating candidate", err)
		}

		logger.Info("candidate created", zap.String("id", candidate.ID), zap.String("name", candidate.Name))
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Inspect resume tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags known to the backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		tags, err := newClient(logger, config).ListTags(cmd.Context())
		if err != nil {
			return report(logger, "listing tags", err)
		}

		format, _ := cmd.Flags().GetString("output")
		return render(cmd.OutOrStdout(), format, tags, []string{"ID", "名称", "分类"}, func() [][]string {
			rows := make([][]string, 0, len(tags))
			for _, t := range tags {
				rows = append(rows, []string{t.ID, t.Name, dash(t.Category)})
			}
			return rows
		})
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd, tagsCmd)
	candidatesCmd.AddCommand(candidatesListCmd, candidatesCreateCmd)
	tagsCmd.AddCommand(tagsListCmd)

	candidatesCreateCmd.Flags().String("name", "", "full name")
	candidatesCreateCmd.Flags().String("email", "", "email address")
	candidatesCreateCmd.Flags().String("phone", "", "phone number")
}
