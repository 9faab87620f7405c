package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "Manage resumes",
}

var resumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resumes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		snap, err := load(cmd.Context(), logger, s)
		if err != nil {
			return report(logger, "listing resumes", err)
		}

		resumes := snap.Resumes
		if candidateID, _ := cmd.Flags().GetString("candidate"); candidateID != "" {
			filtered := resumes[:0:0]
			for _, r := range resumes {
				if r.CandidateID == candidateID {
					filtered = append(filtered, r)
				}
			}
			resumes = filtered
		}

		format, _ := cmd.Flags().GetString("output")
		return render(cmd.OutOrStdout(), format, resumes,
			[]string{"ID", "候选人", "文件", "类型", "解析", "标签", "上传时间"},
			func() [][]string {
				rows := make([][]string, 0, len(resumes))
				for _, r := range resumes {
					name := "-"
					if c, ok := snap.Candidates.FindByID(r.CandidateID); ok {
						name = c.Name
					}
					rows = append(rows, []string{
						r.ID, name, dash(filepath.Base(r.FilePath)), dash(r.FileType),
						r.ParsedContent.State.String(), dash(strings.Join(r.TagNames(), ", ")),
						formatTime(r.CreatedAt),
					})
				}
				return rows
			})
	},
}

var resumesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the parsed content of a resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, config := setup()

		s := newStore(logger, config, newClient(logger, config), nil)
		if err := s.Refresh(cmd.Context(), store.Resumes); err != nil {
			return report(logger, "loading resumes", err)
		}

		var resume *recruiting.Resume
		for _, r := range s.Snapshot().Resumes {
			if r.ID == args[0] {
				resume = &r
				break
			}
		}
		if resume == nil {
			return fmt.Errorf("there is no such resume id %s", args[0])
		}

		format, _ := cmd.Flags().GetString("output")
		if format == outputJSON {
			return printJSON(cmd.OutOrStdout(), resume)
		}

		w := cmd.OutOrStdout()
		switch resume.ParsedContent.State {
		case recruiting.ContentAbsent:
			fmt.Fprintln(w, "简历尚未解析")
			return nil
		case recruiting.ContentError:
			fmt.Fprintf(w, "简历解析失败: %s\n", resume.ParsedContent.Message)
			return nil
		}

		for _, section := range resume.ParsedContent.Preview() {
			fmt.Fprintf(w, "\n%s\n", section.Title)
			switch {
			case len(section.Fields) > 0:
				rows := make([][]string, 0, len(section.Fields))
				for _, f := range section.Fields {
					rows = append(rows, []string{f.Key, f.Value})
				}
				printTable(w, []string{"字段", "值"}, rows)
			case len(section.Items) > 0:
				for _, item := range section.Items {
					fmt.Fprintf(w, "  - %s\n", item)
				}
			default:
				fmt.Fprintf(w, "  %s\n", section.Text)
			}
		}

		sections := resume.ParsedContent.Sections
		if sections.CareerLevel != "" || sections.TotalYearsExperience > 0 {
			fmt.Fprintf(w, "\n职级: %s  工作年限: %.1f\n", dash(sections.CareerLevel), sections.TotalYearsExperience)
		}
		if len(sections.SuggestedTags) > 0 {
			fmt.Fprintf(w, "建议标签: %s\n", strings.Join(sections.SuggestedTags, ", "))
		}
		return nil
	},
}

var resumesUploadCmd = &cobra.Command{
	Use:   "upload <candidate-id> <file>",
	Short: "Upload a PDF or Word resume for a candidate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, config := setup()

		candidateID, path := args[0], args[1]

		detected, err := mimetype.DetectFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		logger.Debug("detected resume file type",
			zap.String("file", path),
			zap.String("mime", detected.String()),
			zap.String("extension", detected.Extension()),
		)

		client := newClient(logger, config)
		allowText, _ := cmd.Flags().GetBool("allow-text")
		client.AllowTextResumes(allowText)

		file := recruiting.ResumeFile{
			Name:        filepath.Base(path),
			ContentType: detected.String(),
			Content:     content,
		}

		s := newStore(logger, config, client, nil)
		resume, err := s.UploadResume(cmd.Context(), candidateID, file, func(percent int) {
			logger.Info("uploading resume", zap.Int("progress", percent))
		})
		if err != nil {
			return report(logger, "uploading resume", err)
		}

		logger.Info("resume uploaded",
			zap.String("id", resume.ID),
			zap.String("candidate_id", resume.CandidateID),
			zap.Strings("tags", resume.TagNames()),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumesCmd)
	resumesCmd.AddCommand(resumesListCmd, resumesShowCmd, resumesUploadCmd)

	resumesListCmd.Flags().String("candidate", "", "only resumes of this candidate id")
	resumesUploadCmd.Flags().Bool("allow-text", false, "also accept plain text resumes")
}
