package analytics

import (
	"fmt"

	"github.com/ecodeclub/ekit/slice"

	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

// InterviewRow is an interview joined with the names it refers to.
type InterviewRow struct {
	recruiting.Interview
	CandidateName string
	ProjectTitle  string
}

// InterviewRows joins interviews with candidate names and project titles.
// Unknown references render as "-".
func InterviewRows(snap store.Snapshot) []InterviewRow {
	candidates := slice.ToMap(snap.Candidates, func(c recruiting.Candidate) string { return c.ID })
	projects := slice.ToMap(snap.Projects, func(p recruiting.Project) string { return p.ID })

	return slice.Map(snap.Interviews, func(_ int, iv recruiting.Interview) InterviewRow {
		row := InterviewRow{Interview: iv, CandidateName: "-", ProjectTitle: "-"}
		if c, ok := candidates[iv.CandidateID]; ok {
			row.CandidateName = c.Name
		}
		if p, ok := projects[iv.ProjectID]; ok {
			row.ProjectTitle = p.Title
		}
		return row
	})
}

// ReportByProject groups interviews under "title (id)" of their project.
func ReportByProject(snap store.Snapshot) map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, row := range InterviewRows(snap) {
		key := fmt.Sprintf("%s (%s)", row.ProjectTitle, row.ProjectID)
		entry := map[string]string{
			"candidate": row.CandidateName,
			"scheduled": formatTime(row.ScheduledTime.Time),
			"type":      row.InterviewType.Label(),
			"status":    row.Status.Label(),
		}
		if !row.Feedback.IsZero() {
			entry["feedback"] = row.Feedback.Summary()
		}
		report[key] = append(report[key], entry)
	}
	return report
}
