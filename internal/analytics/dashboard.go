package analytics

import (
	"time"

	"github.com/ecodeclub/ekit/slice"

	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

type ProjectProgress struct {
	ID       string
	Title    string
	Status   recruiting.ProjectStatus
	Priority recruiting.Priority
	Percent  float64
}

// Dashboard bundles every derived view of one snapshot.
type Dashboard struct {
	GeneratedAt time.Time
	Counts      map[store.Kind]int
	Projects    []ProjectProgress
	Interviews  InterviewStats
	Efficiency  Metric
	Conversion  Metric
	Cycle       Metric
}

func BuildDashboard(snap store.Snapshot, now time.Time, stages Stages) Dashboard {
	return Dashboard{
		GeneratedAt: now,
		Counts: map[store.Kind]int{
			store.Projects:   len(snap.Projects),
			store.Candidates: len(snap.Candidates),
			store.Resumes:    len(snap.Resumes),
			store.Interviews: len(snap.Interviews),
		},
		Projects: slice.Map(snap.Projects, func(_ int, p recruiting.Project) ProjectProgress {
			return ProjectProgress{
				ID:       p.ID,
				Title:    p.Title,
				Status:   p.Status,
				Priority: p.Priority,
				Percent:  Progress(p.Status, stages),
			}
		}),
		Interviews: ComputeInterviewStats(snap.Interviews),
		Efficiency: ProcessingEfficiency(snap.Resumes, now),
		Conversion: InterviewConversion(snap.Interviews, now),
		Cycle:      RecruitmentCycle(snap.Projects, now),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
