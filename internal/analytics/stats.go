package analytics

import (
	"github.com/crb12546/musical-memory/internal/recruiting"
)

type InterviewStats struct {
	Total      int
	Completed  int
	Scheduled  int
	Cancelled  int
	InProgress int
	// CompletionRate is Completed/Total in [0,1], 0 when there are no interviews.
	CompletionRate float64
}

func ComputeInterviewStats(interviews []recruiting.Interview) InterviewStats {
	stats := InterviewStats{Total: len(interviews)}
	for _, iv := range interviews {
		switch iv.Status {
		case recruiting.InterviewCompleted:
			stats.Completed++
		case recruiting.InterviewScheduled:
			stats.Scheduled++
		case recruiting.InterviewCancelled:
			stats.Cancelled++
		case recruiting.InterviewInProgress:
			stats.InProgress++
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}
	return stats
}
