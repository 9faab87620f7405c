package analytics

import (
	"time"

	"github.com/ecodeclub/ekit/slice"

	"github.com/crb12546/musical-memory/internal/recruiting"
)

// All disables a project filter.
const All = "all"

// FilterProjects keeps projects matching status and priority. An empty value
// or "all" matches everything.
func FilterProjects(projects []recruiting.Project, status, priority string) []recruiting.Project {
	return slice.FindAll(projects, func(p recruiting.Project) bool {
		return wildcard(status, string(p.Status)) && wildcard(priority, string(p.Priority))
	})
}

func wildcard(filter, value string) bool {
	return filter == "" || filter == All || filter == value
}

// CurrentResume returns the most recently created resume of candidateID.
func CurrentResume(resumes []recruiting.Resume, candidateID string) (recruiting.Resume, bool) {
	var (
		current recruiting.Resume
		latest  time.Time
		found   bool
	)

	for _, r := range resumes {
		if r.CandidateID != candidateID {
			continue
		}
		if !found || r.CreatedAt.After(latest) {
			current, latest, found = r, r.CreatedAt.Time, true
		}
	}
	return current, found
}

// ResumesOf returns every resume of candidateID in backend order.
func ResumesOf(resumes []recruiting.Resume, candidateID string) []recruiting.Resume {
	return slice.FindAll(resumes, func(r recruiting.Resume) bool { return r.CandidateID == candidateID })
}

// InterviewedCandidates returns the ids of candidates with an interview for projectID.
func InterviewedCandidates(interviews []recruiting.Interview, projectID string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, iv := range interviews {
		if iv.ProjectID == projectID {
			out[iv.CandidateID] = struct{}{}
		}
	}
	return out
}
