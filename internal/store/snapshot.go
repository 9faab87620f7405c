package store

import (
	"slices"
	"time"

	"github.com/crb12546/musical-memory/internal/recruiting"
)

// Kind names one of the synchronized collections.
type Kind string

const (
	Projects   Kind = "projects"
	Candidates Kind = "candidates"
	Resumes    Kind = "resumes"
	Interviews Kind = "interviews"
)

// Kinds lists every collection in refresh order.
var Kinds = []Kind{Projects, Candidates, Resumes, Interviews}

// Snapshot is a point-in-time copy of the collections. Records are shared
// with the store and must be treated as read-only.
type Snapshot struct {
	Projects   []recruiting.Project
	Candidates recruiting.Candidates
	Resumes    []recruiting.Resume
	Interviews []recruiting.Interview
	// UpdatedAt is when each collection was last replaced. Missing kinds were never loaded.
	UpdatedAt map[Kind]time.Time
}

// Loaded reports whether kind has been replaced at least once.
func (s Snapshot) Loaded(kind Kind) bool {
	_, ok := s.UpdatedAt[kind]
	return ok
}

func (s Snapshot) ProjectByID(id string) (recruiting.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return recruiting.Project{}, false
}

func (s Snapshot) InterviewByID(id string) (recruiting.Interview, bool) {
	for _, iv := range s.Interviews {
		if iv.ID == id {
			return iv, true
		}
	}
	return recruiting.Interview{}, false
}

func (s Snapshot) clone() Snapshot {
	updated := make(map[Kind]time.Time, len(s.UpdatedAt))
	for k, v := range s.UpdatedAt {
		updated[k] = v
	}

	return Snapshot{
		Projects:   slices.Clone(s.Projects),
		Candidates: slices.Clone(s.Candidates),
		Resumes:    slices.Clone(s.Resumes),
		Interviews: slices.Clone(s.Interviews),
		UpdatedAt:  updated,
	}
}
