package ai

import (
	"context"

	"github.com/crb12546/musical-memory/internal/recruiting"
)

// FitAssessment is a model's opinion of how well a candidate fits a project.
type FitAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Raw     string  `json:"-"`
	// Error is set when the evaluation itself failed; the other fields are then empty.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the model could not be asked.
func (a *FitAssessment) Failed() bool {
	return a != nil && a.Error != ""
}

// Matcher judges one candidate against one project. resume is nil when the
// candidate has not uploaded any.
type Matcher interface {
	Evaluate(ctx context.Context, project recruiting.Project, candidate recruiting.Candidate, resume *recruiting.Resume) (*FitAssessment, error)
}
