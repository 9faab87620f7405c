package analytics

import (
	"fmt"
	"strings"

	"github.com/crb12546/musical-memory/internal/recruiting"
)

// Stages is an ordered list of project statuses.
type Stages []recruiting.ProjectStatus

var (
	FiveStages = Stages{
		recruiting.ProjectDraft,
		recruiting.ProjectOpen,
		recruiting.ProjectInProgress,
		recruiting.ProjectOnHold,
		recruiting.ProjectClosed,
	}

	ThreeStages = Stages{
		recruiting.ProjectOpen,
		recruiting.ProjectInProgress,
		recruiting.ProjectClosed,
	}
)

// StagesByName resolves the "five" or "three" stage model.
func StagesByName(name string) (Stages, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "five":
		return FiveStages, nil
	case "three":
		return ThreeStages, nil
	default:
		return nil, fmt.Errorf("unknown stage model %q (want five or three)", name)
	}
}

func (s Stages) index(status recruiting.ProjectStatus) int {
	for i, stage := range s {
		if stage == status {
			return i
		}
	}
	return -1
}

// Progress returns (index+1)/len(stages)*100 for status, or 0 when the
// status is not part of stages.
func Progress(status recruiting.ProjectStatus, stages Stages) float64 {
	idx := stages.index(status)
	if idx < 0 || len(stages) == 0 {
		return 0
	}
	return float64(idx+1) / float64(len(stages)) * 100
}

type StageState struct {
	ID       string
	Label    string
	Active   bool
	Complete bool
}

var timelineStages = []struct {
	id    string
	label string
}{
	{"sourcing", "简历筛选"},
	{"interviewing", "面试中"},
	{"offer", "Offer发放"},
	{"onboarding", "入职准备"},
}

// Timeline reports the hiring pipeline stages of a project.
func Timeline(project recruiting.Project) []StageState {
	out := make([]StageState, 0, len(timelineStages))
	for _, stage := range timelineStages {
		complete := false
		for _, done := range project.CompletedStages {
			if done == stage.id {
				complete = true
				break
			}
		}
		out = append(out, StageState{
			ID:       stage.id,
			Label:    stage.label,
			Active:   project.CurrentStage == stage.id,
			Complete: complete,
		})
	}
	return out
}
