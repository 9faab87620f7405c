package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n float64) recruiting.Time {
	return recruiting.NewTime(now.Add(-time.Duration(n * float64(24*time.Hour))))
}

func resume(id, candidateID string, tags ...string) recruiting.Resume {
	r := recruiting.Resume{ID: id, CandidateID: candidateID}
	for _, name := range tags {
		r.Tags = append(r.Tags, recruiting.Tag{Name: name})
	}
	return r
}

func parsed(t *testing.T, raw string) recruiting.ParsedContent {
	t.Helper()
	var pc recruiting.ParsedContent
	require.NoError(t, json.Unmarshal([]byte(raw), &pc))
	return pc
}

func TestProgressScenario(t *testing.T) {
	statuses := []recruiting.ProjectStatus{"draft", "open", "in-progress", "closed"}
	want := []float64{20, 40, 60, 100}

	for i, status := range statuses {
		assert.InDelta(t, want[i], Progress(status, FiveStages), 1e-9, status)
	}
}

func TestProgressUnknownAndMonotonic(t *testing.T) {
	assert.Zero(t, Progress("archived", FiveStages))
	assert.Zero(t, Progress("", ThreeStages))
	assert.Zero(t, Progress("draft", ThreeStages))
	assert.Zero(t, Progress("open", nil))

	for _, stages := range []Stages{FiveStages, ThreeStages} {
		prev := 0.0
		for _, status := range stages {
			got := Progress(status, stages)
			assert.Greater(t, got, prev)
			prev = got
		}
		assert.InDelta(t, 100, prev, 1e-9)
	}
}

func TestStagesByName(t *testing.T) {
	s, err := StagesByName("three")
	require.NoError(t, err)
	assert.Equal(t, ThreeStages, s)

	s, err = StagesByName("")
	require.NoError(t, err)
	assert.Equal(t, FiveStages, s)

	_, err = StagesByName("seven")
	assert.Error(t, err)
}

func TestMatchCandidates(t *testing.T) {
	project := &recruiting.Project{Qualifications: recruiting.StringList{"5年以上 GOLANG 开发经验", "熟悉 Kubernetes"}}
	candidates := recruiting.Candidates{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	resumes := []recruiting.Resume{
		resume("r1", "a", "golang"),
		resume("r2", "b", "Java"),
		resume("r3", "c", "Java"),
		resume("r4", "c", "kubernetes"),
		resume("r5", "d", " ", ""),
	}

	got := MatchCandidates(project, candidates, resumes)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	assert.Equal(t, []string{"kubernetes"}, MatchedTags(*project, resumes, "c"))
}

func TestMatchCandidatesEmpty(t *testing.T) {
	candidates := recruiting.Candidates{{ID: "a"}}

	assert.Empty(t, MatchCandidates(nil, candidates, []recruiting.Resume{resume("r1", "a", "Go")}))

	project := &recruiting.Project{Qualifications: recruiting.StringList{"Go"}}
	assert.Empty(t, MatchCandidates(project, candidates, []recruiting.Resume{resume("r1", "a")}))
	assert.Empty(t, MatchCandidates(&recruiting.Project{}, candidates, []recruiting.Resume{resume("r1", "a", "Go")}))
}

func TestInterviewStats(t *testing.T) {
	assert.Equal(t, InterviewStats{}, ComputeInterviewStats(nil))

	stats := ComputeInterviewStats([]recruiting.Interview{
		{Status: recruiting.InterviewCompleted},
		{Status: recruiting.InterviewCompleted},
		{Status: recruiting.InterviewScheduled},
		{Status: recruiting.InterviewCancelled},
		{Status: "no_show"},
	})
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Scheduled)
	assert.Equal(t, 1, stats.Cancelled)
	assert.InDelta(t, 0.4, stats.CompletionRate, 1e-9)
}

func TestProcessingEfficiency(t *testing.T) {
	ok := parsed(t, `{"skills":{"technical":["Go"]}}`)
	failed := parsed(t, `{"error":"ocr failed"}`)

	resumes := []recruiting.Resume{
		{ID: "1", CreatedAt: daysAgo(1), ParsedContent: ok},
		{ID: "2", CreatedAt: daysAgo(2), ParsedContent: ok},
		{ID: "3", CreatedAt: daysAgo(3), ParsedContent: ok},
		{ID: "4", CreatedAt: daysAgo(4), ParsedContent: failed},
		{ID: "5", CreatedAt: daysAgo(40), ParsedContent: ok},
		{ID: "6", CreatedAt: daysAgo(45)},
		{ID: "7", CreatedAt: daysAgo(90), ParsedContent: ok},
	}

	m := ProcessingEfficiency(resumes, now)
	assert.Equal(t, Metric{Value: 75, Delta: 25, Direction: Up}, m)
}

func TestTrendMetricsEmptyWindows(t *testing.T) {
	assert.Equal(t, Metric{Direction: Neutral}, ProcessingEfficiency(nil, now))
	assert.Equal(t, Metric{Direction: Neutral}, InterviewConversion(nil, now))
	assert.Equal(t, Metric{Direction: Neutral}, RecruitmentCycle(nil, now))

	// A project without timestamps falls in neither window.
	assert.Equal(t, Metric{Direction: Neutral}, RecruitmentCycle([]recruiting.Project{{Status: recruiting.ProjectClosed}}, now))
}

func TestInterviewConversion(t *testing.T) {
	interviews := []recruiting.Interview{
		{CreatedAt: daysAgo(5), Status: recruiting.InterviewScheduled},
		{CreatedAt: daysAgo(6), Status: recruiting.InterviewScheduled},
		{CreatedAt: daysAgo(35), Status: recruiting.InterviewCompleted},
		{CreatedAt: daysAgo(36), Status: recruiting.InterviewCompleted},
	}

	assert.Equal(t, Metric{Value: 0, Delta: -100, Direction: Down}, InterviewConversion(interviews, now))
}

func TestInterviewConversionEqualIsNeutral(t *testing.T) {
	interviews := []recruiting.Interview{
		{CreatedAt: daysAgo(5), Status: recruiting.InterviewCompleted},
		{CreatedAt: daysAgo(6), Status: recruiting.InterviewScheduled},
		{CreatedAt: daysAgo(35), Status: recruiting.InterviewCompleted},
		{CreatedAt: daysAgo(36), Status: recruiting.InterviewScheduled},
	}

	assert.Equal(t, Metric{Value: 50, Delta: 0, Direction: Neutral}, InterviewConversion(interviews, now))
}

func TestRecruitmentCycle(t *testing.T) {
	projects := []recruiting.Project{
		// recent: 10 and 20 days, average 15
		{Status: recruiting.ProjectClosed, CreatedAt: daysAgo(25), UpdatedAt: daysAgo(15)},
		{Status: recruiting.ProjectClosed, CreatedAt: daysAgo(29), UpdatedAt: daysAgo(9)},
		// previous: 30 days
		{Status: recruiting.ProjectClosed, CreatedAt: daysAgo(50), UpdatedAt: daysAgo(20)},
		// ignored: not closed
		{Status: recruiting.ProjectOpen, CreatedAt: daysAgo(10)},
	}

	assert.Equal(t, Metric{Value: 15, Delta: 50, Direction: Up}, RecruitmentCycle(projects, now))

	// No update time counts as zero days.
	projects = []recruiting.Project{
		{Status: recruiting.ProjectClosed, CreatedAt: daysAgo(3)},
		{Status: recruiting.ProjectClosed, CreatedAt: daysAgo(40), UpdatedAt: daysAgo(38)},
	}
	assert.Equal(t, Metric{Value: 0, Delta: 100, Direction: Up}, RecruitmentCycle(projects, now))
}

func TestFilterProjects(t *testing.T) {
	projects := []recruiting.Project{
		{ID: "1", Status: "open", Priority: "high"},
		{ID: "2", Status: "open", Priority: "low"},
		{ID: "3", Status: "closed", Priority: "high"},
	}

	assert.Len(t, FilterProjects(projects, All, All), 3)
	assert.Len(t, FilterProjects(projects, "", ""), 3)
	assert.Len(t, FilterProjects(projects, "open", All), 2)

	got := FilterProjects(projects, "open", "high")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestCurrentResume(t *testing.T) {
	resumes := []recruiting.Resume{
		{ID: "old", CandidateID: "a", CreatedAt: daysAgo(10)},
		{ID: "new", CandidateID: "a", CreatedAt: daysAgo(1)},
		{ID: "other", CandidateID: "b", CreatedAt: daysAgo(0)},
	}

	got, ok := CurrentResume(resumes, "a")
	require.True(t, ok)
	assert.Equal(t, "new", got.ID)

	_, ok = CurrentResume(resumes, "z")
	assert.False(t, ok)

	assert.Len(t, ResumesOf(resumes, "a"), 2)
}

func TestTimeline(t *testing.T) {
	states := Timeline(recruiting.Project{CurrentStage: "offer", CompletedStages: []string{"sourcing", "interviewing"}})
	require.Len(t, states, 4)

	assert.True(t, states[0].Complete)
	assert.True(t, states[1].Complete)
	assert.True(t, states[2].Active)
	assert.False(t, states[2].Complete)
	assert.Equal(t, "Offer发放", states[2].Label)
	assert.False(t, states[3].Active || states[3].Complete)
}

func TestInterviewRowsAndReport(t *testing.T) {
	snap := store.Snapshot{
		Projects:   []recruiting.Project{{ID: "p1", Title: "后端工程师"}},
		Candidates: recruiting.Candidates{{ID: "c1", Name: "张三"}},
		Interviews: []recruiting.Interview{
			{ID: "i1", ProjectID: "p1", CandidateID: "c1", InterviewType: "technical", Status: "scheduled"},
			{ID: "i2", ProjectID: "p1", CandidateID: "gone", Status: "completed", Feedback: recruiting.TextFeedback("不错")},
		},
	}

	rows := InterviewRows(snap)
	require.Len(t, rows, 2)
	assert.Equal(t, "张三", rows[0].CandidateName)
	assert.Equal(t, "后端工程师", rows[0].ProjectTitle)
	assert.Equal(t, "-", rows[1].CandidateName)

	report := ReportByProject(snap)
	entries := report["后端工程师 (p1)"]
	require.Len(t, entries, 2)
	assert.Equal(t, "技术面试", entries[0]["type"])
	assert.Equal(t, "已安排", entries[0]["status"])
	assert.Equal(t, "-", entries[0]["scheduled"])
	_, ok := entries[0]["feedback"]
	assert.False(t, ok)
	assert.Equal(t, "不错", entries[1]["feedback"])
}

func TestBuildDashboard(t *testing.T) {
	snap := store.Snapshot{
		Projects: []recruiting.Project{
			{ID: "p1", Status: "draft"},
			{ID: "p2", Status: "closed", CreatedAt: daysAgo(10), UpdatedAt: daysAgo(5)},
		},
		Interviews: []recruiting.Interview{{Status: recruiting.InterviewCompleted, CreatedAt: daysAgo(1)}},
	}

	d := BuildDashboard(snap, now, FiveStages)
	assert.Equal(t, 2, d.Counts[store.Projects])
	assert.Equal(t, 0, d.Counts[store.Resumes])
	require.Len(t, d.Projects, 2)
	assert.InDelta(t, 20, d.Projects[0].Percent, 1e-9)
	assert.InDelta(t, 100, d.Projects[1].Percent, 1e-9)
	assert.Equal(t, 1, d.Interviews.Completed)
	assert.Equal(t, Metric{Value: 100, Delta: 100, Direction: Up}, d.Conversion)
	assert.Equal(t, Metric{Value: 5, Delta: -500, Direction: Down}, d.Cycle)
}
