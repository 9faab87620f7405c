package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crb12546/musical-memory/internal/ai"
	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/filtering"
	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/store"
)

func testConfig(url string) *Config {
	return &Config{
		API:      &APIConfig{BaseURL: url, Origin: "http://ui.local", UserAgent: "test-agent", Timeout: time.Second},
		Refresh:  &RefreshConfig{Interval: time.Minute},
		Progress: &ProgressConfig{Stages: "three"},
		Metrics:  &MetricsConfig{},
		Match:    &MatchConfig{Exclude: []string{"c9"}},
	}
}

func TestNewClientAppliesConfig(t *testing.T) {
	client := newClient(zap.NewNop(), testConfig("http://api.local/"))

	assert.Equal(t, "http://api.local", client.APIURL)
	assert.Equal(t, "http://ui.local", client.Origin)
	assert.Equal(t, "test-agent", client.UserAgent)
	assert.Equal(t, time.Second, client.HTTPClient.Timeout)
}

func TestProgressStages(t *testing.T) {
	stages, err := progressStages(testConfig(""))
	require.NoError(t, err)
	assert.Equal(t, analytics.ThreeStages, stages)

	config := testConfig("")
	config.Progress.Stages = "seven"
	_, err = progressStages(config)
	assert.ErrorContains(t, err, "progress.stages")
}

func TestLoadToleratesPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/interviews/" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/projects/":
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "p1", "title": "Go 工程师", "status": "open"}})
		default:
			_, _ = w.Write([]byte("[]"))
		}
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	config := testConfig(srv.URL)

	s := newStore(logger, config, newClient(logger, config), nil)
	snap, err := load(context.Background(), logger, s)
	require.NoError(t, err)

	require.Len(t, snap.Projects, 1)
	assert.True(t, snap.Loaded(store.Projects))
	assert.False(t, snap.Loaded(store.Interviews))
	assert.Equal(t, 1, logs.FilterMessage("some collections could not be loaded").Len())
}

func TestLoadFailsWhenNothingLoads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	config := testConfig(srv.URL)
	s := newStore(zap.NewNop(), config, newClient(zap.NewNop(), config), nil)

	_, err := load(context.Background(), zap.NewNop(), s)
	assert.Error(t, err)
}

func TestReportLogsUserMessage(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core)

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("validation must not reach the backend")
	}))
	defer srv.Close()

	_, err := newClient(logger, testConfig(srv.URL)).CreateCandidate(context.Background(), recruiting.CandidateInput{Email: "a@b.c"})
	require.Error(t, err)

	got := report(logger, "creating candidate", err)
	assert.Same(t, err, got)

	entries := logs.FilterMessage("creating candidate").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "请输入候选人姓名", fields["reason"])
	assert.Equal(t, "name", fields["field"])
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	rows := func() [][]string { return [][]string{{"p1", "Go 工程师"}} }

	require.NoError(t, render(&buf, outputTable, nil, []string{"ID", "职位"}, rows))
	assert.Contains(t, buf.String(), "Go 工程师")
	assert.Contains(t, buf.String(), "ID")

	buf.Reset()
	require.NoError(t, render(&buf, outputJSON, map[string]string{"id": "p1"}, nil, rows))
	assert.JSONEq(t, `{"id":"p1"}`, buf.String())

	assert.Error(t, render(&buf, "xml", nil, nil, rows))
}

func TestFormatMetric(t *testing.T) {
	got := formatMetric(analytics.Metric{Value: 75, Delta: 25, Direction: analytics.Up}, "%")
	assert.Equal(t, "75% (↑ 25% vs 上月)", got)

	assert.True(t, strings.HasPrefix(formatMetric(analytics.Metric{Direction: analytics.Neutral}, "天"), "0天 (→"))
}

func TestFilterConfig(t *testing.T) {
	config := testConfig("")
	config.AI = &AIConfig{
		Enabled:         true,
		MinimumFitScore: 0.7,
		Gemini:          &GeminiConfig{Model: "gemini-2.5-pro", MaxLogLength: 50, APIKeyFile: "/nonexistent"},
	}

	cfg := filterConfig(config)
	assert.Equal(t, []string{"c9"}, cfg.Exclude)
	require.NotNil(t, cfg.AI)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, 0.7, cfg.AI.MinimumFitScore)
	assert.Equal(t, "gemini-2.5-pro", cfg.AI.Gemini.Model)
	assert.Equal(t, 50, cfg.AI.Gemini.MaxLogLength)
}

func TestPrepareFiltersDisablesAIWithoutKey(t *testing.T) {
	config := testConfig("")
	config.AI = &AIConfig{Enabled: true, Gemini: &GeminiConfig{Model: "m", APIKeyFile: "/nonexistent/key"}}

	core, logs := observer.New(zapcore.WarnLevel)
	steps, deps := prepareFilters(context.Background(), config, zap.New(core), recruiting.Project{ID: "p1"}, store.Snapshot{}, false)

	assert.Nil(t, deps.Matcher)
	assert.Equal(t, 1, logs.FilterMessage("skipping AI filter").Len())
	for _, step := range steps {
		if step.Name() == "ai_fit" {
			assert.False(t, step.IsEnabled())
		}
	}
}

func TestHandleActionExit(t *testing.T) {
	err := handleAction(matchCmd, zap.NewNop(), PromptExit, outputTable, matchOutcome{}, nil)
	assert.True(t, errors.Is(err, errExit))

	assert.Error(t, handleAction(matchCmd, zap.NewNop(), "unknown", outputTable, matchOutcome{}, nil))
}

func TestCurrentBuildRendersAsJSON(t *testing.T) {
	var buf bytes.Buffer
	info := currentBuild()
	require.NoError(t, render(&buf, outputJSON, info, nil, nil))

	var got buildInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "recruit-sync", got.App)
	assert.Equal(t, version, got.Version)
	assert.NotEmpty(t, got.GoVersion)
	assert.Contains(t, got.Platform, "/")
}

func TestPrintSteps(t *testing.T) {
	var buf bytes.Buffer
	printSteps(&buf, []filtering.StepReport{
		{Name: "qualification_match", Counts: filtering.Counts{In: 4, Out: 3}},
		{Name: "ai_fit", Skipped: true},
	})

	out := buf.String()
	assert.Contains(t, out, "qualification_match")
	assert.Contains(t, out, "skipped")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
}

func TestBuildOutcomeKeepsRejectedAssessments(t *testing.T) {
	project := recruiting.Project{ID: "p1", Qualifications: recruiting.StringList{"Go"}}
	snap := store.Snapshot{
		Candidates: recruiting.Candidates{
			{ID: "c1", Name: "张三"},
			{ID: "c2", Name: "李四"},
			{ID: "c3", Name: "王五"},
		},
		Resumes: []recruiting.Resume{
			{ID: "r1", CandidateID: "c1", Tags: []recruiting.Tag{{Name: "Go"}}},
		},
	}
	res := filtering.Result{
		Shortlist: recruiting.Candidates{snap.Candidates[0]},
		Assessments: map[string]*ai.FitAssessment{
			"c1": {Fit: true, Score: 0.9},
			"c2": {Fit: false, Score: 0.2, Reason: "经验不足"},
		},
	}

	outcome := buildOutcome(project, snap, res)
	require.Len(t, outcome.Shortlist, 1)
	assert.Equal(t, "c1", outcome.Shortlist[0].Candidate.ID)
	assert.Equal(t, []string{"Go"}, outcome.Shortlist[0].MatchedTags)

	require.Len(t, outcome.Rejected, 1)
	assert.Equal(t, "c2", outcome.Rejected[0].Candidate.ID)
	assert.Equal(t, "经验不足", outcome.Rejected[0].Assessment.Reason)

	rows := shortlistRows(outcome.Rejected)
	require.Len(t, rows, 1)
	assert.Equal(t, "0.20", rows[0][4])
	assert.Equal(t, "经验不足", rows[0][5])
}

func TestStatusUpdateNote(t *testing.T) {
	structured := recruiting.StructuredFeedback(recruiting.InterviewFeedback{OverallRating: 4, Recommendation: "hire"})
	iv := recruiting.Interview{ID: "i1", ProjectID: "p1", CandidateID: "c1", Feedback: structured}

	kept := statusUpdate(iv, "cancelled", "  ")
	assert.Equal(t, recruiting.InterviewStatus("cancelled"), kept.Status)
	assert.Equal(t, structured, kept.Feedback)

	noted := statusUpdate(iv, "completed", " 候选人表现良好 ")
	assert.Equal(t, recruiting.InterviewCompleted, noted.Status)
	assert.Nil(t, noted.Feedback.Structured)
	assert.Equal(t, "候选人表现良好", noted.Feedback.Text)
}
