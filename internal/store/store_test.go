package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crb12546/musical-memory/internal/recruiting"
)

type fakeBackend struct {
	mu         sync.Mutex
	projects   []recruiting.Project
	candidates recruiting.Candidates
	resumes    []recruiting.Resume
	interviews []recruiting.Interview
	errs       map[Kind]error
	writeErr   error

	calls [4]atomic.Int32

	// listProjects overrides ListProjects when set.
	listProjects func(ctx context.Context) ([]recruiting.Project, error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		projects:   []recruiting.Project{{ID: "p1", Title: "Go 工程师"}},
		candidates: recruiting.Candidates{{ID: "c1", Name: "张三"}},
		resumes:    []recruiting.Resume{{ID: "r1", CandidateID: "c1"}},
		interviews: []recruiting.Interview{{ID: "i1", ProjectID: "p1", CandidateID: "c1"}},
		errs:       map[Kind]error{},
	}
}

func (f *fakeBackend) count(kind Kind) int {
	for i, k := range Kinds {
		if k == kind {
			return int(f.calls[i].Load())
		}
	}
	return 0
}

func (f *fakeBackend) list(kind Kind) error {
	for i, k := range Kinds {
		if k == kind {
			f.calls[i].Add(1)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[kind]
}

func (f *fakeBackend) setErr(kind Kind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[kind] = err
}

func (f *fakeBackend) ListProjects(ctx context.Context) ([]recruiting.Project, error) {
	if f.listProjects != nil {
		f.calls[0].Add(1)
		return f.listProjects(ctx)
	}
	if err := f.list(Projects); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recruiting.Project(nil), f.projects...), nil
}

func (f *fakeBackend) ListCandidates(context.Context) (recruiting.Candidates, error) {
	if err := f.list(Candidates); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(recruiting.Candidates(nil), f.candidates...), nil
}

func (f *fakeBackend) ListResumes(context.Context) ([]recruiting.Resume, error) {
	if err := f.list(Resumes); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recruiting.Resume(nil), f.resumes...), nil
}

func (f *fakeBackend) ListInterviews(context.Context) ([]recruiting.Interview, error) {
	if err := f.list(Interviews); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recruiting.Interview(nil), f.interviews...), nil
}

func (f *fakeBackend) CreateCandidate(_ context.Context, in recruiting.CandidateInput) (*recruiting.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	c := recruiting.Candidate{ID: "c-new", Name: in.Name, Email: in.Email}
	f.candidates = append(f.candidates, c)
	return &c, nil
}

func (f *fakeBackend) UploadResume(_ context.Context, candidateID string, _ recruiting.ResumeFile, progress recruiting.Progress) (*recruiting.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if progress != nil {
		progress(100)
	}
	r := recruiting.Resume{ID: "r-new", CandidateID: candidateID}
	f.resumes = append(f.resumes, r)
	return &r, nil
}

func (f *fakeBackend) CreateProject(_ context.Context, in recruiting.ProjectInput) (*recruiting.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	p := recruiting.Project{ID: "p-new", Title: in.Title}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeBackend) UpdateProject(_ context.Context, id string, in recruiting.ProjectInput) (*recruiting.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects[i].Title = in.Title
			f.projects[i].Status = in.Status
			p := f.projects[i]
			return &p, nil
		}
	}
	return nil, &recruiting.APIError{Op: "update project", StatusCode: 404, Message: "项目不存在"}
}

func (f *fakeBackend) DeleteProject(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	out := f.projects[:0]
	for _, p := range f.projects {
		if p.ID != id {
			out = append(out, p)
		}
	}
	f.projects = out
	return nil
}

func (f *fakeBackend) CreateInterview(_ context.Context, in recruiting.InterviewInput) (*recruiting.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	iv := recruiting.Interview{ID: "i-new", ProjectID: in.ProjectID, CandidateID: in.CandidateID, Status: recruiting.InterviewScheduled}
	f.interviews = append(f.interviews, iv)
	return &iv, nil
}

func (f *fakeBackend) UpdateInterview(_ context.Context, id string, in recruiting.InterviewUpdate) (*recruiting.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	for i := range f.interviews {
		if f.interviews[i].ID == id {
			f.interviews[i].Status = in.Status
			f.interviews[i].Feedback = in.Feedback
			iv := f.interviews[i]
			return &iv, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeBackend) SubmitFeedback(ctx context.Context, iv recruiting.Interview, feedback recruiting.InterviewFeedback) (*recruiting.Interview, error) {
	update := recruiting.UpdateFrom(iv)
	update.Status = recruiting.InterviewCompleted
	update.Feedback = recruiting.StructuredFeedback(feedback)
	return f.UpdateInterview(ctx, iv.ID, update)
}

func TestRefreshAllLoadsEveryCollection(t *testing.T) {
	backend := newFakeBackend()
	backend.projects = append(backend.projects, recruiting.Project{ID: "p1", Title: "duplicate"})

	s := New(backend)
	errs := s.RefreshAll(context.Background())
	require.Empty(t, errs)
	require.NoError(t, errs.Err())

	snap := s.Snapshot()
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "Go 工程师", snap.Projects[0].Title)
	assert.Len(t, snap.Candidates, 1)
	assert.Len(t, snap.Resumes, 1)
	assert.Len(t, snap.Interviews, 1)
	for _, kind := range Kinds {
		assert.True(t, snap.Loaded(kind), kind)
	}
}

func TestRefreshAllPartialFailureKeepsPrevious(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)
	require.Empty(t, s.RefreshAll(context.Background()))

	backend.mu.Lock()
	backend.projects = append(backend.projects, recruiting.Project{ID: "p2"})
	backend.candidates = append(backend.candidates, recruiting.Candidate{ID: "c2"})
	backend.mu.Unlock()

	boom := errors.New("connection reset")
	backend.setErr(Candidates, boom)

	errs := s.RefreshAll(context.Background())
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[Candidates], boom)
	assert.ErrorIs(t, errs.Err(), boom)

	snap := s.Snapshot()
	assert.Len(t, snap.Projects, 2)
	assert.Len(t, snap.Candidates, 1)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(newFakeBackend())
	require.Empty(t, s.RefreshAll(context.Background()))

	snap := s.Snapshot()
	snap.Projects[0].Title = "changed"
	snap.UpdatedAt[Projects] = time.Time{}

	again := s.Snapshot()
	assert.Equal(t, "Go 工程师", again.Projects[0].Title)
	assert.False(t, again.UpdatedAt[Projects].IsZero())
}

func TestStaleResponseIsDropped(t *testing.T) {
	backend := newFakeBackend()
	entered := make(chan struct{})
	release := make(chan struct{})
	var call atomic.Int32

	backend.listProjects = func(ctx context.Context) ([]recruiting.Project, error) {
		if call.Add(1) == 1 {
			close(entered)
			<-release
			return []recruiting.Project{{ID: "old"}}, nil
		}
		return []recruiting.Project{{ID: "new"}}, nil
	}

	s := New(backend)

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background(), Projects) }()
	<-entered

	require.NoError(t, s.refresh(context.Background(), Projects, true))
	close(release)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "new", snap.Projects[0].ID)
}

func TestConcurrentRefreshesAreCoalesced(t *testing.T) {
	backend := newFakeBackend()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	backend.listProjects = func(ctx context.Context) ([]recruiting.Project, error) {
		once.Do(func() { close(entered) })
		<-release
		return []recruiting.Project{{ID: "p1"}}, nil
	}

	s := New(backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Refresh(context.Background(), Projects))
	}()
	<-entered

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Refresh(context.Background(), Projects))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, backend.count(Projects))
}

func TestResultsAfterStopAreDiscarded(t *testing.T) {
	backend := newFakeBackend()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	backend.listProjects = func(ctx context.Context) ([]recruiting.Project, error) {
		once.Do(func() { close(entered) })
		<-release
		return []recruiting.Project{{ID: "late"}}, nil
	}

	s := New(backend, WithInterval(time.Hour))
	require.NoError(t, s.Start(context.Background()))
	<-entered

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	require.Eventually(t, s.isStopped, time.Second, 5*time.Millisecond)
	close(release)
	<-stopped

	snap := s.Snapshot()
	assert.Empty(t, snap.Projects)
	assert.False(t, snap.Loaded(Projects))

	assert.ErrorIs(t, s.Start(context.Background()), ErrStopped)
	s.Stop()
}

func TestStartPollsUntilStopped(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, WithInterval(10*time.Millisecond))

	var hooked atomic.Int32
	s.OnRefresh(func(kind Kind, snap Snapshot) {
		if kind == Projects {
			hooked.Add(1)
			assert.NotEmpty(t, snap.Projects)
		}
	})

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	require.Eventually(t, func() bool { return backend.count(Projects) >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	calls := backend.count(Projects)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, calls, backend.count(Projects))
	assert.GreaterOrEqual(t, int(hooked.Load()), 3)
}

func TestMutationRefetchesAffectedCollection(t *testing.T) {
	backend := newFakeBackend()
	metrics := NewMetrics(prometheus.NewRegistry())
	s := New(backend, WithMetrics(metrics))
	require.Empty(t, s.RefreshAll(context.Background()))

	created, err := s.CreateProject(context.Background(), recruiting.ProjectInput{Title: "数据工程师"})
	require.NoError(t, err)
	assert.Equal(t, "p-new", created.ID)

	snap := s.Snapshot()
	require.Len(t, snap.Projects, 2)
	assert.Equal(t, 2, backend.count(Projects))
	assert.Equal(t, 1, backend.count(Candidates))

	require.NoError(t, s.DeleteProject(context.Background(), "p1"))
	snap = s.Snapshot()
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "p-new", snap.Projects[0].ID)

	_, err = s.CreateInterview(context.Background(), recruiting.InterviewInput{ProjectID: "p-new", CandidateID: "c1"})
	require.NoError(t, err)
	assert.Len(t, s.Snapshot().Interviews, 2)

	_, err = s.SubmitFeedback(context.Background(), snap.Interviews[0], recruiting.InterviewFeedback{Recommendation: "hire", OverallRating: 4})
	require.NoError(t, err)
	iv, ok := s.Snapshot().InterviewByID("i1")
	require.True(t, ok)
	assert.Equal(t, recruiting.InterviewCompleted, iv.Status)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.mutations.WithLabelValues("create_project", resultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.size.WithLabelValues(string(Projects))))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.refreshes.WithLabelValues(string(Projects), resultSuccess)))
}

func TestMutationErrorSkipsRefetch(t *testing.T) {
	backend := newFakeBackend()
	backend.writeErr = &recruiting.APIError{Op: "create candidate", StatusCode: 400, Message: "邮箱已存在", FromServer: true}
	metrics := NewMetrics(nil)
	s := New(backend, WithMetrics(metrics))

	_, err := s.CreateCandidate(context.Background(), recruiting.CandidateInput{Name: "王五", Email: "w@example.com"})
	require.Error(t, err)
	assert.Equal(t, "邮箱已存在", recruiting.UserMessage(err))
	assert.Zero(t, backend.count(Candidates))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.mutations.WithLabelValues("create_candidate", resultError)))
}

func TestFailedRefetchIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	backend := newFakeBackend()
	backend.setErr(Resumes, errors.New("timeout"))

	s := New(backend, WithLogger(zap.New(core)))

	var progress []int
	resume, err := s.UploadResume(context.Background(), "c1", recruiting.ResumeFile{Name: "cv.pdf"}, func(p int) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.Equal(t, "r-new", resume.ID)
	assert.Equal(t, []int{100}, progress)

	entries := logs.FilterMessage("re-fetch after mutation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "upload_resume", entries[0].ContextMap()["operation"])
}

func TestRefreshUnknownKind(t *testing.T) {
	s := New(newFakeBackend())
	assert.Error(t, s.Refresh(context.Background(), Kind("tags")))
}
