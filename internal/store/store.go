package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/crb12546/musical-memory/internal/recruiting"
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 15 * time.Second

var (
	ErrAlreadyStarted = errors.New("store already started")
	ErrStopped        = errors.New("store stopped")
)

// Backend is the subset of the resource client the store needs.
type Backend interface {
	ListProjects(ctx context.Context) ([]recruiting.Project, error)
	ListCandidates(ctx context.Context) (recruiting.Candidates, error)
	ListResumes(ctx context.Context) ([]recruiting.Resume, error)
	ListInterviews(ctx context.Context) ([]recruiting.Interview, error)

	CreateCandidate(ctx context.Context, in recruiting.CandidateInput) (*recruiting.Candidate, error)
	UploadResume(ctx context.Context, candidateID string, file recruiting.ResumeFile, progress recruiting.Progress) (*recruiting.Resume, error)
	CreateProject(ctx context.Context, in recruiting.ProjectInput) (*recruiting.Project, error)
	UpdateProject(ctx context.Context, id string, in recruiting.ProjectInput) (*recruiting.Project, error)
	DeleteProject(ctx context.Context, id string) error
	CreateInterview(ctx context.Context, in recruiting.InterviewInput) (*recruiting.Interview, error)
	UpdateInterview(ctx context.Context, id string, in recruiting.InterviewUpdate) (*recruiting.Interview, error)
	SubmitFeedback(ctx context.Context, iv recruiting.Interview, feedback recruiting.InterviewFeedback) (*recruiting.Interview, error)
}

// RefreshHook runs after a collection has been replaced.
type RefreshHook func(kind Kind, snap Snapshot)

// RefreshErrors holds the failures of one RefreshAll round, by collection.
type RefreshErrors map[Kind]error

// Err joins the failures in a stable order, or returns nil.
func (e RefreshErrors) Err() error {
	if len(e) == 0 {
		return nil
	}

	kinds := make([]string, 0, len(e))
	for k := range e {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	errs := make([]error, 0, len(kinds))
	for _, k := range kinds {
		errs = append(errs, fmt.Errorf("%s: %w", k, e[Kind(k)]))
	}
	return errors.Join(errs...)
}

// Store keeps the four collections synchronized with the backend.
type Store struct {
	backend  Backend
	logger   *zap.Logger
	interval time.Duration
	metrics  *Metrics
	now      func() time.Time

	mu      sync.RWMutex
	data    Snapshot
	applied map[Kind]uint64
	stopped bool
	hooks   []RefreshHook

	issued atomic.Uint64
	group  singleflight.Group

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInterval sets the polling period. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		logger:   zap.NewNop(),
		interval: DefaultInterval,
		now:      time.Now,
		data:     Snapshot{UpdatedAt: map[Kind]time.Time{}},
		applied:  map[Kind]uint64{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Interval() time.Duration {
	return s.interval
}

// OnRefresh registers hook. Hooks run on the goroutine that applied the refresh.
func (s *Store) OnRefresh(hook RefreshHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Snapshot returns a copy of the current collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// Start loads every collection and then polls at the configured interval
// until Stop is called or ctx is done.
func (s *Store) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.isStopped() {
		return ErrStopped
	}
	if s.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("starting collection polling", zap.Duration("interval", s.interval))

	go s.poll(ctx)
	return nil
}

func (s *Store) poll(ctx context.Context) {
	defer close(s.done)

	s.RefreshAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshAll(ctx)
		}
	}
}

// Stop ends polling and waits for the poller to exit. Responses that
// arrive afterwards are discarded. Stop is idempotent.
func (s *Store) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
		s.logger.Info("collection polling stopped")
	}
}

func (s *Store) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

// RefreshAll fetches every collection concurrently. Each one settles on its
// own; a failure leaves that collection as it was.
func (s *Store) RefreshAll(ctx context.Context) RefreshErrors {
	var (
		eg   errgroup.Group
		mu   sync.Mutex
		errs = RefreshErrors{}
	)

	for _, kind := range Kinds {
		eg.Go(func() error {
			if err := s.refresh(ctx, kind, false); err != nil {
				mu.Lock()
				errs[kind] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	if len(errs) > 0 {
		s.logger.Warn("refresh round finished with failures",
			zap.Int("failed", len(errs)),
			zap.Int("total", len(Kinds)),
		)
	}

	return errs
}

// Refresh fetches a single collection.
func (s *Store) Refresh(ctx context.Context, kind Kind) error {
	return s.refresh(ctx, kind, false)
}

// refresh joins an identical in-flight fetch unless fresh is set, in which
// case a new request is issued so the result observes prior writes.
func (s *Store) refresh(ctx context.Context, kind Kind, fresh bool) error {
	if !known(kind) {
		return fmt.Errorf("unknown collection %q", kind)
	}

	key := string(kind)
	if fresh {
		s.group.Forget(key)
	}

	_, err, shared := s.group.Do(key, func() (any, error) {
		return nil, s.fetch(ctx, kind)
	})
	if shared {
		s.logger.Debug("joined in-flight refresh", zap.String("resource", key))
	}

	return err
}

func (s *Store) fetch(ctx context.Context, kind Kind) error {
	seq := s.issued.Add(1)
	started := s.now()

	var (
		n   int
		err error
	)

	switch kind {
	case Projects:
		var items []recruiting.Project
		if items, err = s.backend.ListProjects(ctx); err == nil {
			n = s.apply(kind, seq, func(d *Snapshot) int {
				d.Projects = dedupe(s.logger, kind, items, func(p recruiting.Project) string { return p.ID })
				return len(d.Projects)
			})
		}
	case Candidates:
		var items recruiting.Candidates
		if items, err = s.backend.ListCandidates(ctx); err == nil {
			n = s.apply(kind, seq, func(d *Snapshot) int {
				d.Candidates = dedupe(s.logger, kind, items, func(c recruiting.Candidate) string { return c.ID })
				return len(d.Candidates)
			})
		}
	case Resumes:
		var items []recruiting.Resume
		if items, err = s.backend.ListResumes(ctx); err == nil {
			n = s.apply(kind, seq, func(d *Snapshot) int {
				d.Resumes = dedupe(s.logger, kind, items, func(r recruiting.Resume) string { return r.ID })
				return len(d.Resumes)
			})
		}
	case Interviews:
		var items []recruiting.Interview
		if items, err = s.backend.ListInterviews(ctx); err == nil {
			n = s.apply(kind, seq, func(d *Snapshot) int {
				d.Interviews = dedupe(s.logger, kind, items, func(iv recruiting.Interview) string { return iv.ID })
				return len(d.Interviews)
			})
		}
	}

	s.metrics.observeRefresh(kind, started, err)

	if err != nil {
		if s.isStopped() && errors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Error("failed to refresh collection",
			zap.String("resource", string(kind)),
			zap.String("reason", recruiting.UserMessage(err)),
			zap.Error(err),
		)
		return err
	}

	if n >= 0 {
		s.logger.Debug("collection refreshed", zap.String("resource", string(kind)), zap.Int("count", n))
	}
	return nil
}

// apply replaces one collection unless the store is stopped or a response
// issued later has already been applied. It returns the new size, or -1
// when the response was discarded.
func (s *Store) apply(kind Kind, seq uint64, replace func(*Snapshot) int) int {
	s.mu.Lock()

	if s.stopped {
		s.mu.Unlock()
		return -1
	}

	if seq <= s.applied[kind] {
		s.mu.Unlock()
		s.logger.Debug("dropping stale response",
			zap.String("resource", string(kind)),
			zap.Uint64("seq", seq),
		)
		return -1
	}

	n := replace(&s.data)
	s.applied[kind] = seq
	s.data.UpdatedAt[kind] = s.now()

	hooks := slices.Clone(s.hooks)
	snap := s.data.clone()
	s.mu.Unlock()

	s.metrics.setSize(kind, n)

	for _, hook := range hooks {
		hook(kind, snap)
	}

	return n
}

// dedupe keeps the first record for each id.
func dedupe[T any](logger *zap.Logger, kind Kind, items []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	var dups []string

	for _, item := range items {
		key := id(item)
		if _, ok := seen[key]; ok {
			dups = append(dups, key)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}

	if len(dups) > 0 {
		logger.Warn("dropped duplicate records",
			zap.String("resource", string(kind)),
			zap.String("ids", strings.Join(dups, ",")),
		)
	}

	return out
}

func known(kind Kind) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
