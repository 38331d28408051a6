// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/wakepoint/internal/adapters/http/api"
	"github.com/okian/wakepoint/internal/adapters/mq/queue"
	"github.com/okian/wakepoint/internal/adapters/mq/worker"
	"github.com/okian/wakepoint/internal/adapters/repository"
	"github.com/okian/wakepoint/internal/domain/dedupe"
	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/internal/domain/params"
	"github.com/okian/wakepoint/internal/engine"
	"github.com/okian/wakepoint/pkg/logger"
	"github.com/okian/wakepoint/pkg/metrics"
)

// ErrNotStarted is returned by operations that need a running service.
var ErrNotStarted = errors.New("service not started")

const interruptedReason = "analysis interrupted by a restart"

// Service implements the API dependencies for race analysis.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	moments   *repository.RankIndex
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	engine    *engine.Engine
	pool      *worker.Pool
	scheduler *cron.Cron

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	sqlitePath        string
	sensitivity       float64
	level             params.Level
	retention         time.Duration
	retentionSchedule string
	now               func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU(),
		queueSize:         1024,
		dedupeSize:        50_000,
		sensitivity:       params.DefaultSensitivity,
		level:             params.Advanced,
		retentionSchedule: "@every 1h",
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, restores the moment ranking and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting wakepoint service...")

	store, err := s.openStore(ctx)
	if err != nil {
		return err
	}
	s.store = store
	s.moments = repository.NewRankIndex()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	if err := s.restore(ctx); err != nil {
		_ = store.Close()
		return err
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.engine = engine.New(
		engine.WithLogger(s.logger.Named("engine")),
		engine.WithSensitivity(s.sensitivity),
		engine.WithLevel(s.level),
	)

	// Workers outlive the start context and drain the queue on Stop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, s.engine, s.store, s.moments,
		worker.WithLogger(s.logger.Named("worker")),
		worker.WithClock(s.now),
	)
	s.pool.Start(runCtx)

	if s.retention > 0 {
		s.scheduler = cron.New()
		if _, err := s.scheduler.AddFunc(s.retentionSchedule, func() { s.sweep(runCtx) }); err != nil {
			cancel()
			_ = s.pool.Shutdown(ctx)
			_ = store.Close()
			return fmt.Errorf("schedule retention %q: %w", s.retentionSchedule, err)
		}
		s.scheduler.Start()
	}

	s.started = true
	s.logger.Info(ctx, "wakepoint service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("level", string(s.level)),
		logger.Float64("sensitivity", s.sensitivity),
		logger.Bool("sqlite", s.sqlitePath != ""),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	if s.sqlitePath == "" {
		s.logger.Info(ctx, "using in-memory store")
		return repository.NewMemoryStore(), nil
	}
	st, err := repository.OpenSQLite(ctx, s.sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.logger.Info(ctx, "using sqlite store", logger.String("path", s.sqlitePath))
	return st, nil
}

// restore re-ranks stored analyses and marks the ids as seen. Analyses left
// pending by a previous run are stored as failed.
func (s *Service) restore(ctx context.Context) error {
	stored, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("restore analyses: %w", err)
	}
	var ranked, interrupted int
	for _, a := range stored {
		s.deduper.SeenAndRecord(ctx, a.ID)
		switch a.Status {
		case model.AnalysisDone:
			if a.Result != nil {
				s.moments.Put(ctx, a.ID, a.Result.HighImpactPoints)
				ranked++
			}
		case model.AnalysisPending:
			at := s.now().UTC()
			a.Status = model.AnalysisFailed
			a.CompletedAt = &at
			a.Result = &model.Result{
				Status:      model.StatusError,
				Error:       interruptedReason,
				Summary:     "Analysis failed: " + interruptedReason + ".",
				GeneratedAt: at,
			}
			if err := s.store.Save(ctx, a); err != nil {
				return fmt.Errorf("restore analysis %s: %w", a.ID, err)
			}
			interrupted++
		}
	}
	if len(stored) > 0 {
		s.logger.Info(ctx, "restored analyses",
			logger.Int("stored", len(stored)),
			logger.Int("ranked", ranked),
			logger.Int("interrupted", interrupted),
		)
	}
	return nil
}

// Stop drains the queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping wakepoint service...")

	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "failed to close store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "wakepoint service stopped")
}

// SeenAndRecord atomically checks if an analysis id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes an analysis id from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue stores the job as a pending analysis and queues it. The pending
// record is removed again when the queue rejects the job.
func (s *Service) Enqueue(ctx context.Context, j model.Job) bool { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}

	pending := model.Analysis{ID: j.AnalysisID, Status: model.AnalysisPending, SubmittedAt: j.SubmittedAt}
	if err := s.store.Save(ctx, pending); err != nil {
		s.logger.Error(ctx, "failed to store pending analysis",
			logger.String("analysis_id", j.AnalysisID),
			logger.Error(err),
		)
		return false
	}
	if !s.queue.Enqueue(ctx, j) {
		if err := s.store.Delete(ctx, j.AnalysisID); err != nil {
			s.logger.Warn(ctx, "failed to drop rejected analysis",
				logger.String("analysis_id", j.AnalysisID),
				logger.Error(err),
			)
		}
		return false
	}
	s.logger.Debug(ctx, "analysis queued",
		logger.String("analysis_id", j.AnalysisID),
		logger.Int("samples", len(j.Track)),
	)
	return true
}

// Analysis returns a stored analysis. Unknown ids wrap api.ErrNotFound.
func (s *Service) Analysis(ctx context.Context, id string) (model.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Analysis{}, ErrNotStarted
	}
	a, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Analysis{}, fmt.Errorf("analysis %s: %w", id, api.ErrNotFound)
	}
	return a, err
}

// TopMoments returns the n highest-impact moments across stored analyses.
func (s *Service) TopMoments(ctx context.Context, n int) ([]model.Moment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.moments.TopN(ctx, n)
}

// SweepRetention removes analyses older than the retention window together
// with their ranked moments and returns how many analyses were removed.
func (s *Service) SweepRetention(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return 0, ErrNotStarted
	}
	if s.retention <= 0 {
		return 0, nil
	}
	ids, err := s.store.DeleteOlderThan(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	var dropped int
	for _, id := range ids {
		dropped += s.moments.Remove(ctx, id)
		s.deduper.Unrecord(ctx, id)
	}
	metrics.RecordRetentionDeletions(len(ids))
	if len(ids) > 0 {
		s.logger.Info(ctx, "retention sweep",
			logger.Int("analyses", len(ids)),
			logger.Int("moments", dropped),
		)
	}
	return len(ids), nil
}

func (s *Service) sweep(ctx context.Context) {
	if _, err := s.SweepRetention(ctx); err != nil {
		s.logger.Error(ctx, "retention sweep failed", logger.Error(err))
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"level":       string(s.level),
		"sensitivity": s.sensitivity,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["queueCapacity"] = s.queue.Cap()
	stats["workerCount"] = s.pool.Size()
	stats["processed"] = s.pool.Processed()
	stats["failed"] = s.pool.Failed()
	stats["moments"] = s.moments.Count(ctx)
	stats["seenIDs"] = s.deduper.Size()
	if n, err := s.store.Count(ctx); err == nil {
		stats["storedAnalyses"] = n
		metrics.UpdateStoredAnalyses(n)
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}
