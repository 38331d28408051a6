// Package worker runs queued analysis jobs through the engine and stores the results.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/wakepoint/internal/adapters/mq/queue"
	"github.com/okian/wakepoint/internal/domain/model"
	"github.com/okian/wakepoint/internal/engine"
	"github.com/okian/wakepoint/pkg/logger"
	"github.com/okian/wakepoint/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Analyzer identifies the key points of one race.
type Analyzer interface {
	IdentifyKeyPoints(ctx context.Context, in engine.Input) model.Result
}

// Saver persists analyses.
type Saver interface {
	Save(ctx context.Context, a model.Analysis) error
}

// Indexer ranks the points of finished analyses.
type Indexer interface {
	Put(ctx context.Context, analysisID string, points []model.Point)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight.
	Shutdown(ctx context.Context) error
}

// Counters are shared by the workers of a pool.
type Counters struct {
	Processed atomic.Int64
	Failed    atomic.Int64
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	saver    Saver
	indexer  Indexer
	name     string
	counters *Counters
	now      func() time.Time

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, analyzer Analyzer, saver Saver, indexer Indexer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		analyzer: analyzer,
		saver:    saver,
		indexer:  indexer,
		name:     "worker",
		counters: &Counters{},
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob analyses one race and stores the outcome. Engine failures are
// stored as failed analyses; only storage errors are returned.
func (w *InMemoryWorker) processJob(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	res := w.analyzer.IdentifyKeyPoints(ctx, engine.Input{
		Track:       j.Track,
		Wind:        j.Wind,
		Competitors: j.Competitors,
		Course:      j.Course,
		Sensitivity: j.Sensitivity,
		Level:       j.AnalysisLevel,
	})

	completed := w.now()
	a := model.Analysis{
		ID:          j.AnalysisID,
		Status:      model.AnalysisDone,
		SubmittedAt: j.SubmittedAt,
		CompletedAt: &completed,
		Result:      &res,
	}
	if res.Status == model.StatusError {
		a.Status = model.AnalysisFailed
		w.counters.Failed.Add(1)
		metrics.RecordAnalysisFailed()
		w.logger.Warn(ctx, "analysis failed",
			logger.String("analysis_id", j.AnalysisID),
			logger.String("reason", res.Error),
		)
	}

	if err := w.saver.Save(ctx, a); err != nil {
		return fmt.Errorf("save analysis %s: %w", j.AnalysisID, err)
	}
	if a.Status == model.AnalysisDone {
		w.indexer.Put(ctx, j.AnalysisID, res.HighImpactPoints)
		w.counters.Processed.Add(1)
		metrics.RecordAnalysisProcessed()
	}

	w.logger.Debug(ctx, "analysis stored",
		logger.String("analysis_id", j.AnalysisID),
		logger.String("status", string(a.Status)),
		logger.Int("points", len(res.HighImpactPoints)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *Counters
	logger   logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, q Queue, analyzer Analyzer, saver Saver, indexer Indexer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		counters: &Counters{},
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		wopts = append(wopts, withCounters(pool.counters))
		pool.workers[i] = NewInMemoryWorker(q, analyzer, saver, indexer, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many analyses completed successfully.
func (p *Pool) Processed() int64 { return p.counters.Processed.Load() }

// Failed returns how many analyses ended in an error result.
func (p *Pool) Failed() int64 { return p.counters.Failed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
