package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/siegeboard/internal/adapters/cache"
	"github.com/okian/siegeboard/internal/adapters/mq/queue"
	"github.com/okian/siegeboard/internal/adapters/mq/worker"
	"github.com/okian/siegeboard/internal/domain/model"
	"github.com/okian/siegeboard/pkg/logger"
)

// Preload warms the cache: the shared dataset when absent, then every
// ranking whose all-years entry is absent. It returns once every job has
// finished; failures are joined into the returned error and never cached.
func (s *Service) Preload(ctx context.Context) error {
	jobs := s.pendingJobs()
	if len(jobs) == 0 {
		return nil
	}
	s.logger.Info(ctx, "preloading", logger.Int("jobs", len(jobs)))

	start := time.Now()
	var err error
	if p := s.preloader.Load(); p != nil {
		err = p.submit(ctx, jobs)
	} else {
		err = s.runInline(ctx, jobs)
	}
	s.logger.Info(ctx, "preload finished", logger.Duration("took", time.Since(start)), logger.Bool("ok", err == nil))
	return err
}

func (s *Service) pendingJobs() []model.PreloadJob {
	now := time.Now()
	var jobs []model.PreloadJob
	if !s.cache.Has(cache.SharedDataKey) {
		jobs = append(jobs, model.PreloadJob{Kind: model.JobShared, EnqueuedAt: now})
	}
	for _, r := range s.rankings {
		if !s.cache.Has(cache.Key(r.Name(), 0)) {
			jobs = append(jobs, model.PreloadJob{Kind: model.JobRanking, Ranking: r.Name(), EnqueuedAt: now})
		}
	}
	return jobs
}

func (s *Service) runInline(ctx context.Context, jobs []model.PreloadJob) error {
	var errs []error
	for _, j := range jobs {
		if err := s.runJob(ctx, j); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) runJob(ctx context.Context, j model.PreloadJob) error {
	switch j.Kind {
	case model.JobShared:
		_, err := s.Shared(ctx)
		return err
	case model.JobRanking:
		r, err := s.Lookup(j.Ranking)
		if err != nil {
			return err
		}
		_, err = s.Result(ctx, r)
		return err
	default:
		return fmt.Errorf("unknown preload job kind %q", j.Kind)
	}
}

type batch struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func (b *batch) finish(err error) {
	if err != nil {
		b.mu.Lock()
		b.errs = append(b.errs, err)
		b.mu.Unlock()
	}
	b.wg.Done()
}

// preloader feeds jobs through the queue to the worker pool.
type preloader struct {
	svc   *Service
	queue *queue.InMemoryQueue
	pool  *worker.Pool

	mu      sync.Mutex
	batches map[string]*batch

	logger logger.Logger
}

func newPreloader(s *Service, workers int, l logger.Logger) *preloader {
	p := &preloader{
		svc:     s,
		queue:   queue.NewInMemoryQueue(queue.WithCapacity(4 * (len(s.rankings) + 1))),
		batches: make(map[string]*batch),
		logger:  l.Named("preload"),
	}
	p.pool = worker.NewPool(workers, p.queue, p, l)
	return p
}

func (p *preloader) start(ctx context.Context) { p.pool.Start(ctx) }

func (p *preloader) stop(ctx context.Context) {
	if err := p.pool.Shutdown(ctx); err != nil {
		p.logger.Warn(ctx, "preload pool shutdown", logger.Error(err))
	}
}

// Handle implements worker.Handler.
func (p *preloader) Handle(ctx context.Context, j worker.Job) error {
	err := p.svc.runJob(ctx, j)

	p.mu.Lock()
	b := p.batches[j.Batch]
	p.mu.Unlock()
	if b != nil {
		b.finish(err)
	}
	return err
}

func (p *preloader) submit(ctx context.Context, jobs []model.PreloadJob) error {
	id := uuid.NewString()
	b := &batch{}
	b.wg.Add(len(jobs))

	p.mu.Lock()
	p.batches[id] = b
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.batches, id)
		p.mu.Unlock()
	}()

	for _, j := range jobs {
		j.Batch = id
		if err := p.queue.Enqueue(ctx, j); err != nil {
			b.finish(fmt.Errorf("enqueue %s %q: %w", j.Kind, j.Ranking, err))
		}
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.errs...)
}
