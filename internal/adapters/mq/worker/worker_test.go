package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/siegeboard/internal/adapters/mq/queue"
	worker "github.com/okian/siegeboard/internal/adapters/mq/worker"
	model "github.com/okian/siegeboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type recordingHandler struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]error
	panic map[string]bool
	done  chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		fail:  map[string]error{},
		panic: map[string]bool{},
		done:  make(chan string, 16),
	}
}

func (h *recordingHandler) Handle(ctx context.Context, j worker.Job) error {
	defer func() { h.done <- j.Ranking }()
	h.mu.Lock()
	h.seen = append(h.seen, j.Ranking)
	failErr, shouldPanic := h.fail[j.Ranking], h.panic[j.Ranking]
	h.mu.Unlock()
	if shouldPanic {
		panic("boom")
	}
	return failErr
}

func (h *recordingHandler) wait(n int) []string {
	var got []string
	timeout := time.After(time.Second)
	for len(got) < n {
		select {
		case r := <-h.done:
			got = append(got, r)
		case <-timeout:
			return got
		}
	}
	return got
}

func rankingJob(name string) worker.Job {
	return worker.Job{Kind: model.JobRanking, Ranking: name, EnqueuedAt: time.Now()}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		h := newRecordingHandler()
		w := worker.NewInMemoryWorker(q, h, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		convey.Reset(func() { cancel() })

		convey.Convey("When jobs are queued", func() {
			convey.So(q.Enqueue(ctx, rankingJob("a")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, rankingJob("b")), convey.ShouldBeNil)

			convey.Convey("Then they are handled in order", func() {
				convey.So(h.wait(2), convey.ShouldResemble, []string{"a", "b"})
			})
		})

		convey.Convey("When a job fails or panics", func() {
			h.fail["bad"] = errors.New("collection failed")
			h.panic["worse"] = true
			convey.So(q.Enqueue(ctx, rankingJob("bad")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, rankingJob("worse")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, rankingJob("good")), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(h.wait(3), convey.ShouldResemble, []string{"bad", "worse", "good"})
			})
		})

		convey.Convey("When shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly and a second call is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		q := queue.NewInMemoryQueue()
		h := newRecordingHandler()
		pool := worker.NewPool(3, q, h, nil)
		ctx := context.Background()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When four jobs are queued", func() {
			for _, name := range []string{"w", "x", "y", "z"} {
				convey.So(q.Enqueue(ctx, rankingJob(name)), convey.ShouldBeNil)
			}

			convey.Convey("Then every job is handled once", func() {
				convey.So(h.wait(4), convey.ShouldHaveLength, 4)
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When stopped", func() {
			pool.Stop()

			convey.Convey("Then the queue stays open for reuse", func() {
				convey.So(q.IsClosed(), convey.ShouldBeFalse)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), worker.HandlerFunc(func(context.Context, worker.Job) error { return nil }), nil)

		convey.Convey("Then at least one worker is created", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}
