package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testovik/testovik-backend/internal/config"
	"github.com/testovik/testovik-backend/internal/model"
	"github.com/testovik/testovik-backend/internal/service"
)

type fakeGenerator struct {
	mu        sync.Mutex
	processed []int64
	rejectErr error
	outcome   service.ReportOutcome
	done      chan struct{} // closed after the first id is handled
	once      sync.Once
}

func newFakeGenerator() *fakeGenerator {
	rep := &model.Report{ID: 1, Status: model.ReportStatusFinished}
	return &fakeGenerator{
		outcome: service.ReportOutcome{Report: rep},
		done:    make(chan struct{}),
	}
}

func (f *fakeGenerator) GenerateAsync(_ context.Context, id int64) (<-chan service.ReportOutcome, error) {
	f.mu.Lock()
	f.processed = append(f.processed, id)
	f.mu.Unlock()
	defer f.once.Do(func() { close(f.done) })

	if f.rejectErr != nil {
		return nil, f.rejectErr
	}
	ch := make(chan service.ReportOutcome, 1)
	ch <- f.outcome
	return ch, nil
}

func (f *fakeGenerator) seen() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.processed...)
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestReportWorkerDrainsQueue(t *testing.T) {
	rdb := newTestRedis(t)
	gen := newFakeGenerator()
	w := NewReportWorker(gen, rdb, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.RPush(ctx, config.WorkerKey.GenerateReportsQueue, "42").Err(); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	workerDone := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(workerDone)
	}()

	select {
	case <-gen.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never picked up the queued report")
	}
	cancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}

	seen := gen.seen()
	if len(seen) != 1 || seen[0] != 42 {
		t.Fatalf("processed ids = %v, want [42]", seen)
	}

	length, err := rdb.LLen(context.Background(), config.WorkerKey.GenerateReportsQueue).Result()
	if err != nil {
		t.Fatalf("LLen failed: %v", err)
	}
	if length != 0 {
		t.Fatalf("queue not drained, %d items left", length)
	}
}

func TestReportWorkerSkipsGarbagePayload(t *testing.T) {
	rdb := newTestRedis(t)
	gen := newFakeGenerator()
	w := NewReportWorker(gen, rdb, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A garbage entry first, then a valid one: the worker must skip the
	// former and still process the latter.
	if err := rdb.RPush(ctx, config.WorkerKey.GenerateReportsQueue, "not-a-number", "7").Err(); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	workerDone := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(workerDone)
	}()

	select {
	case <-gen.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never processed the valid report")
	}
	cancel()
	<-workerDone

	seen := gen.seen()
	if len(seen) != 1 || seen[0] != 7 {
		t.Fatalf("processed ids = %v, want [7]", seen)
	}
}

func TestReportWorkerSurvivesRejectedReport(t *testing.T) {
	rdb := newTestRedis(t)
	gen := newFakeGenerator()
	gen.rejectErr = errors.New("report not found")
	w := NewReportWorker(gen, rdb, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.RPush(ctx, config.WorkerKey.GenerateReportsQueue, "9").Err(); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	workerDone := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(workerDone)
	}()

	select {
	case <-gen.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never attempted the report")
	}
	cancel()

	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after a rejected report")
	}
}
