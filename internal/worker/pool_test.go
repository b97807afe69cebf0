package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type countingJob struct {
	id   string
	err  error
	runs *atomic.Int32
	done chan struct{}
}

func (j *countingJob) ID() string { return j.id }

func (j *countingJob) Execute(context.Context) error {
	j.runs.Add(1)
	if j.done != nil {
		close(j.done)
	}
	return j.err
}

func testDispatcher(t *testing.T, workers, queue int) *Dispatcher {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	d := NewDispatcher(workers, queue, log)
	d.Run()
	t.Cleanup(d.Stop)
	return d
}

func waitForState(t *testing.T, d *Dispatcher, jobID string, want JobState) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if status, ok := d.Status(jobID); ok && status.State == want {
			return
		}
		select {
		case <-deadline:
			status, _ := d.Status(jobID)
			t.Fatalf("job %s never reached %s, last state %+v", jobID, want, status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatcher_RunsSubmittedJobs(t *testing.T) {
	d := testDispatcher(t, 2, 10)

	var runs atomic.Int32
	for _, id := range []string{"a", "b", "c"} {
		job := &countingJob{id: id, runs: &runs}
		if err := d.Submit(job); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}

	for _, id := range []string{"a", "b", "c"} {
		waitForState(t, d, id, JobCompleted)
	}
	if got := runs.Load(); got != 3 {
		t.Fatalf("expected 3 executions, got %d", got)
	}
}

func TestDispatcher_RecordsFailure(t *testing.T) {
	d := testDispatcher(t, 1, 10)

	var runs atomic.Int32
	job := &countingJob{id: "boom", runs: &runs, err: errors.New("stage exploded")}
	if err := d.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitForState(t, d, "boom", JobFailed)
	status, _ := d.Status("boom")
	if status.Error != "stage exploded" {
		t.Fatalf("expected failure message recorded, got %q", status.Error)
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	// Not started: nothing drains the queue.
	d := NewDispatcher(1, 1, log)

	var runs atomic.Int32
	if err := d.Submit(&countingJob{id: "first", runs: &runs}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := d.Submit(&countingJob{id: "second", runs: &runs}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var inCritical, maxInCritical int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("clip|smart")
			defer km.Unlock("clip|smart")
			n := atomic.AddInt32(&inCritical, 1)
			if n > atomic.LoadInt32(&maxInCritical) {
				atomic.StoreInt32(&maxInCritical, n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inCritical, -1)
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Fatalf("expected exclusive access per key, saw %d holders", maxInCritical)
	}
}

func TestKeyedMutex_IndependentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	km.Lock("clip-a|smart")
	defer km.Unlock("clip-a|smart")

	done := make(chan struct{})
	go func() {
		km.Lock("clip-b|smart")
		km.Unlock("clip-b|smart")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different key blocked behind held lock")
	}
}
