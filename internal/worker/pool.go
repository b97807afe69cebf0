// Package worker runs pipeline jobs on a fixed pool of goroutines and
// tracks their lifecycle by handle.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is a unit of work. ID returns the opaque handle used to query
// its status.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// ErrQueueFull is returned when the job queue cannot accept another
// submission.
var ErrQueueFull = errors.New("worker: job queue full")

// JobState is the lifecycle of a submitted job.
type JobState string

const (
	JobQueued    JobState = "QUEUED"
	JobRunning   JobState = "RUNNING"
	JobCompleted JobState = "COMPLETED"
	JobFailed    JobState = "FAILED"
)

// JobStatus is a queryable snapshot of one job.
type JobStatus struct {
	ID        string    `json:"id"`
	State     JobState  `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Worker pulls jobs from its own channel after registering it with the
// shared pool.
type worker struct {
	id         int
	workerPool chan chan Job
	jobChannel chan Job
	quit       chan struct{}
}

// Dispatcher manages the pool and the job registry.
type Dispatcher struct {
	maxWorkers int
	workerPool chan chan Job
	jobQueue   chan Job
	workers    []worker
	quit       chan struct{}
	wg         sync.WaitGroup
	log        *logrus.Logger

	mu       sync.RWMutex
	statuses map[string]JobStatus

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewDispatcher sizes the pool and its queue.
func NewDispatcher(maxWorkers, jobQueueSize int, log *logrus.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		maxWorkers: maxWorkers,
		workerPool: make(chan chan Job, maxWorkers),
		jobQueue:   make(chan Job, jobQueueSize),
		quit:       make(chan struct{}),
		log:        log,
		statuses:   make(map[string]JobStatus),
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Run starts the workers and the dispatch loop.
func (d *Dispatcher) Run() {
	d.log.Infof("Dispatcher starting with %d workers", d.maxWorkers)
	for i := 1; i <= d.maxWorkers; i++ {
		w := worker{
			id:         i,
			workerPool: d.workerPool,
			jobChannel: make(chan Job),
			quit:       make(chan struct{}),
		}
		d.workers = append(d.workers, w)
		d.startWorker(w)
	}
	go d.dispatch()
}

func (d *Dispatcher) startWorker(w worker) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			w.workerPool <- w.jobChannel
			select {
			case job := <-w.jobChannel:
				d.setStatus(job.ID(), JobRunning, "")
				d.log.WithFields(logrus.Fields{"worker": w.id, "job": job.ID()}).Info("Job started")
				if err := job.Execute(d.baseCtx); err != nil {
					d.setStatus(job.ID(), JobFailed, err.Error())
					d.log.WithFields(logrus.Fields{"worker": w.id, "job": job.ID()}).WithError(err).Error("Job failed")
				} else {
					d.setStatus(job.ID(), JobCompleted, "")
					d.log.WithFields(logrus.Fields{"worker": w.id, "job": job.ID()}).Info("Job finished")
				}
			case <-w.quit:
				return
			}
		}
	}()
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			go func(job Job) {
				jobChannel := <-d.workerPool
				jobChannel <- job
			}(job)
		case <-d.quit:
			return
		}
	}
}

// Submit enqueues a job without blocking. The caller should surface
// ErrQueueFull to the requester.
func (d *Dispatcher) Submit(job Job) error {
	select {
	case d.jobQueue <- job:
		d.setStatus(job.ID(), JobQueued, "")
		d.log.WithField("job", job.ID()).Info("Job queued")
		return nil
	default:
		return ErrQueueFull
	}
}

// Status reports the last known state of a job handle.
func (d *Dispatcher) Status(jobID string) (JobStatus, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	status, ok := d.statuses[jobID]
	return status, ok
}

func (d *Dispatcher) setStatus(jobID string, state JobState, errMsg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses[jobID] = JobStatus{ID: jobID, State: state, Error: errMsg, UpdatedAt: time.Now()}
}

// Stop cancels running jobs and waits for the workers to drain.
func (d *Dispatcher) Stop() {
	d.log.Info("Dispatcher shutting down")
	close(d.quit)
	for _, w := range d.workers {
		close(w.quit)
	}
	d.cancel()
	d.wg.Wait()
	d.log.Info("Dispatcher stopped")
}
