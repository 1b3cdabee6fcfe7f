package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/logging"
	"github.com/richhaase/agentic-site-builder/internal/orchestrator"
)

// ErrInvalidRequest wraps submission validation failures.
var ErrInvalidRequest = errors.New("invalid job request")

// ErrClosed is returned by Submit once the workers have stopped.
var ErrClosed = errors.New("queue is not accepting jobs")

// errRestarted is recorded for jobs that were running when the process died.
const errRestarted = "interrupted: server restarted while the job was running"

// Runner executes a job. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, job orchestrator.Job) (*domain.JobResult, error)
}

// Options configures a Queue.
type Options struct {
	// Workers is the number of jobs run concurrently. Values below 1 mean 1.
	Workers int
	// Buffer is the number of ids held in memory ahead of the workers.
	Buffer int
	Logger *slog.Logger
	// NewID generates task ids. Defaults to random UUIDs.
	NewID func() string
	Now   func() time.Time
}

// Queue accepts job submissions and runs them in the background.
type Queue struct {
	store  Store
	runner Runner
	opts   Options
	logger *slog.Logger

	ids chan string
	wg  sync.WaitGroup

	// mu serializes read-modify-write cycles on stored records.
	mu sync.Mutex

	stateMu sync.Mutex
	running bool
	done    chan struct{}
}

// New returns a Queue over store. Call Start before submitting.
func New(store Store, runner Runner, opts Options) *Queue {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Buffer < 1 {
		opts.Buffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Queue{
		store:  store,
		runner: runner,
		opts:   opts,
		logger: opts.Logger,
		ids:    make(chan string, opts.Buffer),
		done:   make(chan struct{}),
	}
}

// Start recovers unfinished jobs and launches the workers. Workers stop when
// ctx is cancelled; Wait blocks until they have.
func (q *Queue) Start(ctx context.Context) error {
	q.stateMu.Lock()
	if q.running {
		q.stateMu.Unlock()
		return errors.New("queue already started")
	}
	q.running = true
	q.stateMu.Unlock()

	pending, err := q.recover(ctx)
	if err != nil {
		return err
	}

	for i := range q.opts.Workers {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		<-ctx.Done()
		q.stateMu.Lock()
		q.running = false
		close(q.done)
		q.stateMu.Unlock()
	}()

	for _, id := range pending {
		if err := q.enqueue(ctx, id); err != nil {
			return err
		}
	}
	q.logger.Info("queue started", "workers", q.opts.Workers, "recovered", len(pending))
	return nil
}

// Wait blocks until every worker has exited and the queue stopped accepting jobs.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// recover fails jobs left in progress by a previous process and returns the
// ids of pending jobs in creation order.
func (q *Queue) recover(ctx context.Context) ([]string, error) {
	records, err := q.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("recover jobs: %w", err)
	}
	var pending []*Record
	for _, rec := range records {
		switch rec.Status {
		case domain.StatusPending:
			pending = append(pending, rec)
		case domain.StatusInProgress:
			rec.Status = domain.StatusFailed
			rec.Error = errRestarted
			rec.StatusText = ""
			rec.UpdatedAt = q.opts.Now()
			if err := q.store.Put(ctx, rec); err != nil {
				return nil, fmt.Errorf("recover job %s: %w", rec.ID, err)
			}
			q.logger.Warn("job interrupted by restart", "task_id", rec.ID)
		}
	}
	sortByCreation(pending)
	ids := make([]string, len(pending))
	for i, rec := range pending {
		ids[i] = rec.ID
	}
	return ids, nil
}

// Submit validates req, persists it as pending and hands it to a worker.
func (q *Queue) Submit(ctx context.Context, req domain.JobRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	q.stateMu.Lock()
	running := q.running
	q.stateMu.Unlock()
	if !running {
		return nil, ErrClosed
	}

	now := q.opts.Now()
	rec := &Record{
		ID:        q.opts.NewID(),
		Request:   req,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}
	if err := q.enqueue(ctx, rec.ID); err != nil {
		return nil, err
	}
	q.logger.Info("job submitted", "task_id", rec.ID, "site", req.SiteName())
	return rec, nil
}

func (q *Queue) enqueue(ctx context.Context, id string) error {
	select {
	case q.ids <- id:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current record for id.
func (q *Queue) Status(ctx context.Context, id string) (*Record, error) {
	return q.store.Get(ctx, id)
}

func (q *Queue) worker(ctx context.Context, n int) {
	defer q.wg.Done()
	logger := q.logger.With("worker", n)
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.ids:
			q.process(ctx, id, logger)
		}
	}
}

func (q *Queue) process(ctx context.Context, id string, logger *slog.Logger) {
	// Record updates outlive cancellation so a shutdown still lands a
	// terminal status.
	storeCtx := context.WithoutCancel(ctx)

	rec, err := q.update(storeCtx, id, func(r *Record) {
		r.Status = domain.StatusInProgress
		r.StatusText = "starting"
	})
	if err != nil {
		logger.Error("job could not be started", "task_id", id, "error", err)
		return
	}

	res, runErr := q.runner.Run(ctx, orchestrator.Job{
		TaskID:  id,
		Request: rec.Request,
		Progress: func(_ orchestrator.State, status string) {
			if _, err := q.update(storeCtx, id, func(r *Record) { r.StatusText = status }); err != nil {
				logger.Warn("progress update failed", "task_id", id, "error", err)
			}
		},
	})

	_, err = q.update(storeCtx, id, func(r *Record) {
		r.StatusText = ""
		r.Result = res
		switch {
		case res == nil:
			r.Status = domain.StatusFailed
			r.Error = errorText(runErr, "job produced no result")
		case runErr != nil && !res.Status.IsTerminal():
			r.Status = domain.StatusFailed
			r.Error = runErr.Error()
		case res.Status == domain.StatusFailed:
			r.Status = domain.StatusFailed
			r.Error = res.Reason
			if r.Error == "" {
				r.Error = errorText(runErr, "job failed")
			}
		default:
			r.Status = res.Status
		}
	})
	if err != nil {
		logger.Error("job result could not be stored", "task_id", id, "error", err)
	}
}

// update applies fn to the stored record and writes it back.
func (q *Queue) update(ctx context.Context, id string, fn func(*Record)) (*Record, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	rec, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(rec)
	rec.UpdatedAt = q.opts.Now()
	if err := q.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func sortByCreation(records []*Record) {
	slices.SortStableFunc(records, func(a, b *Record) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func errorText(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
