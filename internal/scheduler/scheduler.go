// Package scheduler runs a fixed pool of OS-thread workers that round-robin
// across a mailbox.Registry, giving each resident actor one timeslice of VM
// work per visit (spec §5, "Scheduling model"). The teacher has no
// concurrency of its own to generalize -- navi's actor model has no
// counterpart in a single-threaded bytecode VM -- so this package is
// grounded on the wider example pack's actor-pool shape (Roasbeef-substrate's
// internal/actorutil.Pool: a fixed worker count, round-robin dispatch, a
// WaitGroup-style join on shutdown) with golang.org/x/sync/errgroup standing
// in for the hand-rolled WaitGroup-plus-error-channel that pool.go uses.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kristofer/navi/internal/mailbox"
	"github.com/kristofer/navi/internal/vm"
)

// Scheduler is a pool of worker goroutines, each acting as one of spec §5's
// "OS threads": it repeatedly picks the next mailbox in round-robin order,
// acquires that mailbox's lock for one timeslice (mailbox.Mailbox.Step
// enforces this internally), and moves on. Within a single Object all
// execution stays single-threaded cooperative, since Step serializes on the
// mailbox's own exclusive-execution lock.
type Scheduler struct {
	reg     *mailbox.Registry
	workers int
	limit   vm.Limit
	logger  *slog.Logger

	// idle is how long a worker sleeps after a pass over every known
	// mailbox finds nothing to do, so an empty actor pool doesn't spin.
	idle time.Duration

	cursor atomic.Uint64
}

// Config configures a Scheduler.
type Config struct {
	Workers int           // OS-thread worker count; <= 0 means 1.
	Limit   vm.Limit      // per-timeslice instruction budget handed to every Step.
	Idle    time.Duration // backoff when a full pass finds no runnable work; <= 0 means 1ms.
	Logger  *slog.Logger
}

// New builds a Scheduler over reg. reg may still be empty; mailboxes can be
// registered before or after Run starts (spec's `spawn` primitive registers
// new actors at any time).
func New(reg *mailbox.Registry, cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Idle <= 0 {
		cfg.Idle = time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		reg:     reg,
		workers: cfg.Workers,
		limit:   cfg.Limit,
		logger:  cfg.Logger,
		idle:    cfg.Idle,
	}
}

// Run launches the worker pool and blocks until ctx is canceled, returning
// ctx's error. A resumable Step error (WaitReply, TimeLimit) leaves the
// invocation parked for a later step and is not logged; any other Step error
// is logged and the worker moves on -- per spec's "Cancellation and
// timeouts", neither a timed-out nor an erroring actor is treated as a
// scheduler failure.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		worker := i
		g.Go(func() error {
			return s.workerLoop(ctx, worker)
		})
	}
	return g.Wait()
}

func (s *Scheduler) workerLoop(ctx context.Context, worker int) error {
	log := s.logger.With("worker", worker)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ids := s.reg.IDs()
		if len(ids) == 0 {
			if !sleepOrDone(ctx, s.idle) {
				return ctx.Err()
			}
			continue
		}

		idx := s.cursor.Add(1) - 1
		id := ids[int(idx%uint64(len(ids)))]
		mb, ok := s.reg.Lookup(id)
		if !ok {
			continue
		}

		if err := mb.Step(s.reg, s.limit); err != nil {
			if isResumable(err) {
				continue
			}
			log.Error("actor step failed", "mailbox", id, "err", err)
			continue
		}
	}
}

// isResumable reports whether err is the kind of per-actor exception that
// leaves the actor parked for a later retry (spec §5, "Cancellation and
// timeouts": WaitReply and TimeLimit are not failures, just not-yet).
func isResumable(err error) bool {
	exc, ok := err.(*vm.Exception)
	return ok && exc.Resumable()
}

// sleepOrDone waits for d or ctx cancellation, whichever comes first,
// reporting which one woke it.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
