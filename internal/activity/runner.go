package activity

import (
	"context"
	"errors"
	"time"
)

// ErrRunnerClosed is returned when the runner loop has exited.
var ErrRunnerClosed = errors.New("runner closed")

// LocationProvider is the device side source of fixes. The runner asks it to
// start and stop delivering as the session changes state.
type LocationProvider interface {
	RequestStart()
	RequestStop()
}

type command struct {
	fn    func(*Session) error
	reply chan error

	// readOnly commands do not trigger notify.
	readOnly bool
}

// Runner owns a Session and applies fixes, step totals, ticks and lifecycle
// commands to it from a single goroutine, in the order they are received.
type Runner struct {
	session  *Session
	provider LocationProvider
	notify   func(Snapshot)

	ticks <-chan time.Time
	fixes chan LocationFix
	steps chan int
	cmds  chan command
	done  chan struct{}
}

type RunnerOption func(*Runner)

func WithProvider(p LocationProvider) RunnerOption {
	return func(r *Runner) { r.provider = p }
}

// WithNotify registers a callback invoked on the runner goroutine after every
// change to the session.
func WithNotify(fn func(Snapshot)) RunnerOption {
	return func(r *Runner) { r.notify = fn }
}

func NewRunner(session *Session, ticks <-chan time.Time, opts ...RunnerOption) *Runner {
	r := &Runner{
		session: session,
		ticks:   ticks,
		fixes:   make(chan LocationFix),
		steps:   make(chan int),
		cmds:    make(chan command),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run consumes inputs until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ticks:
			if r.session.Tick() {
				r.changed()
			}
		case fix := <-r.fixes:
			switch r.session.HandleFix(fix) {
			case OutcomeStationary, OutcomeAnchored, OutcomeAdded:
				r.changed()
			}
		case total := <-r.steps:
			if r.session.UpdateSteps(total) {
				r.changed()
			}
		case cmd := <-r.cmds:
			err := cmd.fn(r.session)
			if err == nil && !cmd.readOnly {
				r.changed()
			}
			cmd.reply <- err
		}
	}
}

// Done is closed once Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) PushFix(ctx context.Context, fix LocationFix) error {
	select {
	case r.fixes <- fix:
		return nil
	case <-r.done:
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) PushSteps(ctx context.Context, total int) error {
	select {
	case r.steps <- total:
		return nil
	case <-r.done:
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the runner goroutine and waits for it to finish.
func (r *Runner) Do(ctx context.Context, fn func(*Session) error) error {
	return r.exec(ctx, command{fn: fn, reply: make(chan error, 1)})
}

func (r *Runner) exec(ctx context.Context, cmd command) error {
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-cmd.reply
}

func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.exec(ctx, command{
		fn: func(s *Session) error {
			snap = s.Snapshot()
			return nil
		},
		reply:    make(chan error, 1),
		readOnly: true,
	})
	return snap, err
}

func (r *Runner) Start(ctx context.Context, activityType string, weightKg float64) error {
	return r.Do(ctx, func(s *Session) error {
		if err := s.Start(activityType, weightKg); err != nil {
			return err
		}
		r.request(true)
		return nil
	})
}

func (r *Runner) Pause(ctx context.Context) error {
	return r.Do(ctx, func(s *Session) error {
		if err := s.Pause(); err != nil {
			return err
		}
		r.request(false)
		return nil
	})
}

func (r *Runner) Resume(ctx context.Context) error {
	return r.Do(ctx, func(s *Session) error {
		if err := s.Resume(); err != nil {
			return err
		}
		r.request(true)
		return nil
	})
}

func (r *Runner) Stop(ctx context.Context) (Record, bool, error) {
	var (
		rec  Record
		keep bool
	)
	err := r.Do(ctx, func(s *Session) error {
		var err error
		if rec, keep, err = s.Stop(); err != nil {
			return err
		}
		r.request(false)
		return nil
	})
	return rec, keep, err
}

// request tells the provider to start or stop delivering fixes. It runs on
// the runner goroutine before observers are notified.
func (r *Runner) request(start bool) {
	switch {
	case r.provider == nil:
	case start:
		r.provider.RequestStart()
	default:
		r.provider.RequestStop()
	}
}

func (r *Runner) changed() {
	if r.notify != nil {
		r.notify(r.session.Snapshot())
	}
}
