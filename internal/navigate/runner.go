package navigate

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrStopped is returned by Dispatch once the runner has stopped.
var ErrStopped = errors.New("runner stopped")

type request struct {
	msg   Msg
	reply chan Session
}

// Runner drives a Machine from a single goroutine. Intents arrive through
// Send or Dispatch; command results are fed back as they complete.
type Runner struct {
	m       *Machine
	intents chan request
	results chan Msg
	done    chan struct{}
	snap    atomic.Pointer[Session]
}

// NewRunner creates a runner for m. Call Run to start it.
func NewRunner(m *Machine) *Runner {
	r := &Runner{
		m:       m,
		intents: make(chan request),
		results: make(chan Msg, 16),
		done:    make(chan struct{}),
	}
	s := m.Session()
	r.snap.Store(&s)
	return r
}

// Run processes messages until ctx is canceled. The machine's Init commands
// are issued first.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	defer r.m.Close()

	var (
		inflight int
		waiters  []chan Session
	)
	exec := func(cmds []Cmd) {
		for _, cmd := range cmds {
			inflight++
			go func(cmd Cmd) {
				msg := cmd()
				select {
				case r.results <- msg:
				case <-ctx.Done():
				}
			}(cmd)
		}
	}
	publish := func() {
		s := r.m.Session()
		r.snap.Store(&s)
		if inflight > 0 {
			return
		}
		for _, w := range waiters {
			w <- s
		}
		waiters = nil
	}

	exec(r.m.Init())
	publish()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.intents:
			exec(r.m.Update(req.msg))
			if req.reply != nil {
				waiters = append(waiters, req.reply)
			}
			publish()
		case msg := <-r.results:
			inflight--
			if msg != nil {
				exec(r.m.Update(msg))
			}
			publish()
		}
	}
}

// Send queues an intent without waiting for its effects.
func (r *Runner) Send(ctx context.Context, msg Msg) error {
	select {
	case r.intents <- request{msg: msg}:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch applies msg and waits until no request is in flight, then returns
// the resulting session. A nil msg only waits.
func (r *Runner) Dispatch(ctx context.Context, msg Msg) (Session, error) {
	reply := make(chan Session, 1)
	select {
	case r.intents <- request{msg: msg, reply: reply}:
	case <-r.done:
		return Session{}, ErrStopped
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		return Session{}, ErrStopped
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

// Snapshot returns the most recently published session.
func (r *Runner) Snapshot() Session {
	return r.snap.Load().clone()
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
