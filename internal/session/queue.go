package session

import (
	"context"
	"sync"
)

// request is one queued mutation. Consecutive requests with the same
// non-empty key are coalesced: only the newest runs and the older ones
// receive its result.
type request struct {
	key  string
	ctx  context.Context
	run  func(ctx context.Context) error
	done chan error
}

// queue runs submitted mutations one at a time, in submission order, on a
// single goroutine.
type queue struct {
	store string

	mu      sync.Mutex
	pending []*request
	closed  bool

	wake    chan struct{}
	base    context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

func newQueue(store string) *queue {
	base, cancel := context.WithCancel(context.Background())
	q := &queue{
		store:   store,
		wake:    make(chan struct{}, 1),
		base:    base,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go q.loop()
	return q
}

// submit enqueues run and waits for it to finish. If ctx ends first, submit
// returns ctx.Err(); a request that has not started by then is skipped.
func (q *queue) submit(ctx context.Context, key string, run func(ctx context.Context) error) error {
	r := &request{key: key, ctx: ctx, run: run, done: make(chan error, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrSessionClosed
	}
	q.pending = append(q.pending, r)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case err := <-r.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops the loop and fails every request still queued with
// ErrSessionClosed. A request already running sees its context cancelled.
// close blocks until the loop goroutine has exited.
func (q *queue) close() {
	q.mu.Lock()
	already := q.closed
	q.closed = true
	q.mu.Unlock()

	if !already {
		q.cancel()
	}
	<-q.stopped
}

func (q *queue) take() []*request {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}

func (q *queue) loop() {
	defer close(q.stopped)
	for {
		select {
		case <-q.base.Done():
			for _, r := range q.take() {
				r.done <- ErrSessionClosed
			}
			return
		case <-q.wake:
		}

		for batch := q.take(); len(batch) > 0; batch = q.take() {
			q.drain(batch)
		}
	}
}

func (q *queue) drain(batch []*request) {
	for i := 0; i < len(batch); i++ {
		r := batch[i]
		if err := r.ctx.Err(); err != nil {
			r.done <- err
			continue
		}
		var superseded []*request
		for r.key != "" && i+1 < len(batch) && batch[i+1].key == r.key {
			i++
			next := batch[i]
			if err := next.ctx.Err(); err != nil {
				next.done <- err
				continue
			}
			superseded = append(superseded, r)
			r = next
		}
		if len(superseded) > 0 {
			coalescedTotal.WithLabelValues(q.store).Add(float64(len(superseded)))
		}

		err := q.execute(r)
		r.done <- err
		for _, s := range superseded {
			s.done <- err
		}
	}
}

func (q *queue) execute(r *request) error {
	if q.base.Err() != nil {
		return ErrSessionClosed
	}
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()
	stop := context.AfterFunc(q.base, cancel)
	defer stop()

	return r.run(ctx)
}
