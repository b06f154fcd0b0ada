package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/tracing"
)

var tracer trace.Tracer = tracing.Tracer("github.com/hamadazam9636-png/ECOMMERCE-APP/internal/session")

// options shared by both stores.
type options struct {
	logger   *slog.Logger
	notifier Notifier
}

// Option configures a session and its stores.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNotifier sets where failure notices go. The default logs them.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = LogNotifier{Logger: o.logger}
	}
	return o
}

// subscribers is a set of change callbacks for a view type V.
type subscribers[V any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(V)
}

func (s *subscribers[V]) add(fn func(V)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(V))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers[V]) publish(v V) {
	s.mu.Lock()
	fns := make([]func(V), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// mutation describes one optimistic change run on a store's queue.
type mutation[S any] struct {
	store string
	op    string
	key   string
	// apply changes next in place. changed=false means the target does not
	// exist locally and the mutation is a no-op.
	apply func(next S) (changed bool, err error)
	// call sends the intent to the backend and returns the authoritative state.
	call func(ctx context.Context) (S, error)
}

// optimistic is the state machine shared by CartStore and WishlistStore:
// apply locally, publish, call the backend, then reconcile or roll back.
type optimistic[S any] struct {
	userID string
	opts   options
	q      *queue

	current func() S
	clone   func(S) S
	commit  func(ctx context.Context, s S)
}

func (o *optimistic[S]) run(ctx context.Context, m mutation[S]) error {
	return o.q.submit(ctx, m.key, func(ctx context.Context) error {
		ctx, span := tracer.Start(ctx, m.store+"."+m.op, trace.WithAttributes(
			attribute.String("user.id", o.userID),
		))
		defer span.End()

		err := o.apply(ctx, m)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	})
}

func (o *optimistic[S]) apply(ctx context.Context, m mutation[S]) error {
	log := o.opts.logger.With(slog.String("store", m.store), slog.String("op", m.op), slog.String("user_id", o.userID))

	prev := o.current()
	next := o.clone(prev)

	changed, err := m.apply(next)
	if err != nil {
		mutationsTotal.WithLabelValues(m.store, m.op, outcomeRejected).Inc()
		return o.report(ctx, m.op, err)
	}
	if !changed {
		mutationsTotal.WithLabelValues(m.store, m.op, outcomeNoop).Inc()
		log.DebugContext(ctx, "mutation target not found, nothing to do")
		return nil
	}

	o.commit(ctx, next)

	start := time.Now()
	authoritative, err := m.call(ctx)
	remoteDuration.WithLabelValues(m.store, m.op).Observe(time.Since(start).Seconds())
	if err != nil {
		o.commit(ctx, prev)
		mutationsTotal.WithLabelValues(m.store, m.op, outcomeRolledBack).Inc()
		log.WarnContext(ctx, "mutation rolled back", slog.String("error", err.Error()))
		return o.report(ctx, m.op, err)
	}

	o.commit(ctx, authoritative)
	mutationsTotal.WithLabelValues(m.store, m.op, outcomeCommitted).Inc()
	log.DebugContext(ctx, "mutation committed")
	return nil
}

func (o *optimistic[S]) report(ctx context.Context, op string, err error) error {
	out, notice := classify(op, err)
	if notice != nil {
		o.opts.notifier.Notify(ctx, *notice)
	}
	return out
}
