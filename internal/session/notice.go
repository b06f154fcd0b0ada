package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	apperrors "github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/errors"
)

// ErrSessionClosed is returned for mutations submitted to, or still queued
// on, a store whose session has ended.
var ErrSessionClosed = errors.New("session closed")

// NoticeKind classifies a user-visible notice.
type NoticeKind string

const (
	// NoticeValidation reports rejected input. State was not changed.
	NoticeValidation NoticeKind = "validation"
	// NoticeRemoteFailure reports a persistence failure. The optimistic
	// change was rolled back and the action may be retried.
	NoticeRemoteFailure NoticeKind = "remote_failure"
)

// Notice is what the presentation layer shows the shopper after a failed
// mutation.
type Notice struct {
	Kind      NoticeKind
	Op        string
	Message   string
	Retryable bool
	Err       error
}

// Notifier receives notices. Implementations must not block and must not
// call back into the store that raised the notice.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notice) {
	level := slog.LevelInfo
	if n.Kind == NoticeRemoteFailure {
		level = slog.LevelWarn
	}
	attrs := []any{
		slog.String("kind", string(n.Kind)),
		slog.String("op", n.Op),
		slog.Bool("retryable", n.Retryable),
	}
	if n.Err != nil {
		attrs = append(attrs, slog.String("error", n.Err.Error()))
	}
	l.Logger.Log(ctx, level, n.Message, attrs...)
}

// classify turns a mutation error into the error returned to the caller and
// the notice to raise, if any. NotFound becomes a silent nil; context errors
// are returned without a notice.
func classify(op string, err error) (error, *Notice) {
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrSessionClosed):
		return err, nil
	case errors.Is(err, apperrors.ErrInvalidInput):
		return err, &Notice{Kind: NoticeValidation, Op: op, Message: userMessage(err), Err: err}
	}

	if !errors.Is(err, apperrors.ErrServiceUnavail) {
		err = apperrors.Unavailable(op+" failed", err)
	}
	return err, &Notice{
		Kind:      NoticeRemoteFailure,
		Op:        op,
		Message:   "We couldn't save your change. Please try again.",
		Retryable: true,
		Err:       err,
	}
}

func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	// domain validation errors read "invalid input: <reason>"
	msg, _ := strings.CutPrefix(err.Error(), apperrors.ErrInvalidInput.Error()+": ")
	return msg
}
