// Package refresh orchestrates downloading the picture of the day: at most
// one download in flight, cooperative cancellation, and a recurring schedule
// with fast retries after transient failures.
package refresh

import (
	"context"
	"errors"
	"fmt"

	"github.com/dixieflatline76/Potd/util"
)

// ErrCancelled is the cancellation cause of an explicitly cancelled token.
var ErrCancelled = errors.New("operation cancelled")

// errReleased cancels a token's context once its operation has settled.
// It does not count as cancellation.
var errReleased = errors.New("operation settled")

// Token requests cancellation of an operation. Cancel is idempotent and may
// be called from any goroutine.
type Token struct {
	ctx       context.Context
	cancel    context.CancelCauseFunc
	cancelled *util.SafeFlag
}

// NewToken creates a token whose context is derived from parent. Cancelling
// parent cancels the token.
func NewToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancelCause(parent)
	return &Token{ctx: ctx, cancel: cancel, cancelled: util.NewSafeFlag(false)}
}

// Context is passed to every blocking call of the operation.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Cancel requests cancellation.
func (t *Token) Cancel() {
	t.cancelled.Set(true)
	t.cancel(ErrCancelled)
}

// IsCancelled reports whether Cancel was called or the parent context ended.
func (t *Token) IsCancelled() bool {
	if t.cancelled.Value() {
		return true
	}
	return t.ctx.Err() != nil && !errors.Is(context.Cause(t.ctx), errReleased)
}

func (t *Token) release() {
	t.cancel(errReleased)
}

// Result distinguishes a completed value from a cancelled operation.
type Result[T any] struct {
	Cancelled bool
	Value     T
}

// Completed wraps value in a completed result.
func Completed[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Cancelled returns a cancelled result.
func Cancelled[T any]() Result[T] {
	return Result[T]{Cancelled: true}
}

// Operation is a cancellable function running in its own goroutine.
type Operation[T any] struct {
	token *Token
	done  chan struct{}

	result Result[T]
	err    error
}

// RunCancellable starts run with a fresh token derived from parent.
//
// The operation resolves to a cancelled result if its token is cancelled
// before run returns, whether run failed or not, or if run fails with
// context.Canceled. Otherwise it resolves to run's value or error. If parent
// is already done, run is never called.
func RunCancellable[T any](parent context.Context, run func(ctx context.Context) (T, error)) *Operation[T] {
	op := &Operation[T]{token: NewToken(parent), done: make(chan struct{})}
	if parent.Err() != nil {
		op.result = Cancelled[T]()
		op.token.release()
		close(op.done)
		return op
	}
	go op.run(run)
	return op
}

func (op *Operation[T]) run(run func(ctx context.Context) (T, error)) {
	defer close(op.done)
	defer op.token.release()

	value, err := func() (value T, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("operation panicked: %v", r)
			}
		}()
		return run(op.token.Context())
	}()

	switch {
	case op.token.IsCancelled():
		op.result = Cancelled[T]()
	case err != nil && errors.Is(err, context.Canceled):
		op.result = Cancelled[T]()
	case err != nil:
		op.err = err
	default:
		op.result = Completed(value)
	}
}

// Token returns the operation's cancellation token.
func (op *Operation[T]) Token() *Token {
	return op.token
}

// Cancel requests cancellation of the operation.
func (op *Operation[T]) Cancel() {
	op.token.Cancel()
}

// Done is closed once the operation has settled.
func (op *Operation[T]) Done() <-chan struct{} {
	return op.done
}

// Finished reports whether the operation has settled.
func (op *Operation[T]) Finished() bool {
	select {
	case <-op.done:
		return true
	default:
		return false
	}
}

// Settle is like Wait, but if ctx ends first it cancels the operation and
// waits for it to settle. The outcome is the operation's own: cancelled,
// unless run completed before the cancellation took effect.
func (op *Operation[T]) Settle(ctx context.Context) (Result[T], error) {
	select {
	case <-op.done:
	case <-ctx.Done():
		op.Cancel()
		<-op.done
	}
	return op.result, op.err
}

// Wait blocks until the operation settles and returns its outcome. If ctx
// ends first Wait gives up and reports a cancelled result; the operation
// itself keeps running.
func (op *Operation[T]) Wait(ctx context.Context) (Result[T], error) {
	select {
	case <-op.done:
		return op.result, op.err
	case <-ctx.Done():
		return Cancelled[T](), nil
	}
}
