package actorutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

var ErrNilResult = errors.New("result is nil")

// SafeBackgroundTask runs a blocking call outside the actor loop and hands
// the outcome back as a message. Callbacks run on the task goroutine: they
// may only send messages, never touch actor state.
type SafeBackgroundTask[T any] struct {
	system    *actor.ActorSystem
	fn        func(context.Context) (*T, error)
	timeout   *time.Duration
	onError   func(error)
	recover   func(error) T
	onSuccess func(T)
}

func NewBackgroundTask[T any](ctx actor.Context, fn func(context.Context) (*T, error)) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{
		system: ctx.ActorSystem(),
		fn:     fn,
	}
}

func NewBackgroundTaskNoError[T any](ctx actor.Context, fn func(context.Context) *T) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{
		system: ctx.ActorSystem(),
		fn: func(c context.Context) (*T, error) {
			return fn(c), nil
		},
	}
}

func (t *SafeBackgroundTask[T]) WithTimeout(timeout time.Duration) *SafeBackgroundTask[T] {
	t.timeout = &timeout
	return t
}

func (t *SafeBackgroundTask[T]) OnError(fn func(error)) *SafeBackgroundTask[T] {
	t.onError = fn
	return t
}

func (t *SafeBackgroundTask[T]) Recover(fn func(error) T) *SafeBackgroundTask[T] {
	t.recover = fn
	return t
}

func (t *SafeBackgroundTask[T]) OnSuccess(fn func(T)) *SafeBackgroundTask[T] {
	t.onSuccess = fn
	return t
}

func (t *SafeBackgroundTask[T]) PipeTo(pid *actor.PID) {
	root := t.system.Root
	t.onSuccess = func(value T) {
		root.Send(pid, value)
	}
	t.Run()
}

func (t *SafeBackgroundTask[T]) Run() {
	go t.run()
}

func (t *SafeBackgroundTask[T]) run() {
	taskCtx := context.Background()
	if t.timeout != nil {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, *t.timeout)
		defer cancel()
	}

	bgFn := io.Eval(func() (*T, error) {
		return t.call(taskCtx)
	})
	bg := io.Map(bgFn, func(a *T) T {
		return *a
	})
	if t.timeout != nil {
		bg = io.WithTimeout[T](*t.timeout)(bg)
	}
	result := io.RunSync(bg)

	var finalValue T
	if result.Error != nil {
		switch {
		case t.recover != nil:
			finalValue = t.recover(result.Error)
		case t.onError != nil:
			t.onError(result.Error)
			return
		default:
			return
		}
	} else {
		finalValue = result.Value
	}

	if t.onSuccess != nil {
		t.onSuccess(finalValue)
	}
}

func (t *SafeBackgroundTask[T]) call(ctx context.Context) (value *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("background task panic: %v", r)
		}
	}()
	value, err = t.fn(ctx)
	if err == nil && value == nil {
		err = ErrNilResult
	}
	return value, err
}

func MapBackgroundTask[T, T2 any](bgt *SafeBackgroundTask[T], mapFn func(*T) *T2) *SafeBackgroundTask[T2] {
	newFn := func(ctx context.Context) (*T2, error) {
		r, err := bgt.fn(ctx)
		if err != nil {
			return nil, err
		}
		return mapFn(r), nil
	}
	return &SafeBackgroundTask[T2]{
		system:  bgt.system,
		fn:      newFn,
		timeout: bgt.timeout,
	}
}
