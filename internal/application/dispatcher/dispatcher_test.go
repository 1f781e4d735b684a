package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/boardkit/boardflow/internal/domain/event"
)

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := New()
	var order []string
	d.SubscribeNamed(event.TypeTransitionCommitted, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeTransitionCommitted, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	evt := event.New(event.TypeTransitionCommitted, 1, "b1", nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handler order = %v", order)
	}
}

func TestDispatch_StopsOnFirstError(t *testing.T) {
	d := New()
	handlerErr := errors.New("handler failure")
	var secondRan bool
	d.SubscribeNamed(event.TypeTransitionCommitted, "failing", func(ctx context.Context, evt *event.Event) error {
		return handlerErr
	})
	d.SubscribeNamed(event.TypeTransitionCommitted, "after", func(ctx context.Context, evt *event.Event) error {
		secondRan = true
		return nil
	})

	err := d.Dispatch(context.Background(), event.New(event.TypeTransitionCommitted, 1, "b1", nil))
	if !errors.Is(err, handlerErr) {
		t.Errorf("Dispatch() error = %v, want wrapped handler failure", err)
	}
	if secondRan {
		t.Error("handler after the failing one still ran")
	}
}

func TestDispatch_IgnoresOtherEventTypes(t *testing.T) {
	d := New()
	var called bool
	d.Subscribe(event.TypeBoardBootstrapped, func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	if err := d.Dispatch(context.Background(), event.New(event.TypeTransitionCommitted, 1, "b1", nil)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if called {
		t.Error("handler for a different event type was called")
	}
}

func TestDispatch_RecoversHandlerPanic(t *testing.T) {
	d := New()
	d.Subscribe(event.TypeTransitionCommitted, func(ctx context.Context, evt *event.Event) error {
		panic("boom")
	})

	err := d.Dispatch(context.Background(), event.New(event.TypeTransitionCommitted, 1, "b1", nil))
	if err == nil {
		t.Error("Dispatch() expected error from panicking handler")
	}
}

func TestDispatchAsync_CloseWaitsForHandlers(t *testing.T) {
	d := New()
	var delivered atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	d.Subscribe(event.TypeTransitionCommitted, func(ctx context.Context, evt *event.Event) error {
		close(started)
		<-release
		delivered.Add(1)
		return nil
	})

	d.DispatchAsync(context.Background(), event.New(event.TypeTransitionCommitted, 1, "b1", nil))
	<-started

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(release)
	}()

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	wg.Wait()

	if delivered.Load() != 1 {
		t.Errorf("delivered = %d, want 1", delivered.Load())
	}
}

func TestDispatchAsync_DroppedAfterClose(t *testing.T) {
	d := New()
	var called atomic.Bool
	d.Subscribe(event.TypeTransitionCommitted, func(ctx context.Context, evt *event.Event) error {
		called.Store(true)
		return nil
	})

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	d.DispatchAsync(context.Background(), event.New(event.TypeTransitionCommitted, 1, "b1", nil))
	if called.Load() {
		t.Error("closed dispatcher still delivered an event")
	}
}

func TestClose_SecondCloseFails(t *testing.T) {
	d := New()
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() expected error")
	}
}

func TestUnsubscribe(t *testing.T) {
	d := New()
	var called bool
	d.SubscribeNamed(event.TypeTransitionCommitted, "target", func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	d.Unsubscribe(event.TypeTransitionCommitted, "target")

	if err := d.Dispatch(context.Background(), event.New(event.TypeTransitionCommitted, 1, "b1", nil)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if called {
		t.Error("unsubscribed handler was called")
	}
}
