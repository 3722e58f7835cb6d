package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTask_Result(t *testing.T) {
	tk := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, err := tk.Wait()
	if err != nil || v != 42 {
		t.Errorf("Wait() = %d, %v", v, err)
	}

	select {
	case <-tk.Done():
	default:
		t.Error("Done should be closed after Wait returns")
	}
}

func TestTask_Error(t *testing.T) {
	boom := errors.New("boom")
	tk := Go(context.Background(), func(ctx context.Context) (string, error) {
		return "", boom
	})

	if _, err := tk.Wait(); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestTask_Cancel(t *testing.T) {
	started := make(chan struct{})
	tk := Go(context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	<-started
	tk.Cancel()
	tk.Cancel() // idempotent

	select {
	case <-tk.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not stop after Cancel")
	}
	if _, err := tk.Wait(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTask_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	tk := Go(parent, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 7, nil // ignores cancellation
	})

	cancel()

	v, err := tk.Wait()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if v != 0 {
		t.Errorf("cancelled task should not expose a result, got %d", v)
	}
}

func TestTask_PanicRecovered(t *testing.T) {
	tk := Go(context.Background(), func(ctx context.Context) (int, error) {
		panic("kaboom")
	})

	if _, err := tk.Wait(); err == nil {
		t.Error("expected error from panicking task")
	}
}
