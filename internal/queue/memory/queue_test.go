package memory

import (
	"context"
	"testing"
	"time"

	"github.com/previewd/previewd/internal/preview"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	result := make(chan preview.Request, 1)
	errCh := make(chan error, 1)

	go func() {
		req, err := q.Dequeue(context.Background())
		if err != nil {
			errCh <- err
			return
		}
		result <- req
	}()

	time.Sleep(10 * time.Millisecond) // allow goroutine to start
	req := preview.Request{ItemID: "m1", URLs: []string{"https://example.org"}}
	if err := q.Enqueue(context.Background(), req); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	select {
	case err := <-errCh:
		t.Fatalf("Dequeue() error = %v", err)
	case got := <-result:
		if got.ItemID != "m1" {
			t.Fatalf("expected m1, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue did not return request")
	}
}

func TestQueueCancelationErrors(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Dequeue(ctx); err == nil {
		t.Fatal("expected dequeue cancellation error")
	}

	full := NewQueue(0)
	if err := full.Enqueue(ctx, preview.Request{ItemID: "m1"}); err == nil {
		t.Fatal("expected enqueue cancellation error")
	}
}

func TestQueueCloseUnblocksDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()
	q.Close() // double close is a no-op

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected queue closed error")
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue did not unblock after close")
	}
}
