package callback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// hitUntilUp retries the request until the listener has bound the port.
func hitUntilUp(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("listener never became reachable at %s", url)
}

func TestWait_ResolvesOnFirstCallbackRequest(t *testing.T) {
	const port = 18731
	listener := NewListener(port, discardLogger())

	result := make(chan error, 1)
	go func() {
		result <- listener.Wait(context.Background(), 5*time.Second)
	}()

	hitUntilUp(t, fmt.Sprintf("http://localhost:%d/banking/confirm?ref=abc", port))

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not resolve after the callback")
	}
}

func TestWait_TearsDownAfterConfirmation(t *testing.T) {
	const port = 18732
	listener := NewListener(port, discardLogger())

	result := make(chan error, 1)
	go func() {
		result <- listener.Wait(context.Background(), 5*time.Second)
	}()

	hitUntilUp(t, fmt.Sprintf("http://localhost:%d/", port))
	if err := <-result; err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}

	// The port must be released once the wait resolved.
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := http.Get(fmt.Sprintf("http://localhost:%d/", port))
		if err != nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("listener still reachable after confirmation")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWait_HonorsContextCancellation(t *testing.T) {
	const port = 18733
	listener := NewListener(port, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- listener.Wait(ctx, 0)
	}()

	// Give the server a moment to bind, then abandon the wait.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}

func TestWait_TimesOut(t *testing.T) {
	const port = 18734
	listener := NewListener(port, discardLogger())

	err := listener.Wait(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
