/**
 * @description
 * One-shot HTTP listener for the consent confirmation callback. After the
 * user completes the bank's consent flow, their browser is redirected to this
 * endpoint; the first request resolves the pending wait and the listener is
 * torn down immediately after.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: routing and standard middleware.
 */

package callback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrTimeout means no confirmation arrived within the allowed wait.
var ErrTimeout = errors.New("timed out waiting for consent confirmation")

// Listener binds a local port and waits for exactly one callback request.
type Listener struct {
	port   int
	logger *slog.Logger
}

// NewListener creates a listener for the configured port.
func NewListener(port int, logger *slog.Logger) *Listener {
	return &Listener{port: port, logger: logger}
}

// Wait binds the port and blocks until the first callback request, context
// cancellation, or the timeout (zero disables it). The server is shut down
// before Wait returns, whatever the outcome.
func (l *Listener) Wait(ctx context.Context, timeout time.Duration) error {
	confirmed := make(chan struct{})
	var once sync.Once

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	// The bank's redirect may carry any path and query; every non-health
	// request counts as the confirmation.
	r.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(confirmed) })
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Banking session confirmed. You can close this tab."))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", l.port),
		Handler: r,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	l.logger.Info("waiting for consent confirmation", "port", l.port)

	var result error
	select {
	case <-confirmed:
		l.logger.Info("consent confirmation received")
	case <-ctx.Done():
		result = ctx.Err()
	case <-expired:
		result = ErrTimeout
	case err := <-serveErr:
		return fmt.Errorf("callback listener failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.logger.Warn("callback listener shutdown failed", "error", err)
	}

	return result
}
