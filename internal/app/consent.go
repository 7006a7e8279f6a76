/**
 * @description
 * The consent flow coordinates a full banking reconnection: force a fresh
 * handshake, publish the resulting consent link to the notification channel,
 * block until the user's browser hits the local callback endpoint, then mark
 * the notification as resolved.
 *
 * The flow is used by the startup path (no stored session, or the stored one
 * was rejected) and by the synchronizer when a cycle discovers the session is
 * unrecoverable. A failure to publish the notification is fatal to the
 * caller: without a reachable channel the owner can never confirm.
 */

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GhomKrosmonaute/ruel-stroud/internal/domain"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/session"
)

// Reconnector forces a fresh handshake and yields the consent link.
type Reconnector interface {
	Reconnect(ctx context.Context) (domain.SessionCredential, string, error)
}

// Notifier is the notification channel boundary.
type Notifier interface {
	SendReconnectLink(text, link string) (handle string, err error)
	Edit(handle, text string) error
}

// ConfirmationWaiter blocks until the consent callback arrives.
type ConfirmationWaiter interface {
	Wait(ctx context.Context, timeout time.Duration) error
}

// ConsentFlow runs the reconnect -> notify -> await-confirmation sequence.
type ConsentFlow struct {
	sessions Reconnector
	notifier Notifier
	waiter   ConfirmationWaiter
	timeout  time.Duration
	logger   *slog.Logger
}

// NewConsentFlow creates the coordinator. A zero timeout waits forever.
func NewConsentFlow(sessions Reconnector, notifier Notifier, waiter ConfirmationWaiter, timeout time.Duration, logger *slog.Logger) *ConsentFlow {
	return &ConsentFlow{
		sessions: sessions,
		notifier: notifier,
		waiter:   waiter,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run executes the flow and returns the new credential once the user has
// confirmed the consent.
func (f *ConsentFlow) Run(ctx context.Context) (domain.SessionCredential, error) {
	cred, link, err := f.sessions.Reconnect(ctx)
	if err != nil {
		return domain.SessionCredential{}, err
	}

	handle, err := f.notifier.SendReconnectLink("The banking session needs to be reconnected:", link)
	if err != nil {
		return domain.SessionCredential{}, fmt.Errorf("no reachable notification channel: %w", err)
	}
	f.logger.Info("published reconnect link, awaiting confirmation")

	if err := f.waiter.Wait(ctx, f.timeout); err != nil {
		return domain.SessionCredential{}, err
	}

	if err := f.notifier.Edit(handle, "Banking session reconnected."); err != nil {
		// The session itself is fine; a stale notification is cosmetic.
		f.logger.Warn("failed to edit reconnect notification", "error", err)
	}

	return cred, nil
}

// RecoverSession makes the flow usable as the synchronizer's recovery path.
func (f *ConsentFlow) RecoverSession(ctx context.Context) (domain.SessionCredential, error) {
	return f.Run(ctx)
}

// SessionProvider adapts the session manager and the consent flow to the
// synchronizer: routine credential access goes straight to the manager,
// recovery runs the full user-facing flow.
type SessionProvider struct {
	Manager *session.Manager
	Flow    *ConsentFlow
}

func (p SessionProvider) EnsureSession(ctx context.Context) (domain.SessionCredential, error) {
	return p.Manager.EnsureSession(ctx)
}

func (p SessionProvider) RecoverSession(ctx context.Context) (domain.SessionCredential, error) {
	return p.Flow.Run(ctx)
}
