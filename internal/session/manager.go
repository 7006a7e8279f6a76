/**
 * @description
 * The session manager owns the banking session credential. It loads the
 * persisted credential at startup, hands it to callers, and self-heals across
 * provider-side expiry by re-running the three-step handshake
 * (token -> agreement -> requisition).
 *
 * Access tokens expire silently from our side: a downstream 401 is the only
 * signal. Agreement and requisition creation are also gated on agreement
 * validity, so a failing step is never refreshed in isolation; the whole chain
 * is re-derived from the token step, exactly once per failing step.
 *
 * All public methods serialize on an internal mutex so the
 * replace-then-use sequence stays atomic with respect to concurrent schedule
 * ticks and manual reconnects.
 *
 * @dependencies
 * - internal/store: credential persistence.
 * - pkg/gocardless: the provider client (behind the BankingAPI interface).
 */

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GhomKrosmonaute/ruel-stroud/internal/config"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/domain"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/store"
	"github.com/GhomKrosmonaute/ruel-stroud/pkg/gocardless"
)

// Handshake step names, used in errors and logs.
const (
	StepToken       = "token"
	StepAgreement   = "agreement"
	StepRequisition = "requisition"
)

// AuthError means token issuance itself was rejected (bad secrets). It is
// never retried: re-running the chain with the same secrets cannot succeed.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("banking auth failed: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ConnectionError means a handshake step failed even after the single defined
// retry. Status carries the last HTTP status seen, 0 when the failure was not
// an API response.
type ConnectionError struct {
	Step   string
	Status int
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("banking connection failed at %s step (status %d): %v", e.Step, e.Status, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// BankingAPI is the handshake-facing subset of the provider client.
type BankingAPI interface {
	NewToken(ctx context.Context, secretID, secretKey string) (*gocardless.TokenResponse, error)
	CreateAgreement(ctx context.Context, accessToken, institutionID string) (*gocardless.Agreement, error)
	CreateRequisition(ctx context.Context, accessToken, agreementID, institutionID, redirect string) (*gocardless.Requisition, error)
}

// Manager maintains exactly one live session credential.
type Manager struct {
	api    BankingAPI
	creds  store.CredentialRepository
	cfg    config.Config
	logger *slog.Logger

	mu   sync.Mutex
	cred domain.SessionCredential
}

// NewManager creates a session manager. The credential starts empty; call
// Load to pick up a persisted session.
func NewManager(api BankingAPI, creds store.CredentialRepository, cfg config.Config, logger *slog.Logger) *Manager {
	return &Manager{
		api:    api,
		creds:  creds,
		cfg:    cfg,
		logger: logger,
	}
}

// Load reads the persisted credential into memory and returns it. An empty
// store yields the zero credential, which is not an error.
func (m *Manager) Load(ctx context.Context) (domain.SessionCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.creds.LoadCredential(ctx)
	if err != nil {
		return domain.SessionCredential{}, fmt.Errorf("failed to load session credential: %w", err)
	}
	m.cred = cred
	return cred, nil
}

// Current returns the in-memory credential without touching the provider.
func (m *Manager) Current() domain.SessionCredential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred
}

// EnsureSession returns the cached credential when it is fully populated,
// otherwise it runs the handshake.
func (m *Manager) EnsureSession(ctx context.Context) (domain.SessionCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred.Valid() {
		return m.cred, nil
	}

	cred, _, err := m.handshake(ctx)
	return cred, err
}

// Reconnect forces a fresh handshake regardless of the cached credential and
// returns the new credential together with the user-facing consent link.
func (m *Manager) Reconnect(ctx context.Context) (domain.SessionCredential, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.handshake(ctx)
}

// handshake runs the token -> agreement -> requisition chain. A failing
// agreement or requisition step restarts the whole chain from the token step,
// once per step; the token step itself is never retried. The new credential
// replaces the stored one in a single save, only after the full chain
// succeeded. Callers must hold m.mu.
func (m *Manager) handshake(ctx context.Context) (domain.SessionCredential, string, error) {
	retried := map[string]bool{}

	for {
		cred, link, step, err := m.runChain(ctx)
		if err == nil {
			if err := m.creds.ReplaceCredential(ctx, cred); err != nil {
				return domain.SessionCredential{}, "", fmt.Errorf("failed to persist session credential: %w", err)
			}
			m.cred = cred
			m.logger.Info("banking session established",
				"agreement_id", cred.AgreementID,
				"requisition_id", cred.RequisitionID)
			return cred, link, nil
		}

		if step == StepToken {
			return domain.SessionCredential{}, "", &AuthError{Err: err}
		}

		if retried[step] {
			return domain.SessionCredential{}, "", &ConnectionError{Step: step, Status: statusOf(err), Err: err}
		}
		retried[step] = true
		m.logger.Warn("handshake step failed, retrying full chain", "step", step, "error", err)
	}
}

// runChain performs one pass over the three steps. On failure it reports the
// step that failed.
func (m *Manager) runChain(ctx context.Context) (domain.SessionCredential, string, string, error) {
	token, err := m.api.NewToken(ctx, m.cfg.BankingSecretID, m.cfg.BankingSecretKey)
	if err != nil {
		return domain.SessionCredential{}, "", StepToken, err
	}

	agreement, err := m.api.CreateAgreement(ctx, token.Access, m.cfg.BankingInstitutionID)
	if err != nil {
		return domain.SessionCredential{}, "", StepAgreement, err
	}

	requisition, err := m.api.CreateRequisition(ctx, token.Access, agreement.ID, m.cfg.BankingInstitutionID, m.cfg.BankingRedirectURL)
	if err != nil {
		return domain.SessionCredential{}, "", StepRequisition, err
	}

	cred := domain.SessionCredential{
		AccessToken:   token.Access,
		AgreementID:   agreement.ID,
		RequisitionID: requisition.ID,
	}
	return cred, requisition.Link, "", nil
}

func statusOf(err error) int {
	var apiErr *gocardless.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
