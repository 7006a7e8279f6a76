/**
 * @description
 * The synchronizer fetches transactions for a date window, normalizes them,
 * and persists the settled ones idempotently. It owns the 401 recovery rule:
 * an unauthorized fetch triggers a session recovery and exactly one retry;
 * any other failure aborts the invocation.
 *
 * Only booked transactions are written. Pending transactions can still change
 * identity and content before settlement, so they are surfaced in the report
 * for display and never stored.
 *
 * @dependencies
 * - internal/store: actor and transaction persistence.
 * - pkg/gocardless: provider payloads (behind the TransactionsAPI interface).
 * - github.com/google/uuid: per-run correlation id for the logs.
 */

package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GhomKrosmonaute/ruel-stroud/internal/domain"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/store"
	"github.com/GhomKrosmonaute/ruel-stroud/pkg/gocardless"
)

// SessionSource provides the banking credential. RecoverSession is invoked on
// a 401 and is expected to run the full reconnection flow, including user
// confirmation of the new consent.
type SessionSource interface {
	EnsureSession(ctx context.Context) (domain.SessionCredential, error)
	RecoverSession(ctx context.Context) (domain.SessionCredential, error)
}

// TransactionsAPI is the fetch-facing subset of the provider client.
type TransactionsAPI interface {
	Transactions(ctx context.Context, accessToken, accountID string, from, to *time.Time) (*gocardless.TransactionsResponse, error)
}

// Report summarizes one synchronization run.
type Report struct {
	RunID    string
	Fetched  int
	Inserted int
	Skipped  int
	// Pending holds the not-yet-settled transactions, display-only.
	Pending []gocardless.Transaction
}

// Synchronizer pulls transactions for one account and persists new ones.
type Synchronizer struct {
	sessions  SessionSource
	api       TransactionsAPI
	repo      store.TransactionRepository
	accountID string
	logger    *slog.Logger
}

// New creates a synchronizer for the given account.
func New(sessions SessionSource, api TransactionsAPI, repo store.TransactionRepository, accountID string, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		sessions:  sessions,
		api:       api,
		repo:      repo,
		accountID: accountID,
		logger:    logger,
	}
}

// Sync fetches the window [from, to] (nil bounds are left open), deduplicates
// against persisted records and writes new booked transactions. Overlapping
// windows are safe: persistence is idempotent by identity key.
func (s *Synchronizer) Sync(ctx context.Context, from, to *time.Time) (Report, error) {
	report := Report{RunID: uuid.NewString()}

	cred, err := s.sessions.EnsureSession(ctx)
	if err != nil {
		return report, err
	}

	resp, err := s.api.Transactions(ctx, cred.AccessToken, s.accountID, from, to)
	if err != nil {
		var apiErr *gocardless.APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
			return report, err
		}

		// The token expired under us. Recover the session and retry the
		// fetch exactly once.
		s.logger.Warn("transaction fetch unauthorized, recovering session", "run_id", report.RunID)
		cred, err = s.sessions.RecoverSession(ctx)
		if err != nil {
			return report, err
		}
		resp, err = s.api.Transactions(ctx, cred.AccessToken, s.accountID, from, to)
		if err != nil {
			return report, err
		}
	}

	report.Fetched = len(resp.Transactions.Booked)
	report.Pending = resp.Transactions.Pending

	for _, txn := range resp.Transactions.Booked {
		inserted, err := s.persist(ctx, txn)
		if err != nil {
			report.Skipped++
			s.logger.Warn("skipping transaction", "run_id", report.RunID, "error", err)
			continue
		}
		if inserted {
			report.Inserted++
		}
	}

	s.logger.Info("synchronization finished",
		"run_id", report.RunID,
		"fetched", report.Fetched,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"pending", len(report.Pending))
	return report, nil
}

// persist normalizes one booked transaction and writes it unless already
// known. The actor is upserted first so its id is resolvable at insert time.
func (s *Synchronizer) persist(ctx context.Context, txn gocardless.Transaction) (bool, error) {
	date, err := ResolveDate(txn)
	if err != nil {
		return false, err
	}

	amount, err := decimal.NewFromString(txn.TransactionAmount.Amount)
	if err != nil {
		return false, err
	}

	actor, err := s.repo.UpsertActor(ctx, DisplayName(txn))
	if err != nil {
		return false, err
	}

	raw, err := json.Marshal(txn)
	if err != nil {
		return false, err
	}

	return s.repo.InsertTransaction(ctx, domain.Transaction{
		ID:      IdentityKey(txn, actor.Name, date, amount),
		ActorID: actor.ID,
		Amount:  amount,
		Date:    date,
		Raw:     raw,
	})
}
