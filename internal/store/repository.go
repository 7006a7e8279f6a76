/**
 * @description
 * This file defines the repository interfaces for the banking subsystem,
 * decoupling the session manager and the synchronizer from the concrete
 * PostgreSQL implementation so they can be tested with stubs.
 */

package store

import (
	"context"

	"github.com/GhomKrosmonaute/ruel-stroud/internal/domain"
)

// CredentialRepository persists the singleton session credential.
type CredentialRepository interface {
	// LoadCredential returns the stored credential, or the zero value when no
	// session has been persisted yet. Storage failures propagate.
	LoadCredential(ctx context.Context) (domain.SessionCredential, error)

	// ReplaceCredential clears any existing credential and stores the new one.
	// Only one session is meaningful at a time.
	ReplaceCredential(ctx context.Context, cred domain.SessionCredential) error
}

// TransactionRepository persists actors and settled transactions.
type TransactionRepository interface {
	// UpsertActor inserts the actor if the name is unseen and returns the
	// actor either way, so its id is always resolvable.
	UpsertActor(ctx context.Context, name string) (domain.Actor, error)

	// InsertTransaction inserts the transaction unless a row with the same id
	// already exists. It reports whether a row was actually written.
	InsertTransaction(ctx context.Context, tx domain.Transaction) (bool, error)

	// RecentTransactions returns the newest transactions, most recent first.
	RecentTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
}
