/**
 * @description
 * This file defines the core domain models for the banking subsystem: the
 * singleton session credential, the deduplicated actor, and the persisted
 * transaction record. These structs are shared between the store, the session
 * manager and the synchronizer.
 *
 * @notes
 * - Amounts use shopspring/decimal to avoid floating-point drift on money.
 * - The session credential is all-or-nothing: either every field is populated
 *   (a session believed active) or every field is empty (no session).
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionCredential is the banking session triple. Exactly one credential is
// meaningful per deployment; it is replaced in full on every reconnection.
type SessionCredential struct {
	AccessToken   string
	AgreementID   string
	RequisitionID string
}

// Valid reports whether the credential can be used against the provider.
// A partially populated credential is never valid.
func (c SessionCredential) Valid() bool {
	return c.AccessToken != "" && c.AgreementID != "" && c.RequisitionID != ""
}

// Actor is a deduplicated counterparty, keyed by the display name derived from
// remittance information. Actors are created lazily and never updated.
type Actor struct {
	ID   int64
	Name string
}

// Transaction is one persisted, settled bank transaction.
type Transaction struct {
	// ID is the provider transaction id when available, otherwise a
	// synthesized fallback (see syncer.FallbackID).
	ID      string
	ActorID int64
	Amount  decimal.Decimal
	Date    time.Time
	// Raw is the provider payload, re-serialized from the typed transaction,
	// kept for display and audit.
	Raw []byte
}
