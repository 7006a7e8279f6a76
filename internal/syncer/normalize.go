/**
 * @description
 * Normalization rules for provider transactions: which timestamp to keep,
 * which remittance string makes the best counterparty label, and what
 * identifies a transaction for deduplication.
 */

package syncer

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GhomKrosmonaute/ruel-stroud/pkg/gocardless"
)

// ErrNoDate means the provider supplied none of the four date fields.
var ErrNoDate = errors.New("transaction has no usable date")

var whitespaceRuns = regexp.MustCompile(`\s+`)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ResolveDate picks the single timestamp used for storage and display.
// Precedence: bookingDateTime, valueDateTime, bookingDate, valueDate; the
// first non-nil field wins.
func ResolveDate(txn gocardless.Transaction) (time.Time, error) {
	for _, field := range []*string{txn.BookingDateTime, txn.ValueDateTime, txn.BookingDate, txn.ValueDate} {
		if field == nil || *field == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, *field); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.New("transaction date " + *field + " is not parseable")
	}
	return time.Time{}, ErrNoDate
}

// BestRemittance picks the most informative of several unstructured
// remittance strings: the one with the most alphabetic characters, ties
// broken by original order. Internal whitespace runs collapse to one space.
func BestRemittance(info []string) string {
	if len(info) == 0 {
		return ""
	}

	best := info[0]
	bestCount := alphaCount(info[0])
	for _, candidate := range info[1:] {
		if count := alphaCount(candidate); count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return whitespaceRuns.ReplaceAllString(strings.TrimSpace(best), " ")
}

func alphaCount(s string) int {
	count := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			count++
		}
	}
	return count
}

// DisplayName derives the counterparty label from remittance information:
// the best unstructured array entry when present, then the structured field,
// then the plain unstructured field, then "unknown".
func DisplayName(txn gocardless.Transaction) string {
	if len(txn.RemittanceInformationUnstructuredArray) > 0 {
		return BestRemittance(txn.RemittanceInformationUnstructuredArray)
	}
	if txn.RemittanceInformationStructured != nil && *txn.RemittanceInformationStructured != "" {
		return *txn.RemittanceInformationStructured
	}
	if txn.RemittanceInformationUnstructured != nil && *txn.RemittanceInformationUnstructured != "" {
		return *txn.RemittanceInformationUnstructured
	}
	return "unknown"
}

// fallbackKey is the serialized form behind FallbackID. Field order is fixed;
// changing it would re-identify every synthesized transaction.
type fallbackKey struct {
	Actor  string `json:"actor"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

// FallbackID synthesizes a deterministic identity for transactions the
// provider did not assign an id to. Known limitation: two distinct real
// transactions with the same counterparty, date and amount collide and
// dedupe to one row. Kept for compatibility with already-persisted history.
func FallbackID(actorName string, date time.Time, amount decimal.Decimal) string {
	key, _ := json.Marshal(fallbackKey{
		Actor:  actorName,
		Date:   date.Format(time.RFC3339),
		Amount: amount.String(),
	})
	return string(key)
}

// IdentityKey resolves the dedup identity: the provider's transactionId, then
// internalTransactionId, then the synthesized fallback.
func IdentityKey(txn gocardless.Transaction, actorName string, date time.Time, amount decimal.Decimal) string {
	if txn.TransactionID != nil && *txn.TransactionID != "" {
		return *txn.TransactionID
	}
	if txn.InternalTransactionID != nil && *txn.InternalTransactionID != "" {
		return *txn.InternalTransactionID
	}
	return FallbackID(actorName, date, amount)
}
