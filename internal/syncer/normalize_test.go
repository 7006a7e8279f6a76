package syncer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GhomKrosmonaute/ruel-stroud/pkg/gocardless"
)

func str(s string) *string { return &s }

func TestResolveDate_Precedence(t *testing.T) {
	tests := []struct {
		name string
		txn  gocardless.Transaction
		want string
	}{
		{
			name: "valueDate alone",
			txn:  gocardless.Transaction{ValueDate: str("2024-03-01")},
			want: "2024-03-01T00:00:00Z",
		},
		{
			name: "bookingDateTime beats valueDate",
			txn: gocardless.Transaction{
				BookingDateTime: str("2024-03-02T08:30:00Z"),
				ValueDate:       str("2024-03-01"),
			},
			want: "2024-03-02T08:30:00Z",
		},
		{
			name: "valueDateTime beats bookingDate",
			txn: gocardless.Transaction{
				ValueDateTime: str("2024-03-03T12:00:00Z"),
				BookingDate:   str("2024-03-01"),
			},
			want: "2024-03-03T12:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDate(tt.txn)
			if err != nil {
				t.Fatalf("ResolveDate returned error: %v", err)
			}
			if got.UTC().Format(time.RFC3339) != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.UTC().Format(time.RFC3339))
			}
		})
	}
}

func TestResolveDate_NoDateIsAnError(t *testing.T) {
	if _, err := ResolveDate(gocardless.Transaction{}); err == nil {
		t.Fatal("expected an error for a transaction with no dates")
	}
}

func TestBestRemittance_PicksMostAlphabeticAndCollapsesWhitespace(t *testing.T) {
	got := BestRemittance([]string{"PAYMENT REF 123", "Grocery  Store Purchase"})
	if got != "Grocery Store Purchase" {
		t.Fatalf("expected the richer label with collapsed spaces, got %q", got)
	}
}

func TestBestRemittance_TieKeepsOriginalOrder(t *testing.T) {
	got := BestRemittance([]string{"ABC", "XYZ"})
	if got != "ABC" {
		t.Fatalf("expected the first max to win a tie, got %q", got)
	}
}

func TestDisplayName_FallbackChain(t *testing.T) {
	structured := gocardless.Transaction{RemittanceInformationStructured: str("STRUCTURED REF")}
	if got := DisplayName(structured); got != "STRUCTURED REF" {
		t.Fatalf("expected structured fallback, got %q", got)
	}

	unstructured := gocardless.Transaction{RemittanceInformationUnstructured: str("card payment")}
	if got := DisplayName(unstructured); got != "card payment" {
		t.Fatalf("expected unstructured fallback, got %q", got)
	}

	if got := DisplayName(gocardless.Transaction{}); got != "unknown" {
		t.Fatalf("expected literal unknown, got %q", got)
	}

	arrayWins := gocardless.Transaction{
		RemittanceInformationUnstructuredArray: []string{"REF 1", "Coffee Shop"},
		RemittanceInformationStructured:        str("STRUCTURED REF"),
	}
	if got := DisplayName(arrayWins); got != "Coffee Shop" {
		t.Fatalf("expected the array to take precedence, got %q", got)
	}
}

func TestFallbackID_IsPureFunctionOfItsInputs(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromFloat(-12.50)

	first := FallbackID("Coffee Shop", date, amount)
	second := FallbackID("Coffee Shop", date, amount)
	if first != second {
		t.Fatalf("same inputs yielded different identities: %q vs %q", first, second)
	}

	other := FallbackID("Coffee Shop", date, decimal.NewFromFloat(-12.51))
	if first == other {
		t.Fatal("different amounts must yield different identities")
	}
}

func TestIdentityKey_PrefersProviderIDs(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(-5)

	withID := gocardless.Transaction{
		TransactionID:         str("provider-id"),
		InternalTransactionID: str("internal-id"),
	}
	if got := IdentityKey(withID, "actor", date, amount); got != "provider-id" {
		t.Fatalf("expected transactionId to win, got %q", got)
	}

	internalOnly := gocardless.Transaction{InternalTransactionID: str("internal-id")}
	if got := IdentityKey(internalOnly, "actor", date, amount); got != "internal-id" {
		t.Fatalf("expected internalTransactionId fallback, got %q", got)
	}

	neither := gocardless.Transaction{}
	if got := IdentityKey(neither, "actor", date, amount); got != FallbackID("actor", date, amount) {
		t.Fatalf("expected synthesized fallback, got %q", got)
	}
}
