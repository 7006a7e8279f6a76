/**
 * @description
 * Request and response payloads for the GoCardless Bank Account Data API
 * (https://developer.gocardless.com/bank-account-data/endpoints). The
 * transaction payload is typed in full because normalization reads far more
 * of it than the store persists.
 */

package gocardless

import "encoding/json"

// tokenRequest is the payload for POST /api/v2/token/new/.
type tokenRequest struct {
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
}

// TokenResponse is the provider's token pair. Expiries are seconds.
type TokenResponse struct {
	Access         string `json:"access"`
	AccessExpires  int64  `json:"access_expires"`
	Refresh        string `json:"refresh"`
	RefreshExpires int64  `json:"refresh_expires"`
}

// agreementRequest is the payload for POST /api/v2/agreements/enduser/.
type agreementRequest struct {
	InstitutionID      string   `json:"institution_id"`
	MaxHistoricalDays  int      `json:"max_historical_days"`
	AccessValidForDays int      `json:"access_valid_for_days"`
	AccessScope        []string `json:"access_scope"`
}

// Agreement is an end-user consent record.
type Agreement struct {
	ID                 string   `json:"id"`
	Created            string   `json:"created"`
	MaxHistoricalDays  int      `json:"max_historical_days"`
	AccessValidForDays int      `json:"access_valid_for_days"`
	AccessScope        []string `json:"access_scope"`
	Accepted           string   `json:"accepted"`
	InstitutionID      string   `json:"institution_id"`
}

// requisitionRequest is the payload for POST /api/v2/requisitions/.
type requisitionRequest struct {
	Redirect      string `json:"redirect"`
	InstitutionID string `json:"institution_id"`
	Agreement     string `json:"agreement"`
	UserLanguage  string `json:"user_language"`
	Reference     string `json:"reference,omitempty"`
}

// Requisition is a linked-account authorization request. Link is the
// user-facing consent URL.
type Requisition struct {
	ID           string   `json:"id"`
	Redirect     string   `json:"redirect"`
	Agreement    string   `json:"agreement"`
	Accounts     []string `json:"accounts"`
	Reference    string   `json:"reference"`
	UserLanguage string   `json:"user_language"`
	Link         string   `json:"link"`
}

// Amount is a provider money value. The amount is a decimal string.
type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// AccountReference identifies a counterparty account.
type AccountReference struct {
	IBAN      *string `json:"iban,omitempty"`
	BBAN      *string `json:"bban,omitempty"`
	PAN       *string `json:"pan,omitempty"`
	MaskedPan *string `json:"maskedPan,omitempty"`
	MSISDN    *string `json:"msisdn,omitempty"`
}

// Remittance is one structured remittance entry.
type Remittance struct {
	Reference string `json:"reference"`
}

// PurposeCode is the ISO20022 purpose of a transaction.
type PurposeCode struct {
	Code string `json:"code"`
}

// ReportExchangeRate describes a currency conversion applied to a transaction.
type ReportExchangeRate struct {
	UnitCurrency           string  `json:"unitCurrency"`
	ExchangeRate           float64 `json:"exchangeRate"`
	RateType               string  `json:"rateType"`
	ContractIdentification *string `json:"contractIdentification,omitempty"`
	QuotationDate          *string `json:"quotationDate,omitempty"`
	InstructedAmount       *Amount `json:"instructedAmount,omitempty"`
	CounterAmount          *Amount `json:"counterAmount,omitempty"`
}

// Transaction is one bank transaction as reported by the provider. Almost
// every field is optional; which ones are populated varies per institution.
type Transaction struct {
	AdditionalDataStructured               json.RawMessage      `json:"additionalDataStructured,omitempty"`
	AdditionalInformation                  *string              `json:"additionalInformation,omitempty"`
	AdditionalInformationStructured        *string              `json:"additionalInformationStructured,omitempty"`
	BalanceAfterTransaction                *Amount              `json:"balanceAfterTransaction,omitempty"`
	BankTransactionCode                    *string              `json:"bankTransactionCode,omitempty"`
	BookingDate                            *string              `json:"bookingDate,omitempty"`
	BookingDateTime                        *string              `json:"bookingDateTime,omitempty"`
	CheckID                                *string              `json:"checkId,omitempty"`
	CreditorAccount                        *AccountReference    `json:"creditorAccount,omitempty"`
	CreditorAgent                          *string              `json:"creditorAgent,omitempty"`
	CreditorID                             *string              `json:"creditorId,omitempty"`
	CreditorName                           *string              `json:"creditorName,omitempty"`
	CurrencyExchange                       []ReportExchangeRate `json:"currencyExchange,omitempty"`
	DebtorAccount                          *AccountReference    `json:"debtorAccount,omitempty"`
	DebtorAgent                            *string              `json:"debtorAgent,omitempty"`
	DebtorName                             *string              `json:"debtorName,omitempty"`
	EndToEndID                             *string              `json:"endToEndId,omitempty"`
	EntryReference                         *string              `json:"entryReference,omitempty"`
	InternalTransactionID                  *string              `json:"internalTransactionId,omitempty"`
	MandateID                              *string              `json:"mandateId,omitempty"`
	MerchantCategoryCode                   *string              `json:"merchantCategoryCode,omitempty"`
	ProprietaryBankTransactionCode         *string              `json:"proprietaryBankTransactionCode,omitempty"`
	PurposeCode                            *PurposeCode         `json:"purposeCode,omitempty"`
	RemittanceInformationStructured        *string              `json:"remittanceInformationStructured,omitempty"`
	RemittanceInformationStructuredArray   []Remittance         `json:"remittanceInformationStructuredArray,omitempty"`
	RemittanceInformationUnstructured      *string              `json:"remittanceInformationUnstructured,omitempty"`
	RemittanceInformationUnstructuredArray []string             `json:"remittanceInformationUnstructuredArray,omitempty"`
	TransactionAmount                      Amount               `json:"transactionAmount"`
	TransactionID                          *string              `json:"transactionId,omitempty"`
	UltimateCreditor                       *string              `json:"ultimateCreditor,omitempty"`
	UltimateDebtor                         *string              `json:"ultimateDebtor,omitempty"`
	ValueDate                              *string              `json:"valueDate,omitempty"`
	ValueDateTime                          *string              `json:"valueDateTime,omitempty"`
}

// TransactionsResponse is the payload of GET /accounts/{id}/transactions/.
type TransactionsResponse struct {
	Transactions struct {
		Booked  []Transaction `json:"booked"`
		Pending []Transaction `json:"pending"`
	} `json:"transactions"`
}

// AccountBalance is one balance figure for an account.
type AccountBalance struct {
	BalanceAmount Amount  `json:"balanceAmount"`
	BalanceType   string  `json:"balanceType"`
	ReferenceDate *string `json:"referenceDate,omitempty"`
}

// BalancesResponse is the payload of GET /accounts/{id}/balances/.
type BalancesResponse struct {
	Balances []AccountBalance `json:"balances"`
}
