/**
 * @description
 * This package provides a client for the GoCardless Bank Account Data API.
 * It encapsulates the logic for making authenticated HTTP requests to the
 * provider's endpoints, handling request body construction, and parsing
 * responses.
 *
 * The wire contract is fixed: any non-2xx response from any endpoint is
 * treated uniformly by logging the action name and HTTP status and returning
 * an *APIError carrying that status.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, net/url, time: standard Go libraries.
 * - github.com/google/uuid: requisition reference generation.
 */
package gocardless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is the production endpoint of the Bank Account Data API.
const DefaultBaseURL = "https://bankaccountdata.gocardless.com"

// Agreement terms requested for every consent: 90 days of history, valid for
// 30 days, scoped to balances, details and transactions.
const (
	maxHistoricalDays  = 90
	accessValidForDays = 30
)

var accessScope = []string{"balances", "details", "transactions"}

// APIError is a non-2xx response from the provider. Status carries the HTTP
// status code for diagnostics and for the caller's 401 handling.
type APIError struct {
	Op     string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gocardless: %s failed with status %d", e.Op, e.Status)
}

// Client is a client for the GoCardless Bank Account Data API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new API client. An empty baseURL selects production.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewToken exchanges the static provider secrets for an access token.
func (c *Client) NewToken(ctx context.Context, secretID, secretKey string) (*TokenResponse, error) {
	payload := tokenRequest{SecretID: secretID, SecretKey: secretKey}

	var token TokenResponse
	if err := c.doPost(ctx, "newToken", "/api/v2/token/new/", "", payload, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// CreateAgreement creates an end-user consent agreement for the institution.
func (c *Client) CreateAgreement(ctx context.Context, accessToken, institutionID string) (*Agreement, error) {
	payload := agreementRequest{
		InstitutionID:      institutionID,
		MaxHistoricalDays:  maxHistoricalDays,
		AccessValidForDays: accessValidForDays,
		AccessScope:        accessScope,
	}

	var agreement Agreement
	if err := c.doPost(ctx, "createAgreement", "/api/v2/agreements/enduser/", accessToken, payload, &agreement); err != nil {
		return nil, err
	}
	return &agreement, nil
}

// CreateRequisition creates a linked-account requisition bound to the redirect
// target. The returned Link is the user-facing consent URL.
func (c *Client) CreateRequisition(ctx context.Context, accessToken, agreementID, institutionID, redirect string) (*Requisition, error) {
	payload := requisitionRequest{
		Redirect:      redirect,
		InstitutionID: institutionID,
		Agreement:     agreementID,
		UserLanguage:  "FR",
		Reference:     uuid.NewString(),
	}

	var requisition Requisition
	if err := c.doPost(ctx, "createRequisition", "/api/v2/requisitions/", accessToken, payload, &requisition); err != nil {
		return nil, err
	}
	return &requisition, nil
}

// Transactions fetches booked and pending transactions for the account. A nil
// bound leaves the corresponding side of the window open (provider default).
func (c *Client) Transactions(ctx context.Context, accessToken, accountID string, from, to *time.Time) (*TransactionsResponse, error) {
	path := "/api/v2/accounts/" + accountID + "/transactions/"

	query := url.Values{}
	if from != nil {
		query.Set("date_from", from.Format("2006-01-02"))
	}
	if to != nil {
		query.Set("date_to", to.Format("2006-01-02"))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var transactions TransactionsResponse
	if err := c.doGet(ctx, "fetchTransactions", path, accessToken, &transactions); err != nil {
		return nil, err
	}
	return &transactions, nil
}

// Balances fetches the current balance figures for the account.
func (c *Client) Balances(ctx context.Context, accessToken, accountID string) (*BalancesResponse, error) {
	var balances BalancesResponse
	if err := c.doGet(ctx, "fetchBalances", "/api/v2/accounts/"+accountID+"/balances/", accessToken, &balances); err != nil {
		return nil, err
	}
	return &balances, nil
}

// doPost executes a JSON POST and decodes the response into out.
func (c *Client) doPost(ctx context.Context, op, path, accessToken string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, accessToken, out)
}

// doGet executes a GET and decodes the response into out.
func (c *Client) doGet(ctx context.Context, op, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}

	return c.do(op, req, accessToken, out)
}

func (c *Client) do(op string, req *http.Request, accessToken string, out any) error {
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("level=warn component=gocardless op=%s status=%d msg=\"non-2xx response\"", op, resp.StatusCode)
		return &APIError{Op: op, Status: resp.StatusCode}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
