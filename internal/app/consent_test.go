package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/GhomKrosmonaute/ruel-stroud/internal/config"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/domain"
	"github.com/GhomKrosmonaute/ruel-stroud/internal/session"
	"github.com/GhomKrosmonaute/ruel-stroud/pkg/gocardless"
)

type reconnectorStub struct {
	cred  domain.SessionCredential
	link  string
	err   error
	calls int
}

func (s *reconnectorStub) Reconnect(ctx context.Context) (domain.SessionCredential, string, error) {
	s.calls++
	if s.err != nil {
		return domain.SessionCredential{}, "", s.err
	}
	return s.cred, s.link, nil
}

type notifierStub struct {
	sendErr error
	sent    []string
	edited  []string
	editErr error
}

func (s *notifierStub) SendReconnectLink(text, link string) (string, error) {
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.sent = append(s.sent, link)
	return "message-1", nil
}

func (s *notifierStub) Edit(handle, text string) error {
	if s.editErr != nil {
		return s.editErr
	}
	s.edited = append(s.edited, text)
	return nil
}

type waiterStub struct {
	err   error
	calls int
}

func (s *waiterStub) Wait(ctx context.Context, timeout time.Duration) error {
	s.calls++
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConsentFlow_PublishesLinkAndWaitsForConfirmation(t *testing.T) {
	cred := domain.SessionCredential{AccessToken: "tok", AgreementID: "agr", RequisitionID: "req"}
	reconnector := &reconnectorStub{cred: cred, link: "https://bank.example/confirm"}
	notifier := &notifierStub{}
	waiter := &waiterStub{}
	flow := NewConsentFlow(reconnector, notifier, waiter, time.Minute, discardLogger())

	got, err := flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != cred {
		t.Fatalf("unexpected credential %+v", got)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "https://bank.example/confirm" {
		t.Fatalf("expected the link to be published, got %v", notifier.sent)
	}
	if waiter.calls != 1 {
		t.Fatalf("expected one confirmation wait, got %d", waiter.calls)
	}
	if len(notifier.edited) != 1 {
		t.Fatalf("expected the notification to be resolved, got %v", notifier.edited)
	}
}

func TestConsentFlow_UnreachableChannelIsFatal(t *testing.T) {
	reconnector := &reconnectorStub{link: "https://bank.example/confirm"}
	notifier := &notifierStub{sendErr: errors.New("channel gone")}
	waiter := &waiterStub{}
	flow := NewConsentFlow(reconnector, notifier, waiter, time.Minute, discardLogger())

	if _, err := flow.Run(context.Background()); err == nil {
		t.Fatal("expected an error when the notification cannot be published")
	}
	if waiter.calls != 0 {
		t.Fatal("expected no confirmation wait when publishing failed")
	}
}

func TestConsentFlow_WaitFailurePropagates(t *testing.T) {
	reconnector := &reconnectorStub{link: "https://bank.example/confirm"}
	notifier := &notifierStub{}
	waiter := &waiterStub{err: errors.New("timed out")}
	flow := NewConsentFlow(reconnector, notifier, waiter, time.Minute, discardLogger())

	if _, err := flow.Run(context.Background()); err == nil {
		t.Fatal("expected the wait failure to propagate")
	}
	if len(notifier.edited) != 0 {
		t.Fatal("expected no resolution edit after a failed wait")
	}
}

func TestConsentFlow_EditFailureIsNotFatal(t *testing.T) {
	reconnector := &reconnectorStub{link: "https://bank.example/confirm"}
	notifier := &notifierStub{editErr: errors.New("message deleted")}
	waiter := &waiterStub{}
	flow := NewConsentFlow(reconnector, notifier, waiter, time.Minute, discardLogger())

	if _, err := flow.Run(context.Background()); err != nil {
		t.Fatalf("expected success despite the edit failure, got %v", err)
	}
}

// Startup scenario: no stored session, the handshake runs all three steps,
// the link is published, the callback arrives, and a later EnsureSession
// returns the new credential without re-running the handshake.

type startupAPIStub struct {
	tokenCalls int
}

func (s *startupAPIStub) NewToken(ctx context.Context, secretID, secretKey string) (*gocardless.TokenResponse, error) {
	s.tokenCalls++
	return &gocardless.TokenResponse{Access: "fresh-token"}, nil
}

func (s *startupAPIStub) CreateAgreement(ctx context.Context, accessToken, institutionID string) (*gocardless.Agreement, error) {
	return &gocardless.Agreement{ID: "agreement-1"}, nil
}

func (s *startupAPIStub) CreateRequisition(ctx context.Context, accessToken, agreementID, institutionID, redirect string) (*gocardless.Requisition, error) {
	return &gocardless.Requisition{ID: "requisition-1", Link: "https://bank.example/confirm"}, nil
}

type startupCredsStub struct {
	stored domain.SessionCredential
	saves  int
}

func (s *startupCredsStub) LoadCredential(ctx context.Context) (domain.SessionCredential, error) {
	return s.stored, nil
}

func (s *startupCredsStub) ReplaceCredential(ctx context.Context, cred domain.SessionCredential) error {
	s.saves++
	s.stored = cred
	return nil
}

func TestStartup_NoSessionThroughConsentFlowToActiveSession(t *testing.T) {
	api := &startupAPIStub{}
	creds := &startupCredsStub{}
	manager := session.NewManager(api, creds, config.Config{
		BankingSecretID:      "sid",
		BankingSecretKey:     "skey",
		BankingInstitutionID: "inst",
		BankingRedirectURL:   "http://localhost:8099/banking/confirm",
	}, discardLogger())

	notifier := &notifierStub{}
	waiter := &waiterStub{}
	flow := NewConsentFlow(manager, notifier, waiter, time.Minute, discardLogger())

	if _, err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	cred, err := flow.Run(context.Background())
	if err != nil {
		t.Fatalf("consent flow failed: %v", err)
	}
	if !cred.Valid() {
		t.Fatalf("expected a full credential, got %+v", cred)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected the consent link to be published once, got %d", len(notifier.sent))
	}
	if creds.saves != 1 {
		t.Fatalf("expected one persisted credential, got %d saves", creds.saves)
	}

	calls := api.tokenCalls
	again, err := manager.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if again != cred {
		t.Fatalf("expected the cached credential, got %+v", again)
	}
	if api.tokenCalls != calls {
		t.Fatal("expected no second handshake after confirmation")
	}
}
