package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/auth"
	"github.com/gatechat/gatechat-server/internal/chat"
	"github.com/gatechat/gatechat-server/internal/config"
	"github.com/gatechat/gatechat-server/internal/payment"
	"github.com/gatechat/gatechat-server/internal/store/sqlite"
)

const testPaymentSecret = "test-gateway-secret"

// fakeRelay satisfies blob.Relay without a NATS server.
type fakeRelay struct {
	fail bool
}

func (f *fakeRelay) Store(_ context.Context, _ []byte, suggestedName, _, folder string) (string, error) {
	if f.fail {
		return "", errors.New("object store unreachable")
	}
	return "https://blobs.test/" + folder + "/" + suggestedName, nil
}

type fixture struct {
	ts       *httptest.Server
	payments *payment.Verifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)
	payments := payment.NewVerifier(testPaymentSecret)
	relay := &fakeRelay{}
	session := chat.NewSession(authService, st, relay, &logger, 50)

	server := NewServer(session, authService, st, relay, payments, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, payments: payments}
}

func (f *fixture) postJSON(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, f.ts.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func (f *fixture) getJSON(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// registerUser registers a user and returns their token.
func (f *fixture) registerUser(t *testing.T, name, email string) string {
	t.Helper()

	resp := f.postJSON(t, "/api/register", "", RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: unexpected status %d", email, resp.StatusCode)
	}
	return decodeBody[AuthResponse](t, resp).Token
}

// unlockMembership performs a signed payment verification for the user.
func (f *fixture) unlockMembership(t *testing.T, token string) {
	t.Helper()

	orderID, paymentID := "order_1", "pay_1"
	resp := f.postJSON(t, "/api/payments/verify", token, VerifyPaymentRequest{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: f.payments.Sign(orderID, paymentID),
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payment verify: unexpected status %d", resp.StatusCode)
	}
}

// registerMember registers a user and unlocks their group membership.
func (f *fixture) registerMember(t *testing.T, name, email string) string {
	t.Helper()

	token := f.registerUser(t, name, email)
	f.unlockMembership(t, token)
	return token
}
