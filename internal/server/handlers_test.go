package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
	checkoutdomain "github.com/stackbundle/partnerhub/internal/checkout/domain"
	subscriptiondomain "github.com/stackbundle/partnerhub/internal/subscription/domain"
)

type checkoutStub struct {
	url  string
	err  error
	last checkoutdomain.Request
}

func (s *checkoutStub) CreateSession(ctx context.Context, req checkoutdomain.Request) (string, error) {
	s.last = req
	return s.url, s.err
}

func (s *checkoutStub) CreateSharedLinkSession(ctx context.Context, req checkoutdomain.Request) (string, error) {
	s.last = req
	return s.url, s.err
}

type subscriptionStub struct {
	intent subscriptiondomain.Intent
	err    error
}

func (s *subscriptionStub) CreateIntent(ctx context.Context, req subscriptiondomain.Request) (subscriptiondomain.Intent, error) {
	return s.intent, s.err
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func respErrorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in %q", w.Body.String())
	}
	typ, _ := errObj["type"].(string)
	return typ
}

func TestGetUnknownPartnerReturns404(t *testing.T) {
	srv := testServer(t, nil)

	w := doJSON(t, srv, http.MethodGet, "/api/partners/ghost", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if got := respErrorType(t, w); got != "not_found" {
		t.Fatalf("expected not_found, got %q", got)
	}
}

func TestPartnerLifecycleOverHTTP(t *testing.T) {
	srv := testServer(t, nil)

	w := doJSON(t, srv, http.MethodPost, "/api/partners/acme/bootstrap", map[string]string{"admin_email": "owner@acme.dev"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("bootstrap failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPut, "/api/partners/acme", map[string]any{"saas_name": "Acme Tools"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("first patch failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPut, "/api/partners/acme", map[string]any{"monthly_price": "29.99"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second patch failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, "/api/partners/acme", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get failed: %d", w.Code)
	}
	body := decodeBody(t, w)
	// Both patches survive: partial updates merge.
	if body["saas_name"] != "Acme Tools" {
		t.Fatalf("saas_name lost after second patch: %v", body["saas_name"])
	}
	if body["monthly_price"] != "29.99" {
		t.Fatalf("monthly_price not applied: %v", body["monthly_price"])
	}
}

func TestPatchRejectsUnknownFields(t *testing.T) {
	srv := testServer(t, nil)

	doJSON(t, srv, http.MethodPost, "/api/partners/acme/bootstrap", map[string]string{"admin_email": "owner@acme.dev"}, nil)
	w := doJSON(t, srv, http.MethodPut, "/api/partners/acme", map[string]any{"saas_nmae": "Acme Tools"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, "/api/partners/acme", nil, nil)
	body := decodeBody(t, w)
	if body["saas_name"] != "" {
		t.Fatalf("rejected patch must not apply, got %v", body["saas_name"])
	}
}

func TestPatchWithBadCurrencyReturnsValidationError(t *testing.T) {
	srv := testServer(t, nil)

	doJSON(t, srv, http.MethodPost, "/api/partners/acme/bootstrap", map[string]string{"admin_email": "owner@acme.dev"}, nil)
	w := doJSON(t, srv, http.MethodPut, "/api/partners/acme", map[string]any{"currency": "gbp"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if got := respErrorType(t, w); got != "validation_error" {
		t.Fatalf("expected validation_error, got %q", got)
	}
}

func TestCheckoutNotConnectedMapsTo409(t *testing.T) {
	stub := &checkoutStub{err: billingdomain.ErrNotConnected}
	srv := testServer(t, func(s *Server) { s.checkoutSvc = stub })

	w := doJSON(t, srv, http.MethodPost, "/api/checkout", map[string]string{"slug": "acme", "interval": "month"}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if got := respErrorType(t, w); got != "not_connected" {
		t.Fatalf("expected not_connected, got %q", got)
	}
}

func TestCheckoutRejectsUnknownInterval(t *testing.T) {
	stub := &checkoutStub{url: "https://example.test"}
	srv := testServer(t, func(s *Server) { s.checkoutSvc = stub })

	w := doJSON(t, srv, http.MethodPost, "/api/checkout", map[string]string{"slug": "acme", "interval": "weekly"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSharedCheckoutLinkRedirects(t *testing.T) {
	stub := &checkoutStub{url: "https://checkout.stripe.com/c/pay/cs_123"}
	srv := testServer(t, func(s *Server) { s.checkoutSvc = stub })

	w := doJSON(t, srv, http.MethodGet, "/checkout/link?slug=acme&interval=annual&code=LAUNCH", nil, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != stub.url {
		t.Fatalf("unexpected redirect %q", got)
	}
	if stub.last.Interval != billingdomain.IntervalYear || stub.last.PromoCode != "LAUNCH" {
		t.Fatalf("query not mapped onto request: %+v", stub.last)
	}
}

func TestCheckoutInfersSlugFromHost(t *testing.T) {
	stub := &checkoutStub{url: "https://checkout.stripe.com/c/pay/cs_456"}
	srv := testServer(t, func(s *Server) { s.checkoutSvc = stub })

	doJSON(t, srv, http.MethodPost, "/api/partners/acme/bootstrap", map[string]string{"admin_email": "owner@acme.dev"}, nil)

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(map[string]string{"interval": "month"})
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Host = "acme.stackbundle.io"

	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.last.Slug != "acme" {
		t.Fatalf("slug not inferred from host, got %q", stub.last.Slug)
	}
}

func TestSubscriptionIntentEndpoint(t *testing.T) {
	stub := &subscriptionStub{intent: subscriptiondomain.Intent{SubscriptionID: "sub_1", ClientSecret: "pi_secret"}}
	srv := testServer(t, func(s *Server) { s.subscriptionSvc = stub })

	w := doJSON(t, srv, http.MethodPost, "/api/subscriptions/intent", map[string]string{"email": "a@b.c", "interval": "month"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["subscription_id"] != "sub_1" || body["client_secret"] != "pi_secret" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAnalyticsEndpointsRequireBearerToken(t *testing.T) {
	srv := testServer(t, nil)
	payload := map[string]any{
		"date": "2025-07-10",
		"rows": []map[string]any{{"source": "youtube", "members_count": 5, "subscribers_count": 2}},
	}

	w := doJSON(t, srv, http.MethodPost, "/api/discord/analytics", payload, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	auth := map[string]string{"Authorization": "Bearer op-token"}
	w = doJSON(t, srv, http.MethodPost, "/api/discord/analytics", payload, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, "/api/discord/analytics?from=2025-07-01&to=2025-07-31", nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("range failed: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	stats, ok := body["stats"].([]any)
	if !ok || len(stats) != 1 {
		t.Fatalf("expected one stat row, got %v", body)
	}
	row, _ := stats[0].(map[string]any)
	if row["date"] != "2025-07-10" {
		t.Fatalf("date must stay a calendar string, got %v", row["date"])
	}

	w = doJSON(t, srv, http.MethodDelete, "/api/discord/analytics", map[string]string{"date": "2025-07-10"}, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", w.Code, w.Body.String())
	}
}

func TestStateEndpointsRoundTrip(t *testing.T) {
	srv := testServer(t, nil)
	auth := map[string]string{"Authorization": "Bearer op-token"}

	w := doJSON(t, srv, http.MethodPut, "/api/state/partner_stats:acme", map[string]any{"visits": 42}, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("put failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, "/api/state/partner_stats:acme", nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("get failed: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	value, ok := body["value"].(map[string]any)
	if !ok || value["visits"] != float64(42) {
		t.Fatalf("unexpected value %v", body)
	}

	w = doJSON(t, srv, http.MethodDelete, "/api/state/partner_stats:acme", nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", w.Code)
	}
	w = doJSON(t, srv, http.MethodGet, "/api/state/partner_stats:acme", nil, auth)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestResolveHostEndpoint(t *testing.T) {
	srv := testServer(t, nil)

	doJSON(t, srv, http.MethodPost, "/api/partners/acme/bootstrap", map[string]string{"admin_email": "owner@acme.dev"}, nil)

	w := doJSON(t, srv, http.MethodGet, "/api/resolve?host=acme.stackbundle.io", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve failed: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["slug"] != "acme" {
		t.Fatalf("unexpected partner %v", body)
	}

	w = doJSON(t, srv, http.MethodGet, "/api/resolve?host=unknown.example.com", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown host, got %d", w.Code)
	}
}
