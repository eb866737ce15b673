package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
	"onlineticket/internal/http/handlers"
	"onlineticket/internal/lock"
	"onlineticket/internal/repositories/memstore"
	"onlineticket/internal/services"

	"github.com/gin-gonic/gin"
)

var fixedNow = time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)

type tokenVerifier map[string]domain.Identity

func (v tokenVerifier) Verify(_ context.Context, raw string) (domain.Identity, error) {
	id, ok := v[raw]
	if !ok {
		return domain.Identity{}, domain.UnauthorizedError{Msg: "invalid token"}
	}
	return id, nil
}

type fakeProvider struct {
	mu     sync.Mutex
	amount int64
	meta   map[string]string
}

func (p *fakeProvider) CreatePaymentIntent(_ context.Context, amountMinor int64, _ string, metadata map[string]string) (services.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amount = amountMinor
	p.meta = metadata
	return services.PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, _ string, amountMinor int64, _ string, metadata map[string]string) (services.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amount = amountMinor
	p.meta = metadata
	return services.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

type testServer struct {
	t        *testing.T
	engine   *gin.Engine
	store    *memstore.Store
	provider *fakeProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memstore.New()
	clock := func() time.Time { return fixedNow }
	provider := &fakeProvider{}
	h := handlers.Handler{
		Tickets: services.TicketService{Tickets: st.Tickets(), Locker: lock.NewLocal(), Location: time.UTC, Now: clock},
		Bookings: services.BookingService{
			Tickets: st.Tickets(), Bookings: st.Bookings(), Transactions: st.Transactions(),
			Location: time.UTC, Now: clock, Currency: "usd",
		},
		Payments: services.PaymentService{Bookings: st.Bookings(), Provider: provider, Currency: "usd"},
		Docs:     services.DocsService{Bookings: st.Bookings(), Transactions: st.Transactions(), Currency: "usd", Now: clock},
		Users:    services.UserService{Users: st.Users(), Tickets: st.Tickets(), Now: clock},
		Store:    st,
	}
	verifier := tokenVerifier{
		"admin-token":  {Email: "admin@example.com", Name: "Admin"},
		"vendor-token": {Email: "vendor@example.com", Name: "Green Line"},
		"rider-token":  {Email: "rider@example.com", Name: "Rider"},
	}
	if _, err := st.Users().Upsert(context.Background(), models.User{
		Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin, Status: models.UserStatusActive,
		CreatedAt: fixedNow, LastLogin: fixedNow,
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	engine := NewRouter(h, Options{
		Verifier:       verifier,
		Guard:          services.RoleGuard{Users: st.Users()},
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return &testServer{t: t, engine: engine, store: st, provider: provider}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

// setupTicket logs everyone in, promotes the vendor, creates a ticket of qty
// seats and approves it.
func (s *testServer) setupTicket(qty int) string {
	s.t.Helper()
	expectStatus(s.t, s.do(http.MethodPost, "/api/users", "vendor-token", nil), http.StatusOK)
	expectStatus(s.t, s.do(http.MethodPost, "/api/users", "rider-token", nil), http.StatusOK)
	expectStatus(s.t, s.do(http.MethodPatch, "/api/admin/users/vendor@example.com/role", "admin-token",
		map[string]string{"role": "vendor"}), http.StatusOK)

	w := s.do(http.MethodPost, "/api/vendor/tickets", "vendor-token", map[string]any{
		"title":         "Dhaka to Sylhet",
		"from":          "Dhaka",
		"to":            "Sylhet",
		"transportType": "bus",
		"perks":         []string{"AC"},
		"price":         12.5,
		"quantity":      qty,
		"departureDate": "2030-01-11",
		"departureTime": "08:30 PM",
	})
	expectStatus(s.t, w, http.StatusCreated)
	ticketID, _ := decode(s.t, w)["_id"].(string)
	if ticketID == "" {
		s.t.Fatalf("ticket id missing: %s", w.Body.String())
	}
	expectStatus(s.t, s.do(http.MethodPatch, "/api/admin/tickets/"+ticketID+"/approve", "admin-token", nil), http.StatusOK)
	return ticketID
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, s.do(http.MethodGet, "/", "", nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/health", "", nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/db-check", "", nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/metrics", "", nil), http.StatusOK)

	w := s.do(http.MethodGet, "/api/nope", "", nil)
	expectStatus(t, w, http.StatusNotFound)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAuthAndRoleGuards(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/bookings", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)
	body := decode(t, w)
	if body["request_id"] == "" || body["message"] == nil {
		t.Fatalf("error payload must carry message and request_id: %v", body)
	}

	expectStatus(t, s.do(http.MethodGet, "/api/bookings", "forged", nil), http.StatusUnauthorized)
	// valid token but never logged in
	expectStatus(t, s.do(http.MethodGet, "/api/bookings", "rider-token", nil), http.StatusForbidden)

	expectStatus(t, s.do(http.MethodPost, "/api/users", "rider-token", nil), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/bookings", "rider-token", nil), http.StatusOK)

	w = s.do(http.MethodGet, "/api/vendor/tickets", "rider-token", nil)
	expectStatus(t, w, http.StatusForbidden)
	if !strings.Contains(w.Body.String(), "role: user") {
		t.Fatalf("forbidden response should name the actual role: %s", w.Body.String())
	}
	expectStatus(t, s.do(http.MethodGet, "/api/admin/users", "rider-token", nil), http.StatusForbidden)

	w = s.do(http.MethodGet, "/api/users/role", "rider-token", nil)
	expectStatus(t, w, http.StatusOK)
	if decode(t, w)["role"] != "user" {
		t.Fatalf("unexpected role payload %s", w.Body.String())
	}
}

func TestBookingPaymentSettlementFlow(t *testing.T) {
	s := newTestServer(t)
	ticketID := s.setupTicket(5)

	w := s.do(http.MethodGet, "/api/tickets?from=dhaka&sort=price_asc", "", nil)
	expectStatus(t, w, http.StatusOK)
	if tickets, _ := decode(t, w)["tickets"].([]any); len(tickets) != 1 {
		t.Fatalf("expected 1 public ticket: %s", w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/bookings", "rider-token", map[string]any{"ticketId": ticketID, "quantity": 2})
	expectStatus(t, w, http.StatusCreated)
	booking := decode(t, w)
	bookingID, _ := booking["_id"].(string)
	if booking["status"] != "pending" || booking["totalPrice"] != 25.0 {
		t.Fatalf("unexpected booking %v", booking)
	}

	w = s.do(http.MethodPost, "/api/payments/intent", "rider-token", map[string]string{"bookingId": bookingID})
	expectStatus(t, w, http.StatusOK)
	if decode(t, w)["clientSecret"] != "pi_test_secret" {
		t.Fatalf("unexpected intent %s", w.Body.String())
	}
	if s.provider.amount != 2500 || s.provider.meta["booking_id"] != bookingID {
		t.Fatalf("provider got amount=%d meta=%v", s.provider.amount, s.provider.meta)
	}

	// documents only exist once paid
	expectStatus(t, s.do(http.MethodGet, "/api/bookings/"+bookingID+"/e-ticket", "rider-token", nil), http.StatusBadRequest)

	w = s.do(http.MethodPatch, "/api/bookings/"+bookingID+"/paid", "rider-token", map[string]string{"transactionId": "pi_test"})
	expectStatus(t, w, http.StatusOK)
	if decode(t, w)["settled"] != true {
		t.Fatalf("first settle should apply: %s", w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/transactions", "rider-token", map[string]string{"bookingId": bookingID, "transactionId": "pi_again"})
	expectStatus(t, w, http.StatusOK)
	if decode(t, w)["settled"] != false {
		t.Fatalf("second settle must be a no-op: %s", w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/tickets/"+ticketID, "", nil)
	expectStatus(t, w, http.StatusOK)
	if decode(t, w)["quantity"] != 3.0 {
		t.Fatalf("expected 3 seats left: %s", w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/transactions", "rider-token", nil)
	expectStatus(t, w, http.StatusOK)
	var txs []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &txs); err != nil || len(txs) != 1 || txs[0]["transactionId"] != "pi_test" {
		t.Fatalf("expected one transaction, got %s", w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/bookings/"+bookingID+"/e-ticket", "rider-token", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get("Content-Type") != "application/pdf" || !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected a pdf, got %q", w.Header().Get("Content-Type"))
	}
	expectStatus(t, s.do(http.MethodGet, "/api/bookings/"+bookingID+"/invoice", "vendor-token", nil), http.StatusForbidden)

	w = s.do(http.MethodGet, "/api/vendor/revenue", "vendor-token", nil)
	expectStatus(t, w, http.StatusOK)
	rev := decode(t, w)
	if rev["totalRevenue"] != 25.0 || rev["totalTicketsSold"] != 2.0 || rev["totalTicketsAdded"] != 1.0 {
		t.Fatalf("unexpected revenue %v", rev)
	}
}

func TestOverbookingRejected(t *testing.T) {
	s := newTestServer(t)
	ticketID := s.setupTicket(5)

	w := s.do(http.MethodPost, "/api/bookings", "rider-token", map[string]any{"ticketId": ticketID, "quantity": 6})
	expectStatus(t, w, http.StatusBadRequest)
	if decode(t, w)["code"] != "invalid_state" {
		t.Fatalf("expected invalid_state: %s", w.Body.String())
	}

	w = s.do(http.MethodGet, "/api/tickets/"+ticketID, "", nil)
	if decode(t, w)["quantity"] != 5.0 {
		t.Fatalf("stock must be unchanged: %s", w.Body.String())
	}

	expectStatus(t, s.do(http.MethodPost, "/api/bookings", "rider-token", map[string]any{"quantity": 1}), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPost, "/api/bookings", "rider-token", nil), http.StatusBadRequest)
}

func TestVendorStatusAndFraud(t *testing.T) {
	s := newTestServer(t)
	ticketID := s.setupTicket(5)

	w := s.do(http.MethodPost, "/api/bookings", "rider-token", map[string]any{"ticketId": ticketID, "quantity": 1})
	expectStatus(t, w, http.StatusCreated)
	bookingID, _ := decode(t, w)["_id"].(string)

	expectStatus(t, s.do(http.MethodPatch, "/api/vendor/bookings/"+bookingID+"/status", "vendor-token",
		map[string]string{"status": "Accepted"}), http.StatusOK)
	expectStatus(t, s.do(http.MethodPatch, "/api/vendor/bookings/"+bookingID+"/status", "vendor-token",
		map[string]string{"status": "paid"}), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPatch, "/api/vendor/bookings/"+bookingID+"/status", "vendor-token",
		map[string]string{"status": "shipped"}), http.StatusBadRequest)

	expectStatus(t, s.do(http.MethodPatch, "/api/admin/tickets/"+ticketID+"/advertise", "admin-token",
		map[string]bool{"advertised": true}), http.StatusOK)
	w = s.do(http.MethodGet, "/api/tickets/advertised", "", nil)
	var ads []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &ads); err != nil || len(ads) != 1 {
		t.Fatalf("expected one advertised ticket: %s", w.Body.String())
	}

	expectStatus(t, s.do(http.MethodPatch, "/api/admin/users/rider@example.com/fraud", "admin-token", nil), http.StatusBadRequest)
	w = s.do(http.MethodPatch, "/api/admin/users/vendor@example.com/fraud", "admin-token", nil)
	expectStatus(t, w, http.StatusOK)
	if decode(t, w)["ticketsRevoked"] != 1.0 {
		t.Fatalf("expected one revoked ticket: %s", w.Body.String())
	}

	expectStatus(t, s.do(http.MethodGet, "/api/vendor/tickets", "vendor-token", nil), http.StatusForbidden)
	w = s.do(http.MethodGet, "/api/tickets/"+ticketID, "", nil)
	tk := decode(t, w)
	if tk["approved"] != false || tk["advertised"] != false {
		t.Fatalf("fraud must revoke the ticket: %v", tk)
	}
}
