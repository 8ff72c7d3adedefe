package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSource struct {
	price float64
	err   error
}

func (f *fakeSource) Latest(ctx context.Context, ticker string) (quotes.Quote, error) {
	if f.err != nil {
		return quotes.Quote{}, f.err
	}
	return quotes.Quote{Ticker: ticker, Price: f.price, At: time.Now()}, nil
}

func (f *fakeSource) History(ctx context.Context, ticker string, window quotes.Window) ([]quotes.ClosePoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []quotes.ClosePoint{
		{Date: time.Now().AddDate(0, 0, -1), Close: f.price - 1},
		{Date: time.Now(), Close: f.price},
	}, nil
}

func newTestServer(t *testing.T, source quotes.Source) (*Server, *storage.Store, http.Handler) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	server := NewServer(store, source, "test-secret", "http://localhost:8001")
	return server, store, server.Router()
}

func provisionDashboardUser(t *testing.T, store *storage.Store, userID int64, key string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if _, err := store.CreateDashboardUser(userID, string(hash), "tester"); err != nil {
		t.Fatalf("CreateDashboardUser: %v", err)
	}
}

func obtainToken(t *testing.T, handler http.Handler, userID int64, key string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"user_id": userID, "key": key})
	req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("token request failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad token response: %v", err)
	}
	return resp.AccessToken
}

func authedRequest(method, path, token string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealth(t *testing.T) {
	_, _, handler := newTestServer(t, &fakeSource{price: 42})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTokenRejectsWrongKey(t *testing.T) {
	_, store, handler := newTestServer(t, &fakeSource{price: 42})
	provisionDashboardUser(t, store, 1, "right-key")

	body, _ := json.Marshal(map[string]interface{}{"user_id": 1, "key": "wrong-key"})
	req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	_, _, handler := newTestServer(t, &fakeSource{price: 42})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stocks", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/stocks", "not-a-jwt", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a bogus token, got %d", rec.Code)
	}
}

func TestStocksScopedToUser(t *testing.T) {
	_, store, handler := newTestServer(t, &fakeSource{price: 42})
	provisionDashboardUser(t, store, 1, "key-one")
	provisionDashboardUser(t, store, 2, "key-two")

	if err := store.UpsertStock(storage.WatchedStock{UserID: 2, Ticker: "VALE3.SA", ReferencePrice: 60}); err != nil {
		t.Fatalf("UpsertStock: %v", err)
	}

	token := obtainToken(t, handler, 1, "key-one")

	// User 1 adds a stock through the API.
	body, _ := json.Marshal(map[string]string{"ticker": "petr4.sa"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/stocks", token, body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/stocks", token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stocks []storage.WatchedStock
	if err := json.Unmarshal(rec.Body.Bytes(), &stocks); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(stocks) != 1 {
		t.Fatalf("expected only the caller's stock, got %d", len(stocks))
	}
	if stocks[0].Ticker != "PETR4.SA" {
		t.Errorf("ticker must be normalized to upper case, got %q", stocks[0].Ticker)
	}
	if stocks[0].ReferencePrice != 42 {
		t.Errorf("reference price must come from the live quote, got %v", stocks[0].ReferencePrice)
	}

	// User 1 adjusts the reference price.
	body, _ = json.Marshal(map[string]float64{"reference_price": 38.5})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/stocks/PETR4.SA", token, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	stock, found, err := store.GetStock(1, "PETR4.SA")
	if err != nil || !found {
		t.Fatalf("GetStock: found=%v err=%v", found, err)
	}
	if stock.ReferencePrice != 38.5 {
		t.Errorf("expected updated reference price 38.5, got %v", stock.ReferencePrice)
	}

	// Updating another user's row reports not found.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/stocks/VALE3.SA", token, body))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user's stock, got %d", rec.Code)
	}
}

func TestPriceAlertDerivesDirectionAndRearms(t *testing.T) {
	_, store, handler := newTestServer(t, &fakeSource{price: 42})
	provisionDashboardUser(t, store, 1, "key-one")
	token := obtainToken(t, handler, 1, "key-one")

	body, _ := json.Marshal(map[string]interface{}{"ticker": "PETR4.SA", "target_price": 50.0})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/alerts/price", token, body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}

	saved, found, err := store.GetPriceAlert(1, "PETR4.SA")
	if err != nil || !found {
		t.Fatalf("GetPriceAlert: %v found=%v", err, found)
	}
	if saved.Direction != storage.DirectionUp {
		t.Errorf("target above the quote must derive UP, got %s", saved.Direction)
	}

	if err := store.MarkPriceAlertNotified(1, "PETR4.SA"); err != nil {
		t.Fatalf("MarkPriceAlertNotified: %v", err)
	}

	body, _ = json.Marshal(map[string]interface{}{"target_price": 40.0})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/alerts/price/PETR4.SA", token, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	saved, _, err = store.GetPriceAlert(1, "PETR4.SA")
	if err != nil {
		t.Fatalf("GetPriceAlert: %v", err)
	}
	if saved.Direction != storage.DirectionDown {
		t.Errorf("target below the quote must derive DOWN, got %s", saved.Direction)
	}
	if saved.Notified {
		t.Error("updating an alert must re-arm it")
	}
}

func TestPriceAlertRejectsUnknownTicker(t *testing.T) {
	_, store, handler := newTestServer(t, &fakeSource{err: quotes.ErrNotAvailable})
	provisionDashboardUser(t, store, 1, "key-one")
	token := obtainToken(t, handler, 1, "key-one")

	body, _ := json.Marshal(map[string]interface{}{"ticker": "NOPE.SA", "target_price": 10.0})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/alerts/price", token, body))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	_, store, handler := newTestServer(t, &fakeSource{price: 42})
	provisionDashboardUser(t, store, 1, "key-one")
	token := obtainToken(t, handler, 1, "key-one")

	body, _ := json.Marshal(map[string]interface{}{
		"auto_digest":      false,
		"digest_time":      "09:30",
		"panic_check_time": "17:45",
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/settings", token, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	settings, err := store.EnsureSettings(1)
	if err != nil {
		t.Fatalf("EnsureSettings: %v", err)
	}
	if settings.AutoDigest || settings.DigestTime != "09:30" || settings.PanicCheckTime != "17:45" {
		t.Errorf("settings not persisted: %+v", settings)
	}

	// Invalid times are rejected.
	body, _ = json.Marshal(map[string]interface{}{
		"auto_digest":      true,
		"digest_time":      "25:00",
		"panic_check_time": "17:45",
	})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/settings", token, body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid time, got %d", rec.Code)
	}
}

func TestGenerateDashboardLinkGuardedBySecret(t *testing.T) {
	_, _, handler := newTestServer(t, &fakeSource{price: 42})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate_dashboard_link/7", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without the shared secret, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/generate_dashboard_link/7", nil)
	req.Header.Set("X-Internal-Token", "test-secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Link string `json:"link"`
		Key  string `json:"key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Key == "" {
		t.Fatal("expected a generated key")
	}
	if want := fmt.Sprintf("http://localhost:8001/?user_id=%d", 7); resp.Link != want {
		t.Errorf("expected link %q, got %q", want, resp.Link)
	}
}
