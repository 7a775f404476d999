package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nananom-farms/site/internal/auth"
	"nananom-farms/site/internal/config"
	"nananom-farms/site/internal/manager"
	"nananom-farms/site/internal/store/jsonfile"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Security.TokenSecret = "test-secret"

	st, err := jsonfile.New(t.TempDir())
	require.NoError(t, err)
	authSvc, err := auth.New(context.Background(), cfg, st)
	require.NoError(t, err)

	return NewServer(cfg, st, authSvc)
}

func doJSON(t *testing.T, s *Server, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func loginAs(t *testing.T, s *Server, username, password string) *http.Cookie {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/admin/login", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/admin/login", map[string]any{
		"username": "admin", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])

	rec = doJSON(t, s, http.MethodPost, "/admin/login", map[string]any{
		"username": "admin", "password": "admin123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "admin", user["username"])

	rec = doJSON(t, s, http.MethodPost, "/admin/login", map[string]any{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginLockoutResponse(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 5; i++ {
		rec := doJSON(t, s, http.MethodPost, "/admin/login", map[string]any{
			"username": "admin", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := doJSON(t, s, http.MethodPost, "/admin/login", map[string]any{
		"username": "admin", "password": "admin123",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/admin/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := loginAs(t, s, "admin", "admin123")
	rec = doJSON(t, s, http.MethodGet, "/admin/me", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "admin", user["username"])

	// A forged session id is just an unknown session.
	rec = doJSON(t, s, http.MethodGet, "/admin/me", nil, &http.Cookie{Name: sessionCookie, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	s := newTestServer(t)
	cookie := loginAs(t, s, "admin", "admin123")

	rec := doJSON(t, s, http.MethodPost, "/admin/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/admin/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRememberMeSurvivesSessionLoss(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/admin/login", map[string]any{
		"username": "admin", "password": "admin123", "remember_me": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var remember *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == rememberCookie {
			remember = c
		}
	}
	require.NotNil(t, remember)

	// Only the remember cookie: the middleware mints a fresh session.
	rec = doJSON(t, s, http.MethodGet, "/admin/me", nil, remember)
	assert.Equal(t, http.StatusOK, rec.Code)

	var minted bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			minted = true
		}
	}
	assert.True(t, minted)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	adminCookie := loginAs(t, s, "admin", "admin123")

	rec := doJSON(t, s, http.MethodPost, "/admin/api/users", auth.CreateUserParams{
		Username: "kwame",
		Password: "secret1",
		Email:    "kwame@example.com",
		Role:     "support",
	}, adminCookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	supportCookie := loginAs(t, s, "kwame", "secret1")

	rec = doJSON(t, s, http.MethodGet, "/admin/me", nil, supportCookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/admin/api/users", nil, supportCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserManagementErrors(t *testing.T) {
	s := newTestServer(t)
	cookie := loginAs(t, s, "admin", "admin123")

	rec := doJSON(t, s, http.MethodPost, "/admin/api/users", auth.CreateUserParams{
		Username: "admin", Password: "secret1", Email: "dup@example.com",
	}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/admin/api/users", auth.CreateUserParams{
		Username: "weak", Password: "abc", Email: "weak@example.com",
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/admin/api/users/1", nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/admin/api/users/42/status", map[string]any{"status": "inactive"}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/admin/api/users/1/status", map[string]any{"status": "banned"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicServicesOnlyActive(t *testing.T) {
	s := newTestServer(t)
	cookie := loginAs(t, s, "admin", "admin123")

	rec := doJSON(t, s, http.MethodPost, "/admin/api/services", manager.ServiceParams{Name: "Oil Press", Price: 100}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, s, http.MethodPost, "/admin/api/services", manager.ServiceParams{Name: "Advisory"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/admin/api/services/2/toggle", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/services", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	services := decodeBody(t, rec)["services"].([]any)
	require.Len(t, services, 1)
	assert.Equal(t, "Oil Press", services[0].(map[string]any)["name"])

	// The admin listing still carries both.
	rec = doJSON(t, s, http.MethodGet, "/admin/api/services", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["services"].([]any), 2)
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	cookie := loginAs(t, s, "admin", "admin123")

	rec := doJSON(t, s, http.MethodPost, "/admin/api/services", manager.ServiceParams{Name: "Oil Press", Price: 100}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	booking := map[string]any{
		"service_id":     1,
		"customer_name":  "Ama",
		"customer_email": "ama@example.com",
		"booking_date":   "2026-09-01",
		"booking_time":   "09:00",
	}
	rec = doJSON(t, s, http.MethodPost, "/api/v1/bookings", booking)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Missing fields and unknown services are rejected.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/bookings", map[string]any{"customer_name": "Ama"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	booking["service_id"] = 99
	rec = doJSON(t, s, http.MethodPost, "/api/v1/bookings", booking)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/slots?date=2026-09-01", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	slots := decodeBody(t, rec)["slots"].([]any)
	assert.Len(t, slots, 7)
	assert.NotContains(t, slots, "09:00")

	rec = doJSON(t, s, http.MethodGet, "/api/v1/slots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/admin/api/bookings", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	bookings := decodeBody(t, rec)["bookings"].([]any)
	require.Len(t, bookings, 1)
	first := bookings[0].(map[string]any)
	assert.Equal(t, "Oil Press", first["services_name"])

	rec = doJSON(t, s, http.MethodPut, "/admin/api/bookings/1/status", map[string]any{"status": "confirmed"}, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/admin/api/bookings/1/status", map[string]any{"status": "shipped"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnquiryAndContactFlow(t *testing.T) {
	s := newTestServer(t)

	enquiry := map[string]any{
		"name":    "Ama",
		"email":   "ama@example.com",
		"subject": "Pricing",
		"message": "How much?",
	}
	rec := doJSON(t, s, http.MethodPost, "/api/v1/enquiries", enquiry)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/contact", enquiry)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/enquiries", map[string]any{"name": "Ama"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cookie := loginAs(t, s, "admin", "admin123")

	rec = doJSON(t, s, http.MethodGet, "/admin/api/enquiries", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["enquiries"].([]any), 1)

	rec = doJSON(t, s, http.MethodGet, "/admin/api/contacts", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["messages"].([]any), 1)

	rec = doJSON(t, s, http.MethodPut, "/admin/api/enquiries/1/status", map[string]any{"status": "in_progress", "assigned_to": 1}, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/admin/api/enquiries/1", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)["enquiry"].(map[string]any)
	assert.Equal(t, "in_progress", got["status"])
	assert.Equal(t, "admin", got["users_username"])
	assert.NotContains(t, got, "users_password_hash")
}

func TestStatsAndBackup(t *testing.T) {
	s := newTestServer(t)
	cookie := loginAs(t, s, "admin", "admin123")

	rec := doJSON(t, s, http.MethodGet, "/admin/api/stats", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "bookings")
	assert.Contains(t, body, "enquiries")
	assert.Contains(t, body, "contacts")

	rec = doJSON(t, s, http.MethodPost, "/admin/api/backup/users", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}
