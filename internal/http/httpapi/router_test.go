package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationhub/internal/adapter/repo"
	"donationhub/internal/auth"
	"donationhub/internal/donations"
	"donationhub/internal/geo"
	"donationhub/internal/http/handlers"
	"donationhub/internal/storage"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T, secure bool) *testServer {
	t.Helper()
	store := repo.NewMemoryStore().Store()
	logger := zerolog.Nop()
	tokens := auth.NewTokens("test-secret", 7*24*time.Hour)
	authSvc := auth.NewService(store.Accounts, tokens, logger)

	dir := t.TempDir()
	files, err := storage.NewFileStore(dir, "http://files.test/static")
	require.NoError(t, err)

	app := &handlers.App{
		Auth:           authSvc,
		Donations:      donations.NewService(store.Donations, logger),
		Accounts:       store.Accounts,
		Files:          files,
		Locator:        geo.NewLocator(stubGeocoder{}, nil, logger),
		Ping:           store.Ping,
		Logger:         logger,
		Cookie:         handlers.CookieConfig{Name: "token", Secure: secure, TTL: tokens.TTL()},
		MaxUploadBytes: 1 << 10,
	}
	h := NewRouter(app, Options{
		Tokens:      authSvc,
		CookieName:  "token",
		CORSOrigins: []string{"http://localhost:3000"},
		StaticDir:   dir,
		Logger:      logger,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(_ context.Context, address string) (geo.Point, error) {
	if strings.Contains(address, "Bandung") {
		return geo.Point{Lat: -6.9175, Lng: 107.6191}, nil
	}
	return geo.Point{}, geo.ErrNoMatch
}

func (s *testServer) do(method, path, token string, body any) (*http.Response, map[string]any) {
	s.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (s *testServer) login(email, password string) (string, string) {
	s.t.Helper()
	resp, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, resp.StatusCode, "login %s: %v", email, body)
	account := body["account"].(map[string]any)
	return body["token"].(string), account["id"].(string)
}

func (s *testServer) seed() (donorToken, donorID, ngoToken, ngoID string) {
	s.t.Helper()
	resp, body := s.do(http.MethodPost, "/api/auth/signup/donor", "", map[string]string{
		"firstName": "Ana", "lastName": "Lim", "email": "ana@example.com", "password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode, "%v", body)
	resp, body = s.do(http.MethodPost, "/api/auth/signup/ngo", "", map[string]any{
		"name": "Food Bank", "registrationNumber": "REG-1", "email": "ngo@example.com",
		"password": "secret2", "address": "1 Main St", "itemsAccepted": []string{"food"},
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode, "%v", body)

	donorToken, donorID = s.login("ana@example.com", "secret1")
	ngoToken, ngoID = s.login("NGO@example.com", "secret2")
	return
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	resp, body := s.do(http.MethodGet, "/v1/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestLoginCookieAndLogout(t *testing.T) {
	for _, secure := range []bool{false, true} {
		s := newTestServer(t, secure)
		s.seed()

		resp, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Login successful", body["msg"])
		assert.Equal(t, "donor", body["type"])

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "token" {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, 7*24*3600, cookie.MaxAge)
		assert.Equal(t, secure, cookie.Secure)
		if secure {
			assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
		} else {
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		}

		req, _ := http.NewRequest(http.MethodGet, s.srv.URL+"/api/accounts/me", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: cookie.Value})
		me, err := s.srv.Client().Do(req)
		require.NoError(t, err)
		me.Body.Close()
		assert.Equal(t, http.StatusOK, me.StatusCode, "cookie session must authenticate")

		resp, _ = s.do(http.MethodGet, "/api/auth/logout", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		cleared := false
		for _, c := range resp.Cookies() {
			if c.Name == "token" && c.Value == "" && c.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared, "logout must expire the cookie")
	}
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t, false)
	s.seed()

	resp, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", errorCode(body))

	resp, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", errorCode(body))

	resp, body = s.do(http.MethodPost, "/api/auth/signup/ngo", "", map[string]any{
		"name": "Dup", "registrationNumber": "R", "address": "A", "email": "ANA@example.com", "password": "secret3",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "duplicate_email", errorCode(body))

	resp, _ = s.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = s.do(http.MethodGet, "/api/dashboard", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDonationFlow(t *testing.T) {
	s := newTestServer(t, false)
	donorToken, donorID, ngoToken, ngoID := s.seed()

	resp, body := s.do(http.MethodPost, "/api/donations", ngoToken, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "NGOs cannot donate")

	resp, body = s.do(http.MethodPost, "/api/donations", donorToken, map[string]any{
		"items":         []map[string]any{{"itemName": "Rice", "quantity": 5}},
		"pickupAddress": "Jl. Braga 1, Bandung",
		"pickupOption":  "scheduled",
		"pickupDate":    "2000-01-01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "pickup_date_passed", errorCode(body))

	resp, body = s.do(http.MethodPost, "/api/donations", donorToken, map[string]any{
		"items":         []map[string]any{{"itemName": "Rice", "quantity": 5}},
		"pickupAddress": "Jl. Braga 1, Bandung",
		"pickupOption":  "asap",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "%v", body)
	assert.Equal(t, "Pending", body["status"])
	donationID := body["id"].(string)

	resp, body = s.do(http.MethodGet, "/api/donations/user/"+donorID, donorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)

	resp, _ = s.do(http.MethodGet, "/api/donations/user/"+donorID, ngoToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/donations/ngo/"+ngoID+"?lat=-6.2088&lng=106.8456", ngoToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	dist, ok := items[0].(map[string]any)["distance"].(map[string]any)
	require.True(t, ok, "distance expected when an origin is given")
	assert.True(t, strings.HasSuffix(dist["label"].(string), "km"))

	status := "/api/donations/" + donationID + "/status"
	resp, body = s.do(http.MethodPut, status, ngoToken, map[string]string{"status": "Rejected", "rejectionReason": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", errorCode(body))

	resp, _ = s.do(http.MethodPut, status, donorToken, map[string]string{"status": "Accepted"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodPut, status, ngoToken, map[string]string{"status": "Completed"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", errorCode(body))

	resp, body = s.do(http.MethodPut, status, ngoToken, map[string]string{"status": "Accepted"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "%v", body)
	assert.Equal(t, "Accepted", body["status"])
	assert.Equal(t, ngoID, body["ngo"])

	resp, body = s.do(http.MethodPut, status, ngoToken, map[string]string{"status": "Completed", "completedDate": "2025-03-10T10:00:00Z"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "%v", body)
	assert.Equal(t, "Completed", body["status"])
	assert.Equal(t, "2025-03-10T10:00:00Z", body["completedDate"])

	resp, body = s.do(http.MethodGet, "/api/dashboard", donorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	buckets := body["buckets"].(map[string]any)
	assert.EqualValues(t, 1, buckets["completed"])

	resp, _ = s.do(http.MethodGet, "/api/donations/does-not-exist", ngoToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t, false)
	donorToken, _, ngoToken, _ := s.seed()

	upload := func(token string, content []byte) (*http.Response, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("image", "coat.png")
		require.NoError(t, err)
		_, _ = fw.Write(content)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/uploads", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := s.srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp, out
	}

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	resp, body := upload(donorToken, png)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "%v", body)
	key := body["key"].(string)
	assert.Equal(t, "http://files.test/static/"+key, body["url"])

	served, err := s.srv.Client().Get(s.srv.URL + "/static/" + key)
	require.NoError(t, err)
	served.Body.Close()
	assert.Equal(t, http.StatusOK, served.StatusCode)

	listing, err := s.srv.Client().Get(s.srv.URL + "/static/" + key[:strings.LastIndex(key, "/")+1])
	require.NoError(t, err)
	listing.Body.Close()
	assert.Equal(t, http.StatusNotFound, listing.StatusCode, "upload directories must not be listed")

	resp, _ = upload(donorToken, []byte("plain text, not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, _ = upload(donorToken, bytes.Repeat(png, 80))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = upload(ngoToken, png)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
