package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"donationhub/internal/auth"
	"donationhub/internal/domain"
)

type fakeParser struct{}

func (fakeParser) ParseToken(raw string) (*auth.Claims, error) {
	switch raw {
	case "ngo-token":
		return &auth.Claims{ID: "ngo-1", Type: domain.AccountKindNGO, Name: "Shelter"}, nil
	case "donor-token":
		return &auth.Claims{ID: "donor-1", Type: domain.AccountKindDonor, Name: "Ana"}, nil
	}
	return nil, domain.ErrUnauthorized
}

func writeErr(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
	default:
		w.WriteHeader(http.StatusUnauthorized)
	}
}

func TestAuthJWT(t *testing.T) {
	var seen Principal
	h := AuthJWT(fakeParser{}, "token", writeErr)(
		RequireKind(domain.AccountKindNGO, writeErr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = PrincipalFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})),
	)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{name: "missing", want: http.StatusUnauthorized},
		{name: "bearer", header: "Bearer ngo-token", want: http.StatusOK},
		{name: "lowercase bearer", header: "bearer ngo-token", want: http.StatusOK},
		{name: "cookie", cookie: "ngo-token", want: http.StatusOK},
		{name: "bad token", header: "Bearer forged", want: http.StatusUnauthorized},
		{name: "wrong kind", cookie: "donor-token", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Principal{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK && (seen.ID != "ngo-1" || seen.Kind != domain.AccountKindNGO) {
				t.Fatalf("principal = %+v", seen)
			}
		})
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("request id not echoed")
	}
	out := buf.String()
	for _, want := range []string{`"request_id":"req-42"`, `"status":418`, `"path":"/v1/healthz"`, `"message":"inside"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	for _, in := range []string{"", "line\nbreak", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if in != "" {
			req.Header.Set("X-Request-ID", in)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if seen == in || len(seen) != 36 {
			t.Fatalf("request id %q kept as %q", in, seen)
		}
		if rr.Header().Get("X-Request-ID") != seen {
			t.Fatalf("response header %q, context %q", rr.Header().Get("X-Request-ID"), seen)
		}
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := preflight("https://app.example")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials must be allowed for the cookie session")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "PUT") {
		t.Fatalf("status updates use PUT: %q", rr.Header().Get("Access-Control-Allow-Methods"))
	}

	rr = preflight("https://evil.example")
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unknown origin preflight: %d %v", rr.Code, rr.Header())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unknown origin must not be allowed")
	}

	// A bare OPTIONS without preflight headers reaches the router.
	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("plain OPTIONS status = %d", rr.Code)
	}
}
