package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"donationhub/internal/auth"
	"donationhub/internal/domain"
	"donationhub/internal/donations"
	"donationhub/internal/geo"
	"donationhub/internal/middleware"
	"donationhub/internal/storage"
)

// CookieConfig controls the session cookie written at login.
type CookieConfig struct {
	Name string
	// Secure marks the cookie Secure and SameSite=None so the web client can
	// send it cross-site; otherwise SameSite=Lax is used.
	Secure bool
	TTL    time.Duration
}

// App holds the services the HTTP handlers delegate to.
type App struct {
	Auth           *auth.Service
	Donations      *donations.Service
	Accounts       domain.AccountRepository
	Files          *storage.FileStore
	Locator        *geo.Locator
	Ping           func(ctx context.Context) error
	Logger         zerolog.Logger
	Cookie         CookieConfig
	MaxUploadBytes int64
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// Fail maps a service error onto the HTTP response. Unknown errors are logged
// and reported as a generic 500.
func (a *App) Fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		a.error(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "not allowed")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		a.error(w, http.StatusConflict, "duplicate_email", "an account with this email already exists")
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrPickupDatePassed):
		a.error(w, http.StatusUnprocessableEntity, "pickup_date_passed", "Cannot accept donation as the pickup date has already passed")
	case errors.Is(err, storage.ErrUnsupportedType):
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_type", "only jpeg, png, gif or webp images are accepted")
	default:
		a.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

// decode reads a JSON body of at most 1 MiB into v.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func (a *App) actor(r *http.Request) (donations.Actor, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return donations.Actor{}, false
	}
	return donations.Actor{ID: p.ID, Kind: p.Kind}, true
}

// parseDay accepts a calendar date or an RFC 3339 timestamp and returns the
// calendar day at UTC midnight.
func parseDay(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		ts, errTS := time.Parse(time.RFC3339, raw)
		if errTS != nil {
			return nil, err
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &t, nil
}

func parseTimestamp(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return parseDay(raw)
	}
	t = t.UTC()
	return &t, nil
}
