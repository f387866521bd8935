package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"donationhub/internal/domain"
	"donationhub/internal/http/handlers"
	"donationhub/internal/middleware"
	"donationhub/internal/storage"
)

// Options carries what the router needs beyond the handlers.
type Options struct {
	Tokens      middleware.TokenParser
	CookieName  string
	CORSOrigins []string
	// Limiter throttles the unauthenticated auth routes. Nil disables it.
	Limiter *middleware.RateLimiter
	// ClientIP decides when X-Forwarded-For is believed. Nil trusts no proxy.
	ClientIP  *middleware.ClientIPResolver
	StaticDir string
	Logger    zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RealIP(opts.ClientIP),
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", storage.FileServer(opts.StaticDir)))
	}

	authn := middleware.AuthJWT(opts.Tokens, opts.CookieName, app.Fail)
	donorOnly := middleware.RequireKind(domain.AccountKindDonor, app.Fail)
	ngoOnly := middleware.RequireKind(domain.AccountKindNGO, app.Fail)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.Limiter != nil {
					r.Use(opts.Limiter.Middleware)
				}
				r.Post("/signup/donor", app.SignupDonor)
				r.Post("/signup/ngo", app.SignupNGO)
				r.Post("/login", app.Login)
			})
			r.Get("/logout", app.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/accounts/me", app.Me)
			r.Get("/users/{id}", app.GetAccount)
			r.Get("/dashboard", app.Dashboard)

			r.Route("/donations", func(r chi.Router) {
				r.With(donorOnly).Post("/", app.CreateDonation)
				r.With(donorOnly).Get("/user/{id}", app.ListDonorDonations)
				r.With(ngoOnly).Get("/ngo/{id}", app.ListNGODonations)
				r.Get("/{id}", app.GetDonation)
				r.With(ngoOnly).Put("/{id}/status", app.UpdateDonationStatus)
			})

			r.With(donorOnly).Post("/uploads", app.UploadImage)
		})
	})

	return r
}
