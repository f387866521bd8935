package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"donationhub/internal/adapter/repo"
	"donationhub/internal/auth"
	"donationhub/internal/donations"
	"donationhub/internal/geo"
	"donationhub/internal/http/handlers"
	httpapi "donationhub/internal/http/httpapi"
	"donationhub/internal/infra"
	"donationhub/internal/middleware"
	"donationhub/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.NewService(store.Accounts, tokens, logger)
	donationSvc := donations.NewService(store.Donations, logger)

	files, err := storage.NewFileStore(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload storage")
	}

	// Geocoding: Nominatim behind a bbolt cache, plus an optional GeoIP city
	// database for NGOs that send no coordinates.
	var geocoder geo.Geocoder = geo.NewNominatim(geo.NominatimOptions{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: cfg.GeocoderAgent,
		Logger:    &logger,
	})
	if cfg.GeocodeCachePath != "" {
		cache, err := geo.OpenCache(cfg.GeocodeCachePath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.GeocodeCachePath).Msg("geocode cache disabled")
		} else {
			defer cache.Close()
			geocoder = geo.NewCachedGeocoder(geocoder, cache, logger)
		}
	}
	var ips geo.IPLocator
	cities, err := geo.NewCityResolver(cfg.GeoIPDBPath)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("geoip lookup disabled")
	case cities != nil:
		defer cities.Close()
		ips = cities
	}

	clientIP, err := middleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin)
	defer limiter.Close()

	app := &handlers.App{
		Auth:      authSvc,
		Donations: donationSvc,
		Accounts:  store.Accounts,
		Files:     files,
		Locator:   geo.NewLocator(geocoder, ips, logger),
		Ping:      store.Ping,
		Logger:    logger,
		Cookie: handlers.CookieConfig{
			Name:   cfg.CookieName,
			Secure: cfg.IsProduction(),
			TTL:    tokens.TTL(),
		},
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Tokens:      authSvc,
		CookieName:  cfg.CookieName,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		ClientIP:    clientIP,
		StaticDir:   files.BasePath(),
		Logger:      logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().Str("addr", server.Addr()).Str("driver", cfg.StoreDriver).Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
