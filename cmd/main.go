package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/teal-fm/melody/config"
	"github.com/teal-fm/melody/db"
	"github.com/teal-fm/melody/logging"
	"github.com/teal-fm/melody/service/recommend"
	"github.com/teal-fm/melody/service/saavn"
	"github.com/teal-fm/melody/session"
)

const version = "1.0.0"

type application struct {
	database    *db.DB
	catalog     *saavn.Catalog
	recommender *recommend.Engine
	verifier    *session.Verifier // nil when auth is not configured
	logger      zerolog.Logger
}

// JSON API handlers

func jsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func main() {
	logger := logging.New("main")

	if err := config.Load(); err != nil {
		logger.Fatal().Err(err).Msg("error reading config")
	}
	logging.Init(logging.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})
	logger = logging.New("main")

	database, err := db.New(viper.GetString("db.path"))
	if err != nil {
		logger.Fatal().Err(err).Msg("error connecting to database")
	}
	defer database.Close()

	if err := database.Initialize(); err != nil {
		logger.Fatal().Err(err).Msg("error initializing database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Service Initializations ---

	client := saavn.NewClient(saavn.ClientConfig{
		BaseURL:        viper.GetString("saavn.base_url"),
		Timeout:        viper.GetDuration("saavn.timeout"),
		UserAgent:      viper.GetString("saavn.user_agent"),
		RatePerSecond:  viper.GetFloat64("saavn.rate_per_second"),
		BreakerTimeout: viper.GetDuration("saavn.breaker_timeout"),
	}, logging.New("saavn"))
	catalog := saavn.NewCatalog(client, logging.New("catalog"))

	recCfg := recommend.DefaultConfig()
	recCfg.DefaultLimit = viper.GetInt("recommend.default_limit")
	recCfg.MaxLimit = viper.GetInt("recommend.max_limit")
	recommender := recommend.New(recCfg, catalog, database, logging.New("recommend"))

	var verifier *session.Verifier
	// Only verify ID tokens if a project is configured
	if config.AuthEnabled() {
		verifier, err = session.NewVerifier(ctx, session.Config{
			ProjectID:    viper.GetString("auth.project_id"),
			JWKSURL:      viper.GetString("auth.jwks_url"),
			IssuerPrefix: viper.GetString("auth.issuer_prefix"),
		}, logging.New("session"))
		if err != nil {
			logger.Fatal().Err(err).Msg("error creating token verifier")
		}
	} else {
		logger.Warn().Msg("auth not configured (missing auth.project_id). User features will be disabled.")
	}

	app := &application{
		database:    database,
		catalog:     catalog,
		recommender: recommender,
		verifier:    verifier,
		logger:      logging.New("http"),
	}

	serverAddr := fmt.Sprintf("%s:%s", viper.GetString("server.host"), viper.GetString("server.port"))
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     app.routes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 5 * time.Second,
		// upstream calls alone may take the full catalog timeout
		WriteTimeout: 2*viper.GetDuration("saavn.timeout") + 5*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("error during shutdown")
		}
	}()

	logger.Info().Str("addr", serverAddr).Str("root_url", viper.GetString("server.root_url")).Msg("server running")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}
