package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/fdg312/fitgen/internal/config"
	"github.com/fdg312/fitgen/internal/dbmigrate"
	"github.com/fdg312/fitgen/internal/httpserver"
	"github.com/fdg312/fitgen/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	logger := logging.New(cfg)

	printStartupBanner(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		sel, err := dbmigrate.SelectDatabaseURL(cfg, false)
		if err != nil {
			logger.Fatal().Err(err).Msg("startup migrations")
		}
		if sel.Warning != "" {
			logger.Warn().Msg(sel.Warning)
		}

		logger.Info().Str("using", sel.Source).Msg("startup migrations: command=up")
		if err := dbmigrate.Run(ctx, "up", sel.URL, dbmigrate.Options{Logger: logger}); err != nil {
			logger.Fatal().Err(err).Msg("startup migrations failed")
		}
		logger.Info().Msg("startup migrations: completed")
	}

	validateProductionConfig(cfg, logger)

	server, err := httpserver.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("server init failed")
	}
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
		return
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are only reported as "set" / "not set".
func printStartupBanner(cfg *config.Config, logger zerolog.Logger) {
	logger.Info().
		Str("env", cfg.Env).
		Int("port", cfg.Port).
		Str("log_format", cfg.LogFormat).
		Msg("FitGen API")

	logger.Info().
		Str("runtime_url", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled)).
		Str("pooled", config.SetOrNot(cfg.DatabaseURLPooled)).
		Str("direct", config.SetOrNot(cfg.DatabaseURLDirect)).
		Bool("migrations_on_startup", cfg.RunMigrationsOnStartup).
		Msg("database")

	logger.Info().
		Str("ai_mode", cfg.AIMode).
		Str("gemini_api_key", config.SetOrNot(cfg.GeminiAPIKey)).
		Str("model", cfg.DefaultModel()).
		Strs("available_models", cfg.GeminiModels).
		Int("timeout_seconds", cfg.AITimeoutSeconds).
		Int("idempotency_ttl_seconds", cfg.IdempotencyTTLSeconds).
		Msg("ai")

	logger.Info().
		Str("auth_mode", cfg.AuthMode).
		Bool("auth_required", cfg.AuthRequired).
		Str("jwt_secret", config.SetOrNot(cfg.JWTSecret)).
		Str("jwt_issuer", config.NonEmptyOrDash(cfg.JWTIssuer)).
		Msg("auth")

	logger.Info().
		Str("blob_mode", cfg.Blob.Mode).
		Str("s3", cfg.Blob.S3.DiagnosticsSummary()).
		Str("pdf_font", config.NonEmptyOrDash(cfg.PDFFontPath)).
		Msg("exports")

	if !cfg.AICredentialConfigured() {
		logger.Warn().Msg("GEMINI_API_KEY is not set: generation endpoints will answer 500")
	}
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config, logger zerolog.Logger) {
	isProd := cfg.Env == "production" || cfg.Env == "staging"

	if isProd && cfg.AIMode == config.AIModeMock {
		logger.Fatal().Str("env", cfg.Env).Msg("AI_MODE=mock is not allowed")
	}

	if isProd && cfg.DatabaseURL == "" {
		logger.Fatal().Str("env", cfg.Env).Msg("no DATABASE_URL configured")
	}
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (will use in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
