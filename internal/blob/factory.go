package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appcfg "github.com/fdg312/fitgen/internal/config"
)

// NewBlobStore builds a blob store using mode local|s3|auto.
// Local mode returns a nil store: exports are streamed back instead of stored.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger zerolog.Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}
	logger = logger.With().Str("component", "blob").Logger()

	switch mode {
	case appcfg.BlobModeLocal:
		logger.Info().Str("mode", appcfg.BlobModeLocal).Msg("blob mode=local (forced)")
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			logEvent(logger, level).Str("code", code).Str("s3", cfg.S3.DiagnosticsSummary()).Msg(msg)
			logger.Info().Str("mode", appcfg.BlobModeLocal).Msg("blob mode=local (auto, S3 not configured)")
			return nil, appcfg.BlobModeLocal, nil
		}

		store, err := newS3(ctx, cfg.S3)
		if err != nil {
			logger.Warn().Err(err).Msg("blob s3 init failed, fallback=local")
			return nil, appcfg.BlobModeLocal, nil
		}

		logger.Info().Str("code", "s3_ready").Str("s3", cfg.S3.DiagnosticsSummary()).Msg("blob mode=s3 (auto, configured)")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			logger.Error().Str("code", "s3_config_incomplete").Strs("missing", missing).Str("s3", cfg.S3.DiagnosticsSummary()).Msg("blob s3 misconfigured")
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := newS3(ctx, cfg.S3)
		if err != nil {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}

		logger.Info().Str("code", "s3_ready").Str("s3", cfg.S3.DiagnosticsSummary()).Msg("blob mode=s3 (forced)")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func newS3(ctx context.Context, c appcfg.S3Config) (*S3Store, error) {
	return NewS3Store(ctx, c.Endpoint, c.Region, c.Bucket, c.AccessKeyID, c.SecretAccessKey, c.PublicBaseURL)
}

func logEvent(logger zerolog.Logger, level string) *zerolog.Event {
	if level == "WARN" {
		return logger.Warn()
	}
	return logger.Info()
}
