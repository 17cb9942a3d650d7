package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"

	AIModeGemini = "gemini"
	AIModeMock   = "mock"

	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
)

// DefaultGeminiModels is the ordered fallback model list; the first entry is the default model.
var DefaultGeminiModels = []string{
	"models/gemini-1.5-flash-002",
	"models/gemini-1.5-pro",
	"models/gemini-1.5-flash",
	"models/gemini-2.0-flash-001",
}

type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicBaseURL     string
	PresignTTLSeconds int
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 6)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

func (c S3Config) Diagnostics() (level string, code string, msg string) {
	allEmpty := strings.TrimSpace(c.Endpoint) == "" &&
		strings.TrimSpace(c.Region) == "" &&
		strings.TrimSpace(c.Bucket) == "" &&
		strings.TrimSpace(c.AccessKeyID) == "" &&
		strings.TrimSpace(c.SecretAccessKey) == ""

	if allEmpty {
		return "INFO", "s3_not_configured", "not configured (all empty)"
	}

	missing := c.MissingRequired()
	if len(missing) > 0 {
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}

	return "INFO", "s3_ready", "ready"
}

// DiagnosticsSummary returns a summary for logging (no secrets)
func (c S3Config) DiagnosticsSummary() string {
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s public_base_url=%s presign_ttl=%ds access_key_id=%s secret_access_key=%s",
		NonEmptyOrDash(c.Endpoint),
		NonEmptyOrDash(c.Region),
		NonEmptyOrDash(c.Bucket),
		NonEmptyOrDash(c.PublicBaseURL),
		c.PresignTTLSeconds,
		SetOrNot(c.AccessKeyID),
		SetOrNot(c.SecretAccessKey),
	)
}

type BlobConfig struct {
	Mode string // local|s3|auto
	S3   S3Config
}

// Config holds the resolved application configuration.
type Config struct {
	Env       string // local | staging | production
	Port      int
	LogLevel  string
	LogFormat string // console | json

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string
	DatabaseURLPooled string
	DatabaseURLDirect string

	RunMigrationsOnStartup bool

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int

	// AI
	AIMode            string // gemini | mock
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiModels      []string
	AITemperature     float64
	AITopP            float64
	AITopK            int
	AIMaxOutputTokens int
	AITimeoutSeconds  int

	// Duplicate-submission cache
	IdempotencyTTLSeconds int
	IdempotencyCacheSize  int

	// Auth
	AuthMode     string // none | jwt
	AuthRequired bool
	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string

	// Exports
	Blob            BlobConfig
	ExportsMaxBytes int
	PDFFontPath     string // optional UTF-8 TTF; core Helvetica otherwise
}

// DefaultModel returns the first configured model.
func (c *Config) DefaultModel() string {
	if len(c.GeminiModels) == 0 {
		return DefaultGeminiModels[0]
	}
	return c.GeminiModels[0]
}

// AICredentialConfigured reports whether generation requests can be forwarded upstream.
func (c *Config) AICredentialConfigured() bool {
	if c.AIMode == AIModeMock {
		return true
	}
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// Load reads configuration from the process environment.
func Load() *Config {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = "local"
	}

	port := envInt("PORT", 3001)

	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "debug"
	}
	logFormat := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if logFormat == "" {
		if env == "local" {
			logFormat = "console"
		} else {
			logFormat = "json"
		}
	}

	// ---------- Database ----------
	// Priority: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT
	dbPooled := strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))

	runtimeDB := dbPooled
	if runtimeDB == "" {
		runtimeDB = dbURL
	}
	if runtimeDB == "" {
		runtimeDB = dbDirect
	}

	// ---------- AI ----------
	aiMode := strings.ToLower(strings.TrimSpace(os.Getenv("AI_MODE")))
	if aiMode == "" {
		aiMode = AIModeGemini
	}
	if aiMode != AIModeGemini && aiMode != AIModeMock {
		log.Warn().Str("ai_mode", aiMode).Msg("unknown AI_MODE, fallback to gemini")
		aiMode = AIModeGemini
	}

	geminiBaseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")), "/")
	if geminiBaseURL == "" {
		geminiBaseURL = "https://generativelanguage.googleapis.com/v1"
	}

	models := DedupeModels(splitList(os.Getenv("GEMINI_MODELS")))
	if len(models) == 0 {
		models = DedupeModels(DefaultGeminiModels)
	}

	aiTemperature := envFloat("AI_TEMPERATURE", 0.7)
	if aiTemperature < 0 {
		aiTemperature = 0
	}
	if aiTemperature > 2 {
		aiTemperature = 2
	}

	aiTopP := envFloat("AI_TOP_P", 0.8)
	if aiTopP <= 0 || aiTopP > 1 {
		aiTopP = 0.8
	}

	aiTopK := envInt("AI_TOP_K", 40)
	if aiTopK <= 0 {
		aiTopK = 40
	}

	aiMaxOutputTokens := envInt("AI_MAX_OUTPUT_TOKENS", 4000)
	if aiMaxOutputTokens <= 0 {
		aiMaxOutputTokens = 4000
	}

	aiTimeoutSeconds := envInt("AI_TIMEOUT_SECONDS", 30)
	if aiTimeoutSeconds <= 0 {
		aiTimeoutSeconds = 30
	}

	idempotencyTTL := envInt("IDEMPOTENCY_TTL_SECONDS", 30)
	if idempotencyTTL < 0 {
		idempotencyTTL = 0
	}
	idempotencySize := envInt("IDEMPOTENCY_CACHE_SIZE", 256)
	if idempotencySize <= 0 {
		idempotencySize = 256
	}

	// ---------- Auth ----------
	authMode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	if authMode == "" {
		authMode = AuthModeNone
	}
	if authMode != AuthModeNone && authMode != AuthModeJWT {
		log.Warn().Str("auth_mode", authMode).Msg("unknown AUTH_MODE, fallback to none")
		authMode = AuthModeNone
	}
	authRequired := authMode != AuthModeNone && parseBoolEnv("AUTH_REQUIRED")
	jwtSecret := os.Getenv("JWT_SECRET")
	if authMode == AuthModeJWT && strings.TrimSpace(jwtSecret) == "" {
		log.Fatal().Msg("JWT_SECRET is required when AUTH_MODE=jwt")
	}

	// ---------- Blob / S3 ----------
	s3PresignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if s3PresignTTL <= 0 {
		s3PresignTTL = 900
	}

	blobCfg := BlobConfig{
		Mode: parseBlobMode("BLOB_MODE", BlobModeLocal),
		S3: S3Config{
			Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
			Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
			AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
			PublicBaseURL:     strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
			PresignTTLSeconds: s3PresignTTL,
		},
	}

	// EXPORTS_MAX_BYTES caps request bodies for PDF export (default: 1 MiB)
	exportsMaxBytes := envInt("EXPORTS_MAX_BYTES", 1<<20)
	if exportsMaxBytes <= 0 {
		exportsMaxBytes = 1 << 20
	}

	return &Config{
		Env:       env,
		Port:      port,
		LogLevel:  logLevel,
		LogFormat: logFormat,

		DatabaseURL:       runtimeDB,
		DatabaseURLRaw:    dbURL,
		DatabaseURLPooled: dbPooled,
		DatabaseURLDirect: dbDirect,

		RunMigrationsOnStartup: parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP"),

		CORSAllowedOrigins:   parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env),
		CORSAllowCredentials: parseBoolEnv("CORS_ALLOW_CREDENTIALS"),

		RateLimitRPS:   envInt("RATE_LIMIT_RPS", 0),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 0),

		AIMode:            aiMode,
		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:     geminiBaseURL,
		GeminiModels:      models,
		AITemperature:     aiTemperature,
		AITopP:            aiTopP,
		AITopK:            aiTopK,
		AIMaxOutputTokens: aiMaxOutputTokens,
		AITimeoutSeconds:  aiTimeoutSeconds,

		IdempotencyTTLSeconds: idempotencyTTL,
		IdempotencyCacheSize:  idempotencySize,

		AuthMode:     authMode,
		AuthRequired: authRequired,
		JWTSecret:    jwtSecret,
		JWTIssuer:    strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		JWTAudience:  strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),

		Blob:            blobCfg,
		ExportsMaxBytes: exportsMaxBytes,
		PDFFontPath:     strings.TrimSpace(os.Getenv("PDF_FONT_PATH")),
	}
}

// DedupeModels drops blanks and repeated entries while keeping first-seen order.
func DedupeModels(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS.
// In local mode, defaults to the dev frontend origins if empty.
func parseCORSOrigins(raw, env string) []string {
	origins := splitList(raw)
	if len(origins) == 0 && env == "local" {
		return []string{"http://localhost:5173", "http://localhost:3000"}
	}
	return origins
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBlobMode(key string, defaultVal string) string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if mode == "" {
		return defaultVal
	}
	switch mode {
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode
	default:
		log.Warn().Str("key", key).Str("value", mode).Msgf("unknown blob mode, fallback to %s", defaultVal)
		return defaultVal
	}
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func SetOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func NonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}
