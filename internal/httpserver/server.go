package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdg312/fitgen/internal/ai"
	"github.com/fdg312/fitgen/internal/auth"
	"github.com/fdg312/fitgen/internal/blob"
	"github.com/fdg312/fitgen/internal/config"
	"github.com/fdg312/fitgen/internal/exports"
	"github.com/fdg312/fitgen/internal/generation"
	"github.com/fdg312/fitgen/internal/logging"
	"github.com/fdg312/fitgen/internal/metrics"
	"github.com/fdg312/fitgen/internal/profiles"
	"github.com/fdg312/fitgen/internal/storage"
	"github.com/fdg312/fitgen/internal/storage/memory"
	"github.com/fdg312/fitgen/internal/storage/postgres"
)

// Server представляет HTTP сервер
type Server struct {
	config     *config.Config
	logger     zerolog.Logger
	mux        *http.ServeMux
	storage    storage.Storage
	provider   ai.Provider
	blobStore  blob.Store
	blobMode   string
	blobSet    bool
	generation *generation.Service
	httpServer *http.Server
}

// Option переопределяет зависимости сервера (используется в тестах)
type Option func(*Server)

func WithProvider(p ai.Provider) Option {
	return func(s *Server) { s.provider = p }
}

func WithStorage(st storage.Storage) Option {
	return func(s *Server) { s.storage = st }
}

// WithBlobStore forces the export blob store; nil means local mode.
func WithBlobStore(store blob.Store) Option {
	return func(s *Server) {
		s.blobStore = store
		s.blobSet = true
	}
}

// New создаёт новый HTTP сервер
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		config: cfg,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.provider == nil {
		s.provider = ai.NewProvider(cfg)
	}
	if s.storage == nil {
		s.initStorage(ctx)
	}
	if !s.blobSet {
		store, mode, err := blob.NewBlobStore(ctx, cfg.Blob, logger)
		if err != nil {
			return nil, err
		}
		s.blobStore = store
		s.blobMode = mode
	} else if s.blobStore == nil {
		s.blobMode = config.BlobModeLocal
	} else {
		s.blobMode = config.BlobModeS3
	}

	s.routes()
	return s, nil
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage(ctx context.Context) {
	if s.config.DatabaseURL == "" {
		s.logger.Info().Msg("using in-memory storage")
		s.storage = memory.New()
		return
	}

	pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		s.logger.Error().Err(err).Msg("postgres connection failed, falling back to in-memory storage")
		s.storage = memory.New()
		return
	}

	s.logger.Info().Msg("postgres connected")
	s.storage = pgStorage
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.Handle("GET /metrics", metrics.Handler())

	// Generation gateways: method check lives in the handlers
	s.generation = generation.NewService(s.config, s.provider, s.logger)
	genHandler := generation.NewHandler(s.generation)
	s.mux.HandleFunc("/api/generate-meal-plan", genHandler.HandleMealPlan)
	s.mux.HandleFunc("/api/generate-workout", genHandler.HandleWorkout)
	s.mux.HandleFunc("/api/generate-workout-split", genHandler.HandleWorkoutSplit)

	// Profile
	profileHandler := profiles.NewHandler(profiles.NewService(s.storage))
	s.mux.HandleFunc("/api/profile", profileHandler.HandleProfile)
	s.mux.HandleFunc("/api/profile/meal-plan-prompt", profileHandler.HandleMealPlanPrompt)

	// Exports
	exportsService := exports.NewService(s.storage, exports.NewGenerator(s.config.PDFFontPath), s.blobStore, s.config.Blob.S3.PresignTTLSeconds, s.logger)
	exportsHandler := exports.NewHandlers(exportsService, s.config.ExportsMaxBytes)
	s.mux.HandleFunc("/api/export/pdf", exportsHandler.HandleCreatePDF)
	s.mux.HandleFunc("/api/exports", exportsHandler.HandleList)
	s.mux.HandleFunc("/api/exports/{id}", exportsHandler.HandleByID)
}

// HealthResponse — ответ GET /api/health
type HealthResponse struct {
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	Timestamp       string   `json:"timestamp"`
	AvailableModels []string `json:"availableModels"`
}

// ModelsResponse — ответ GET /api/models
type ModelsResponse struct {
	Models      []ai.Model `json:"models"`
	Recommended string     `json:"recommended"`
}

// handleHealth возвращает статус сервера
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "OK",
		Message:         "Proxy server is running",
		Timestamp:       time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		AvailableModels: s.config.GeminiModels,
	})
}

// handleModels возвращает модели апстрима, поддерживающие generateContent
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if !s.config.AICredentialConfigured() {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "API key not configured"})
		return
	}

	models, err := s.provider.ListModels(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("models fetch failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch models"})
		return
	}

	writeJSON(w, http.StatusOK, ModelsResponse{
		Models:      models,
		Recommended: s.config.DefaultModel(),
	})
}

// Handler собирает цепочку middleware (снаружи внутрь):
// Logging → CORS → Rate Limit → Auth → Router
func (s *Server) Handler() http.Handler {
	authMiddleware := auth.NewMiddleware(s.config, auth.NewVerifier(s.config))

	var handler http.Handler = s.mux
	handler = authMiddleware.Authenticate(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	handler = logging.Middleware(s.logger)(handler)
	return handler
}

// Start запускает HTTP сервер и блокируется до Shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// upstream timeout plus headroom for parsing and writing
		WriteTimeout: time.Duration(s.config.AITimeoutSeconds+15) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info().
		Str("addr", addr).
		Str("health", fmt.Sprintf("http://localhost%s/api/health", addr)).
		Str("blob_mode", s.blobMode).
		Msg("server listening")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown дожидается завершения активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
