package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fdg312/fitgen/internal/config"
	"github.com/fdg312/fitgen/internal/userctx"
)

// Middleware — middleware для проверки авторизации
type Middleware struct {
	config   *config.Config
	verifier *Verifier
}

func NewMiddleware(cfg *config.Config, verifier *Verifier) *Middleware {
	return &Middleware{
		config:   cfg,
		verifier: verifier,
	}
}

// Authenticate puts the caller's user id in the request context.
// AUTH_MODE=none maps every request to the default user. In jwt mode a bearer
// token is verified when present; anonymous calls are rejected only when
// AUTH_REQUIRED is set and the path holds per-user data (profile, exports).
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.AuthMode != config.AuthModeJWT {
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userctx.DefaultUserID)))
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			if m.config.AuthRequired && isUserScopedPath(r.URL.Path) {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userctx.DefaultUserID)))
			return
		}

		userID, err := m.authenticateHeader(authHeader)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("auth token rejected")
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		zerolog.Ctx(r.Context()).Debug().Str("sub", userID).Str("path", r.URL.Path).Msg("auth token accepted")
		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

func (m *Middleware) authenticateHeader(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}

	return m.verifier.VerifyJWT(strings.TrimSpace(parts[1]))
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func isPublicPath(path string) bool {
	return path == "/api/health" || path == "/api/models" || path == "/metrics"
}

func isUserScopedPath(path string) bool {
	return strings.HasPrefix(path, "/api/profile") || strings.HasPrefix(path, "/api/export")
}
