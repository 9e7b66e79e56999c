package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/syncora/internal/common"
)

// RequireUser rejects requests without a valid bearer token and stores the
// user id in the request context for handlers.
func RequireUser(tokens *TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "missing or malformed authorization header")
				return
			}
			userID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("auth.token.rejected", "req_id", common.RequestIDFromContext(r.Context()), "error", err)
				unauthorized(w, common.PublicMessage(err))
				return
			}
			ctx := common.WithUserID(r.Context(), userID)
			ctx = common.WithLogger(ctx, common.LoggerFromContext(ctx, logger).With("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="syncora"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "UNAUTHORIZED", "message": msg},
	})
}
