package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/idle-shapes/game-service/internal/auth"
	"github.com/idle-shapes/game-service/pkg/logger"
	"github.com/idle-shapes/game-service/pkg/sessiontoken"
)

// Auth requires a valid bearer session token and puts the player on the
// request context.
func Auth(tokens *sessiontoken.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing authorization header", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			playerID, err := tokens.Validate(tokenString)
			if err != nil {
				logger.Debug("Token validation failed",
					zap.String("error", err.Error()),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithPlayer(r.Context(), &auth.PlayerContext{PlayerID: playerID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
