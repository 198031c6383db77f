package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/skydrive/internal/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// accessToken requires a bearer token signed with the server secret, taken
// from the Authorization header or the access_token query parameter (browser
// websocket clients cannot set headers).
func (s *Server) accessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("access_token")
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, s.secret)
		if err != nil {
			s.logger.Debug(r.Context(), "token rejected", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// UserIDFromContext returns the token subject set by the middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
