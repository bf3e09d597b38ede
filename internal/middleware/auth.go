package middleware

import (
	"net/http"
	"strings"

	"github.com/vinnodrive/vinnodrive/internal/ctxkeys"
	"github.com/vinnodrive/vinnodrive/internal/handler"
	"github.com/vinnodrive/vinnodrive/internal/service"
)

// AuthMiddleware resolves the session from the auth cookie or a Bearer token and
// adds it to the context. Requests without a valid token continue anonymously.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				// Invalid token, clear cookie and continue
				if fromCookie {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a session
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.SessionFrom(r.Context()) == nil {
			handler.WriteError(w, http.StatusUnauthorized, handler.CodeUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func sessionToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if ok {
			return strings.TrimSpace(token), false
		}
	}

	cookie, err := r.Cookie(service.AuthCookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}
