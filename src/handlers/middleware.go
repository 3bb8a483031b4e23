package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/security"
	"github.com/username/uahtax/backend/src/utils"
)

type contextKey string

const sessionIDContextKey contextKey = "sessionID"

const SessionCookieName = "uahtax_session"

type SessionMiddleware struct {
	sessions     *security.SessionService
	ttl          time.Duration
	secureCookie bool
}

func NewSessionMiddleware(sessions *security.SessionService, ttl time.Duration, secureCookie bool) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, ttl: ttl, secureCookie: secureCookie}
}

// Handler resolves the session of the request from its cookie or bearer token and
// starts a new session when there is none or it is no longer valid.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if tokenString := sessionToken(r); tokenString != "" {
			id, err := m.sessions.ValidateToken(tokenString)
			if err != nil {
				logger.L.Debug("SessionMiddleware: token rejected, starting a new session", "path", r.URL.Path, "error", err)
			} else {
				sessionID = id
			}
		}

		if sessionID == "" {
			id, token, err := m.sessions.NewSession()
			if err != nil {
				logger.L.Error("SessionMiddleware: failed to start session", "error", err)
				utils.SendJSONError(w, "failed to start session", http.StatusInternalServerError)
				return
			}
			sessionID = id
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(m.ttl.Seconds()),
				HttpOnly: true,
				Secure:   m.secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			logger.L.Debug("SessionMiddleware: new session", "sessionID", sessionID)
		}

		ctx := context.WithValue(r.Context(), sessionIDContextKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDContextKey).(string)
	return sessionID, ok && sessionID != ""
}
