package middleware

import (
	"context"
	"net/http"
	"time"

	"activities-web/internal/session"
	"activities-web/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// SessionContextKey is the key for the visitor's session ID in context
	SessionContextKey ContextKey = "view_session"

	// SessionCookieName is the cookie carrying the signed session token
	SessionCookieName = "view_session"
)

// ViewSession attaches a session ID to every request. Visitors without a
// valid session cookie get a fresh session and a new cookie; a cookie past
// half its lifetime is re-issued for the same session so active visitors
// keep their view.
func ViewSession(signer *session.Signer, secure bool, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, expiresAt, ok := verifiedSession(r, signer)
			if !ok {
				sessionID = session.NewSessionID()
				log.WithField("session_id", sessionID).Debug("Started view session")
			}

			if !ok || signer.NeedsRenewal(expiresAt) {
				token, err := signer.Issue(sessionID)
				if err != nil {
					log.WithError(err).Error("Failed to issue session token")
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(signer.TTL().Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifiedSession(r *http.Request, signer *session.Signer) (string, time.Time, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", time.Time{}, false
	}
	sessionID, expiresAt, err := signer.Verify(cookie.Value)
	if err != nil {
		return "", time.Time{}, false
	}
	return sessionID, expiresAt, true
}

// SessionID returns the session ID stored by ViewSession.
func SessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionContextKey).(string)
	return sessionID, ok && sessionID != ""
}
