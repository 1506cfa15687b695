package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/liamwears/cinedex/internal/database"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// VisitorIDContextKey is the key for storing the visitor ID in context
const VisitorIDContextKey ContextKey = "visitorID"

// VisitorMiddleware gives every browser an anonymous visitor identity backed
// by a session cookie. There are no accounts; the visitor ID only scopes
// favourites and listing state.
type VisitorMiddleware struct {
	store        *database.VisitorStore
	cookieName   string
	isProduction bool
	logger       *log.Logger
}

// NewVisitorMiddleware creates the visitor middleware
func NewVisitorMiddleware(store *database.VisitorStore, cookieName string, isProduction bool, logger *log.Logger) *VisitorMiddleware {
	if cookieName == "" {
		cookieName = "session"
	}
	return &VisitorMiddleware{
		store:        store,
		cookieName:   cookieName,
		isProduction: isProduction,
		logger:       logger,
	}
}

// Identify resolves the visitor from the session cookie, starting a new
// session when the cookie is missing or expired. Any other lookup error
// answers 503 and keeps the existing cookie.
func (m *VisitorMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(m.cookieName); err == nil {
			visitorID, err := m.store.Get(r.Context(), cookie.Value)
			if err == nil {
				m.SetSessionCookie(w, cookie.Value)
				next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), visitorID)))
				return
			}
			if !errors.Is(err, database.ErrSessionNotFound) {
				m.logger.Printf("Failed to resolve visitor session: %v", err)
				http.Error(w, `{"error":"Session unavailable"}`, http.StatusServiceUnavailable)
				return
			}
		}

		sessionID, visitorID, err := m.store.Create(r.Context())
		if err != nil {
			m.logger.Printf("Failed to create visitor session: %v", err)
			http.Error(w, `{"error":"Session unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		m.SetSessionCookie(w, sessionID)

		next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), visitorID)))
	})
}

// WithVisitorID stores a visitor ID in the context
func WithVisitorID(ctx context.Context, visitorID uuid.UUID) context.Context {
	return context.WithValue(ctx, VisitorIDContextKey, visitorID)
}

// GetVisitorIDFromContext retrieves the visitor ID from request context
func GetVisitorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	visitorID, ok := ctx.Value(VisitorIDContextKey).(uuid.UUID)
	return visitorID, ok
}

// SetSessionCookie sets the visitor session cookie
func (m *VisitorMiddleware) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	cookie := &http.Cookie{
		Name:     m.cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(m.store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   m.isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}
