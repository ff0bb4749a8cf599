package service

import (
	"context"
	"sync"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

// SessionStore holds the authenticated identity of one workspace. It is
// the source of truth for "who is asking"; the entity stores subscribe
// to it and load or reset when the identity changes.
type SessionStore struct {
	mu      sync.RWMutex
	session domain.Session
	subs    []func(domain.Session)

	auth      port.AuthAPI
	jwtSecret string
	logger    *zap.Logger
}

// NewSessionStore creates an unauthenticated session store.
func NewSessionStore(auth port.AuthAPI, jwtSecret string, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		auth:      auth,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Current returns the current session value.
func (s *SessionStore) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe registers fn for every session change. fn is called
// synchronously on the goroutine performing the change.
func (s *SessionStore) Subscribe(fn func(domain.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *SessionStore) set(next domain.Session) {
	s.mu.Lock()
	s.session = next
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Restore resolves the identity behind an access token. It first
// verifies the token locally (HS256, the project JWT secret) and falls
// back to asking the auth backend when local verification is not
// possible. Failures clear to the unauthenticated state and are logged,
// never fatal and never retried.
func (s *SessionStore) Restore(ctx context.Context, accessToken string) domain.Session {
	ctx, span := sessionTracer.Start(ctx, "SessionStore.Restore")
	defer span.End()

	if accessToken == "" {
		s.set(domain.Session{})
		return s.Current()
	}

	if sess, ok := s.verifyLocal(accessToken); ok {
		s.set(sess)
		return sess
	}

	user, err := s.auth.GetUser(ctx, accessToken)
	if err != nil {
		s.logger.Warn("session restore failed", zap.Error(err))
		s.set(domain.Session{})
		return s.Current()
	}

	sess := domain.Session{UserID: user.ID, Email: user.Email, Authenticated: true}
	s.set(sess)
	return sess
}

// verifyLocal validates the token signature and extracts sub/email.
func (s *SessionStore) verifyLocal(accessToken string) (domain.Session, bool) {
	if s.jwtSecret == "" {
		return domain.Session{}, false
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Session{}, false
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return domain.Session{}, false
	}
	email, _ := claims["email"].(string)
	return domain.Session{UserID: sub, Email: email, Authenticated: true}, true
}

// ResolveSession resolves a bearer token outside any workspace, for
// the request middleware that has to know the user before it can pick
// a workspace.
func ResolveSession(ctx context.Context, auth port.AuthAPI, jwtSecret, accessToken string, logger *zap.Logger) domain.Session {
	return NewSessionStore(auth, jwtSecret, logger).Restore(ctx, accessToken)
}

// HandleAuthEvent applies an out-of-band session change notification.
func (s *SessionStore) HandleAuthEvent(ev domain.AuthEvent) {
	switch ev.Type {
	case domain.AuthSignedIn, domain.AuthTokenRefreshed, domain.AuthUserUpdated:
		if ev.Session == nil || ev.Session.User.ID == "" {
			s.logger.Warn("auth event without session", zap.String("type", string(ev.Type)))
			return
		}
		s.set(domain.Session{
			UserID:        ev.Session.User.ID,
			Email:         ev.Session.User.Email,
			Authenticated: true,
		})
	case domain.AuthSignedOut:
		s.set(domain.Session{})
	default:
		s.logger.Warn("unknown auth event", zap.String("type", string(ev.Type)))
	}
}
