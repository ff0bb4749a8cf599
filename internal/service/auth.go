package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// Spanish translations for auth backend error messages. Exact match
// first, then case-insensitive substring.
var authErrorTranslations = map[string]string{
	"Invalid login credentials":                "Credenciales de inicio de sesión inválidas",
	"Email not confirmed":                      "Correo electrónico no confirmado",
	"User already registered":                  "El correo ya está registrado en el sistema",
	"Password should be at least 6 characters": "La contraseña debe tener al menos 6 caracteres",
	"Email format is invalid":                  "Formato de correo electrónico inválido",
	"Rate limit exceeded":                      "Límite de intentos excedido. Intenta más tarde",
	"Auth api rate limit exceeded":             "Demasiados intentos. Intenta más tarde",
	"Service not available":                    "Servicio no disponible temporalmente",
	"Invalid email or password":                "Email o contraseña inválidos",
	"Email rate limit exceeded":                "Demasiados correos enviados. Intenta más tarde",
	"Signup is not allowed":                    "El registro está deshabilitado temporalmente",
	"Register is not allowed":                  "El registro está deshabilitado temporalmente",
}

// TranslateAuthError maps an auth backend message to Spanish. Unknown
// messages are returned with an "Error:" prefix.
func TranslateAuthError(message string) string {
	if t, ok := authErrorTranslations[message]; ok {
		return t
	}
	lower := strings.ToLower(message)
	for key, t := range authErrorTranslations {
		if strings.Contains(lower, strings.ToLower(key)) {
			return t
		}
	}
	return fmt.Sprintf("Error: %s", message)
}

// AuthService runs the credential flows against the hosted auth backend.
// It is workspace-independent: sign-in happens before a workspace exists.
type AuthService struct {
	auth    port.AuthAPI
	records port.RecordStore
	logger  *zap.Logger
}

// NewAuthService creates the auth flow service.
func NewAuthService(auth port.AuthAPI, records port.RecordStore, logger *zap.Logger) *AuthService {
	return &AuthService{auth: auth, records: records, logger: logger}
}

// Register signs a user up and creates the matching profiles row with
// role "user". Validation runs before any network call.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.AuthSession, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if err := domain.ValidateCredentials(username, email, password, true); err != nil {
		return nil, err
	}

	session, err := s.auth.SignUp(ctx, email, password, map[string]any{"username": strings.TrimSpace(username)})
	if err != nil {
		return nil, translated(err)
	}

	if session.User.ID != "" {
		_, perr := s.records.Insert(ctx, "profiles", map[string]any{
			"id":       session.User.ID,
			"username": strings.TrimSpace(username),
			"role":     "user",
		})
		if perr != nil {
			// The auth account exists; a missing profile row is recoverable
			// on first profile fetch, so log and continue.
			s.logger.Warn("profile row creation failed after signup",
				zap.String("user_id", session.User.ID),
				zap.Error(perr),
			)
		}
	}

	return session, nil
}

// SignIn exchanges credentials for a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.SignIn")
	defer span.End()

	if err := domain.ValidateCredentials("", email, password, false); err != nil {
		return nil, err
	}

	session, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, translated(err)
	}
	return session, nil
}

// Refresh exchanges a refresh token for a fresh session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	session, err := s.auth.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, translated(err)
	}
	return session, nil
}

// SignOut revokes the session behind the access token.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.SignOut")
	defer span.End()

	if err := s.auth.SignOut(ctx, accessToken); err != nil {
		return translated(err)
	}
	return nil
}

// translated rewrites unauthenticated errors with the Spanish message,
// leaving other error kinds intact for the handler mapping.
func translated(err error) error {
	if ue, ok := err.(*domain.ErrUnauthenticated); ok {
		return &domain.ErrUnauthenticated{Message: TranslateAuthError(ue.Error())}
	}
	return err
}
