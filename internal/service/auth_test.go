package service_test

import (
	"context"
	"testing"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/service"

	"go.uber.org/zap"
)

func TestTranslateAuthError(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"exact match", "Invalid login credentials", "Credenciales de inicio de sesión inválidas"},
		{"exact match rate limit", "Email rate limit exceeded", "Demasiados correos enviados. Intenta más tarde"},
		{"substring match", "AuthApiError: Invalid login credentials (400)", "Credenciales de inicio de sesión inválidas"},
		{"case-insensitive substring", "user already registered", "El correo ya está registrado en el sistema"},
		{"unknown message", "something odd happened", "Error: something odd happened"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := service.TranslateAuthError(c.in); got != c.want {
				t.Errorf("TranslateAuthError(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestAuthService_RegisterValidatesBeforeNetwork(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{}
	svc := service.NewAuthService(auth, store, zap.NewNop())

	_, err := svc.Register(context.Background(), "x", "not-an-email", "123")
	verr, ok := err.(*domain.ErrValidation)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected username, email and password violations, got %v", verr.Errors)
	}
	if store.Calls != 0 {
		t.Errorf("expected zero network calls, got %d", store.Calls)
	}
}

func TestAuthService_RegisterCreatesProfileRow(t *testing.T) {
	store := newMemStore()
	auth := &fakeAuth{session: &domain.AuthSession{
		AccessToken: "tok",
		User:        domain.AuthUser{ID: "user-7", Email: "u7@example.com"},
	}}
	svc := service.NewAuthService(auth, store, zap.NewNop())

	session, err := svc.Register(context.Background(), "  giancarlo  ", "u7@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.User.ID != "user-7" {
		t.Errorf("unexpected session user: %+v", session.User)
	}

	rows := store.tables["profiles"]
	if len(rows) != 1 {
		t.Fatalf("expected one profiles row, got %d", len(rows))
	}
	row := rows[0]
	if row["id"] != "user-7" || row["username"] != "giancarlo" || row["role"] != "user" {
		t.Errorf("profiles row wrong: %v", row)
	}
}

func TestAuthService_RegisterSurvivesProfileFailure(t *testing.T) {
	store := newMemStore()
	store.FailNext = &domain.ErrNotConfigured{Table: "profiles"}
	auth := &fakeAuth{session: &domain.AuthSession{
		User: domain.AuthUser{ID: "user-7", Email: "u7@example.com"},
	}}
	svc := service.NewAuthService(auth, store, zap.NewNop())

	// The auth account exists even when the profile insert fails; the
	// signup must still report success.
	session, err := svc.Register(context.Background(), "giancarlo", "u7@example.com", "secret123")
	if err != nil {
		t.Fatalf("register must tolerate a failed profile insert: %v", err)
	}
	if session == nil || session.User.ID != "user-7" {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestAuthService_SignInTranslatesBackendErrors(t *testing.T) {
	auth := &fakeAuth{err: &domain.ErrUnauthenticated{Message: "Invalid login credentials"}}
	svc := service.NewAuthService(auth, newMemStore(), zap.NewNop())

	_, err := svc.SignIn(context.Background(), "u@example.com", "secret123")
	ue, ok := err.(*domain.ErrUnauthenticated)
	if !ok {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
	if ue.Message != "Credenciales de inicio de sesión inválidas" {
		t.Errorf("expected translated message, got %q", ue.Message)
	}
}

func TestAuthService_SignInValidatesCredentials(t *testing.T) {
	svc := service.NewAuthService(&fakeAuth{}, newMemStore(), zap.NewNop())

	_, err := svc.SignIn(context.Background(), "", "")
	if _, ok := err.(*domain.ErrValidation); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthService_RefreshPassesThrough(t *testing.T) {
	auth := &fakeAuth{session: &domain.AuthSession{AccessToken: "fresh", RefreshToken: "next"}}
	svc := service.NewAuthService(auth, newMemStore(), zap.NewNop())

	session, err := svc.Refresh(context.Background(), "old")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if session.AccessToken != "fresh" {
		t.Errorf("unexpected session: %+v", session)
	}
}
