package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Giancarlo174/cenit/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// AuthClient — Supabase GoTrue REST adapter (implements port.AuthAPI)
// ============================================================

// AuthClient talks to the hosted auth backend (/auth/v1).
type AuthClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewAuthClient creates a GoTrue client.
func NewAuthClient(httpClient *http.Client, baseURL, apiKey string, logger *zap.Logger) *AuthClient {
	return &AuthClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// goTrueError is the auth backend's error envelope. Older deployments
// use error_description, newer ones msg.
type goTrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

func (e *goTrueError) text() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	default:
		return e.ErrorDescription
	}
}

func (a *AuthClient) do(ctx context.Context, method, path, bearer string, payload any, out any) error {
	url := fmt.Sprintf("%s/auth/v1/%s", a.baseURL, path)

	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("gotrue: request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge goTrueError
		_ = json.Unmarshal(respBody, &ge)
		msg := ge.text()
		if msg == "" {
			msg = string(respBody)
		}
		a.logger.Warn("gotrue: non-2xx response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("msg", msg),
		)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			return &domain.ErrUnauthenticated{Message: msg}
		}
		return &domain.ErrExternalService{Service: "supabase/auth", Err: fmt.Errorf("status %d: %s", resp.StatusCode, msg)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &domain.ErrExternalService{Service: "supabase/auth", Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// SignUp registers a new user. Depending on project settings the
// response may carry a session (auto-confirm) or only the user row.
func (a *AuthClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.AuthSession, error) {
	ctx, span := tracer.Start(ctx, "SupabaseAuth.SignUp")
	defer span.End()

	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}

	var raw json.RawMessage
	if err := a.do(ctx, http.MethodPost, "signup", "", payload, &raw); err != nil {
		return nil, err
	}

	var session domain.AuthSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: fmt.Errorf("decode signup: %w", err)}
	}
	if session.User.ID == "" {
		// Confirm-email flow: the signup response is the bare user object.
		if err := json.Unmarshal(raw, &session.User); err != nil {
			return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: fmt.Errorf("decode signup user: %w", err)}
		}
	}
	return &session, nil
}

// SignInWithPassword exchanges credentials for a session.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	ctx, span := tracer.Start(ctx, "SupabaseAuth.SignIn")
	defer span.End()

	payload := map[string]any{
		"email":    email,
		"password": password,
	}

	var session domain.AuthSession
	if err := a.do(ctx, http.MethodPost, "token?grant_type=password", "", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshSession exchanges a refresh token for a fresh session.
func (a *AuthClient) RefreshSession(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	ctx, span := tracer.Start(ctx, "SupabaseAuth.Refresh")
	defer span.End()

	payload := map[string]any{"refresh_token": refreshToken}

	var session domain.AuthSession
	if err := a.do(ctx, http.MethodPost, "token?grant_type=refresh_token", "", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the session behind the access token.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "SupabaseAuth.SignOut")
	defer span.End()

	return a.do(ctx, http.MethodPost, "logout", accessToken, nil, nil)
}

// GetUser resolves the user behind an access token.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*domain.AuthUser, error) {
	ctx, span := tracer.Start(ctx, "SupabaseAuth.GetUser")
	defer span.End()

	var user domain.AuthUser
	if err := a.do(ctx, http.MethodGet, "user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &domain.ErrUnauthenticated{}
	}
	return &user, nil
}
