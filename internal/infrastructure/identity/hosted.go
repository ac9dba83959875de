package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	domainerrors "solbol.backend/internal/domain/errors"
)

// HostedProvider is a REST client for the hosted auth service.
type HostedProvider struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	httpClient     *http.Client
}

// NewHostedProvider creates a client rooted at baseURL (the project URL,
// without /auth/v1).
func NewHostedProvider(baseURL, anonKey, serviceRoleKey string, client *http.Client) *HostedProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HostedProvider{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/auth/v1",
		anonKey:        anonKey,
		serviceRoleKey: serviceRoleKey,
		httpClient:     client,
	}
}

type hostedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// hostedSession covers both shapes returned by signup: a full session, or a
// bare user when email confirmation is pending.
type hostedSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         *hostedUser `json:"user"`
	ID           string      `json:"id"`
	Email        string      `json:"email"`
}

type hostedError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Code             string `json:"error_code"`
}

func (e hostedError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return "identity provider error"
}

func (p *HostedProvider) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}

	var out hostedSession
	status, herr, err := p.do(ctx, http.MethodPost, "/signup", p.anonKey, "", payload, &out)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		msg := strings.ToLower(herr.text())
		if strings.Contains(msg, "already registered") || herr.Code == "user_already_exists" || herr.Code == "email_exists" {
			return nil, domainerrors.ErrAlreadyExists
		}
		return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeBadRequest, herr.text(), domainerrors.ErrBadRequest)
	}
	return out.toSession()
}

func (p *HostedProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var out hostedSession
	status, _, err := p.do(ctx, http.MethodPost, "/token?grant_type=password", p.anonKey, "",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		if status < 500 {
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("identity provider returned status %d", status)
	}
	return out.toSession()
}

func (p *HostedProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var out hostedSession
	status, _, err := p.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", p.anonKey, "",
		map[string]string{"refresh_token": refreshToken}, &out)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		if status < 500 {
			return nil, domainerrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("identity provider returned status %d", status)
	}
	return out.toSession()
}

// SignOut revokes the refresh tokens of the session behind accessToken.
func (p *HostedProvider) SignOut(ctx context.Context, accessToken string) error {
	status, _, err := p.do(ctx, http.MethodPost, "/logout", p.anonKey, accessToken, nil, nil)
	if err != nil {
		return err
	}
	// an already expired token is as good as signed out
	if status >= 400 && status != http.StatusUnauthorized && status != http.StatusNotFound {
		return fmt.Errorf("identity provider returned status %d", status)
	}
	return nil
}

// DeleteUser removes the account with the service role key.
func (p *HostedProvider) DeleteUser(ctx context.Context, id uuid.UUID) error {
	status, _, err := p.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id.String()), p.serviceRoleKey, p.serviceRoleKey, nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return domainerrors.ErrNotFound
	}
	if status >= 400 {
		return fmt.Errorf("identity provider returned status %d", status)
	}
	return nil
}

func (p *HostedProvider) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	status, herr, err := p.do(ctx, http.MethodPost, path, p.anonKey, "", map[string]string{"email": email}, nil)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		return domainerrors.ErrRateLimited
	}
	if status >= 400 {
		return fmt.Errorf("identity provider returned status %d: %s", status, herr.text())
	}
	return nil
}

func (p *HostedProvider) do(ctx context.Context, method, path, apiKey, bearer string, payload, out interface{}) (int, hostedError, error) {
	var herr hostedError

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, herr, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return 0, herr, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", apiKey)
	if bearer == "" {
		bearer = apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, herr, fmt.Errorf("failed to reach identity provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, herr, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		_ = json.Unmarshal(raw, &herr)
		return resp.StatusCode, herr, nil
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, herr, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, herr, nil
}

func (s *hostedSession) toSession() (*Session, error) {
	id, email := s.ID, s.Email
	if s.User != nil {
		id, email = s.User.ID, s.User.Email
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("identity provider returned invalid user id %q", id)
	}
	return &Session{
		UserID:       userID,
		Email:        email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
	}, nil
}
