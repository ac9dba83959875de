package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solbol.backend/internal/config"
	"solbol.backend/pkg/jwt"
)

func accessTokenFrom(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if token, ok := strings.CutPrefix(line, "ACCESS_TOKEN="); ok {
			return token
		}
	}
	t.Fatalf("no ACCESS_TOKEN line in %q", out)
	return ""
}

func TestParseTokenRequest(t *testing.T) {
	id := uuid.New()

	_, err := parseTokenRequest([]string{"-email", "a@b.pe"})
	require.ErrorContains(t, err, "--user-id")

	_, err = parseTokenRequest([]string{"-user-id", "nope", "-email", "a@b.pe"})
	require.ErrorContains(t, err, "invalid --user-id")

	_, err = parseTokenRequest([]string{"-user-id", id.String()})
	require.ErrorContains(t, err, "--email")

	_, err = parseTokenRequest([]string{"-user-id", id.String(), "-email", "a@b.pe", "-ttl", "-1m"})
	require.Error(t, err)

	req, err := parseTokenRequest([]string{"-user-id", id.String(), "-email", " Ana@B.pe "})
	require.NoError(t, err)
	assert.Equal(t, id, req.userID)
	assert.Equal(t, "ana@b.pe", req.email)
	assert.Equal(t, "authenticated", req.role)
}

func TestRunDevtoken_WithExplicitSecret(t *testing.T) {
	id := uuid.New()
	var out bytes.Buffer
	err := runDevtoken([]string{
		"-user-id", id.String(), "-email", "ana@b.pe",
		"-secret", "dev-secret", "-audience", "authenticated", "-ttl", "10m",
	}, devtokenDeps{
		loadCfg: func() (*config.Config, error) {
			t.Fatal("config must not be loaded when every value is given")
			return nil, nil
		},
		out: &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "expires_in=600")

	verifier := jwt.NewJWTService("dev-secret", time.Minute, time.Minute, jwt.WithAudience("authenticated"))
	claims, err := verifier.ValidateToken(accessTokenFrom(t, out.String()))
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, "ana@b.pe", claims.Email)
}

func TestRunDevtoken_FallsBackToConfig(t *testing.T) {
	id := uuid.New()
	var out bytes.Buffer
	err := runDevtoken([]string{"-user-id", id.String(), "-email", "ana@b.pe"}, devtokenDeps{
		loadEnv: func() error { return errors.New("no .env") },
		loadCfg: func() (*config.Config, error) {
			return &config.Config{Auth: config.AuthConfig{
				JWTSecret:    "from-config",
				Audience:     "authenticated",
				AccessExpiry: 30 * time.Minute,
			}}, nil
		},
		out: &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "expires_in=1800")

	verifier := jwt.NewJWTService("from-config", time.Minute, time.Minute, jwt.WithAudience("authenticated"))
	_, err = verifier.ValidateToken(accessTokenFrom(t, out.String()))
	require.NoError(t, err)
}

func TestRunDevtoken_Errors(t *testing.T) {
	id := uuid.New().String()

	err := runDevtoken([]string{"-user-id", id, "-email", "a@b.pe"}, devtokenDeps{
		loadEnv: func() error { return nil },
		loadCfg: func() (*config.Config, error) { return nil, errors.New("bad env") },
	})
	require.ErrorContains(t, err, "failed to load config")

	err = runDevtoken([]string{"-user-id", id, "-email", "a@b.pe"}, devtokenDeps{
		loadEnv: func() error { return nil },
		loadCfg: func() (*config.Config, error) { return &config.Config{}, nil },
	})
	require.ErrorContains(t, err, "no signing secret")
}
