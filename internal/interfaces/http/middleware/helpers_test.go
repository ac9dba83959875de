package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"solbol.backend/internal/domain/entities"
	redispkg "solbol.backend/pkg/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() { _ = cli.Close() })
	return srv
}

type profileLoaderFunc func(ctx context.Context, id uuid.UUID) (*entities.User, error)

func (f profileLoaderFunc) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return f(ctx, id)
}

type sessionReaderFunc func(ctx context.Context, id string) (*redispkg.SessionData, error)

func (f sessionReaderFunc) GetSession(ctx context.Context, id string) (*redispkg.SessionData, error) {
	return f(ctx, id)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}
