package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	r := newTestRouter(nil)
	r.GET("/health", NewHealthHandler(map[string]HealthCheck{"database": up, "redis": up}).Health)
	w := doJSON(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "up", "redis": "up"}, body["checks"])

	r = newTestRouter(nil)
	r.GET("/health", NewHealthHandler(map[string]HealthCheck{"database": up, "redis": down}).Health)
	w = doJSON(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}
