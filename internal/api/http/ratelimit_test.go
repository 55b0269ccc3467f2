package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedApp(t *testing.T, limiter *LoginLimiter) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Post("/auth/login", limiter.Handle, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestLoginLimiterRejectsAfterBurst(t *testing.T) {
	limiter := NewLoginLimiter(LoginLimiterConfig{PerMinute: 6, Burst: 2})
	require.NotNil(t, limiter)
	t.Cleanup(limiter.Stop)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	app := newLimitedApp(t, limiter)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodPost, "/auth/login", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodPost, "/auth/login", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "10", resp.Header.Get(fiber.HeaderRetryAfter))

	now = now.Add(10 * time.Second)
	resp, err = app.Test(httptest.NewRequest(nethttp.MethodPost, "/auth/login", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)
}

func TestLoginLimiterDisabled(t *testing.T) {
	limiter := NewLoginLimiter(LoginLimiterConfig{})
	assert.Nil(t, limiter)
	limiter.Stop()

	app := newLimitedApp(t, limiter)
	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodPost, "/auth/login", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)
	}
}

func TestLoginLimiterCleanupDropsIdleClients(t *testing.T) {
	limiter := NewLoginLimiter(LoginLimiterConfig{PerMinute: 60, Burst: 1, CleanupInterval: time.Hour})
	t.Cleanup(limiter.Stop)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.2"))
	assert.Equal(t, 2, limiter.clientCount())

	now = now.Add(3 * time.Hour)
	limiter.cleanup()
	assert.Equal(t, 0, limiter.clientCount())
}
