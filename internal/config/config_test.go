package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_USER", "tonight")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "tonight")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
}

func TestNew_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Broker.AMQPURL)
	assert.Equal(t, 2*time.Hour, cfg.Window.Pre)
	assert.Equal(t, 36*time.Hour, cfg.Window.Post)
}

func TestNew_WindowOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECKIN_PRE_HOURS", "36")
	t.Setenv("CHECKIN_POST_HOURS", "12")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 36*time.Hour, cfg.Window.Pre)
	assert.Equal(t, 12*time.Hour, cfg.Window.Post)
}

func TestNew_BadIntEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECKIN_PRE_HOURS", "soon")

	_, err := New()
	require.Error(t, err)
}

func TestNew_MissingRequired(t *testing.T) {
	t.Setenv("POSTGRES_USER", "tonight")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "tonight")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := New()
	require.Error(t, err)
}
