package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GATEWAY_MODE", "")
	t.Setenv("AUTOSAVE_INTERVAL", "")
	t.Setenv("SESSION_IDLE_TIMEOUT", "")
	t.Setenv("RPC_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, GatewayModeStore, cfg.GatewayMode)
	assert.Equal(t, 60*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, 15*time.Second, cfg.RPCTimeout)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "45")
	assert.Equal(t, 45*time.Second, getEnvDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("TEST_DURATION", time.Minute))
}

func TestValidate(t *testing.T) {
	valid := Config{
		GatewayMode:        GatewayModeStore,
		AutosaveInterval:   time.Minute,
		SessionIdleTimeout: time.Hour,
	}
	require.NoError(t, valid.Validate())

	rpc := valid
	rpc.GatewayMode = GatewayModeRPC
	assert.Error(t, rpc.Validate())
	rpc.RPCBaseURL = "http://localhost:8080/api/v1"
	assert.NoError(t, rpc.Validate())

	unknown := valid
	unknown.GatewayMode = "carrier-pigeon"
	assert.Error(t, unknown.Validate())

	noInterval := valid
	noInterval.AutosaveInterval = 0
	assert.Error(t, noInterval.Validate())

	noIdle := valid
	noIdle.SessionIdleTimeout = -time.Second
	assert.Error(t, noIdle.Validate())
}

func TestSetJWTKeepsSecretWhenEmpty(t *testing.T) {
	secret, expiration := JWTSecret, JWTExpiration
	t.Cleanup(func() { JWTSecret, JWTExpiration = secret, expiration })

	SetJWT("", 0)
	assert.Equal(t, secret, JWTSecret)
	assert.Equal(t, expiration, JWTExpiration)

	SetJWT("new-secret", time.Hour)
	assert.Equal(t, []byte("new-secret"), JWTSecret)
	assert.Equal(t, time.Hour, JWTExpiration)
}
