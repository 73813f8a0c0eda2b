package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MARKETPLACE_CONFIG", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("FEE_TOKEN", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "50051", cfg.Server.GRPCPort)
	assert.Equal(t, "USDC", cfg.Marketplace.FeeToken)
	assert.Equal(t, uint16(500), cfg.Marketplace.Policy.InitialPlatformFeeBps)
	assert.Equal(t, uint16(200), cfg.Marketplace.Policy.InitialCreatorRoyaltyBps)
	assert.Equal(t, 60*time.Second, cfg.Marketplace.Policy.OperationCooldown)
	assert.Equal(t, uint64(100), cfg.Marketplace.Policy.MaxQuestionsPerUser)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MARKETPLACE_CONFIG", "")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("FEE_TOKEN", "BONK")
	t.Setenv("OPERATION_COOLDOWN", "90s")
	t.Setenv("MAX_QUESTIONS_PER_USER", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "BONK", cfg.Marketplace.FeeToken)
	assert.Equal(t, 90*time.Second, cfg.Marketplace.Policy.OperationCooldown)
	assert.Equal(t, uint64(5), cfg.Marketplace.Policy.MaxQuestionsPerUser)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fees:
  platform_fee_bps: 750
  creator_royalty_bps: 0
limits:
  max_questions_per_user: 20
  operation_cooldown: 2m
token:
  symbol: BONK
  decimals: 5
`), 0o600))

	t.Setenv("MARKETPLACE_CONFIG", path)
	t.Setenv("FEE_TOKEN", "")
	t.Setenv("OPERATION_COOLDOWN", "")
	t.Setenv("MAX_QUESTIONS_PER_USER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	p := cfg.Marketplace.Policy
	assert.Equal(t, uint16(750), p.InitialPlatformFeeBps)
	assert.Equal(t, uint16(0), p.InitialCreatorRoyaltyBps)
	assert.Equal(t, uint64(20), p.MaxQuestionsPerUser)
	assert.Equal(t, 2*time.Minute, p.OperationCooldown)
	assert.Equal(t, 5000, p.MaxAnswerLength)
	assert.Equal(t, "BONK", cfg.Marketplace.FeeToken)
	assert.Equal(t, int32(5), cfg.Marketplace.FeeTokenDecimals)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("FeeAboveCap", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "marketplace.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fees:\n  platform_fee_bps: 1001\n"), 0o600))
		t.Setenv("MARKETPLACE_CONFIG", path)

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("AttestationWithoutKey", func(t *testing.T) {
		t.Setenv("MARKETPLACE_CONFIG", "")
		t.Setenv("REQUIRE_ATTESTATION", "true")
		t.Setenv("VALIDATOR_PUBLIC_KEY", "")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		t.Setenv("MARKETPLACE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
