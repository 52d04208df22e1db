package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/clicker-autopilot/internal/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "accounts.yaml", cfg.AccountsFile)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)

	assert.True(t, cfg.AutoUpgrade)
	assert.Equal(t, 0.1, cfg.MinSignificance)
	assert.Equal(t, int64(10000), cfg.BalanceToSave)
	assert.Equal(t, 20, cfg.MaxLevel)
	assert.Equal(t, 1.0, cfg.ExpireMultiplier)
	assert.False(t, cfg.PrioritizeFirstLevel)

	assert.True(t, cfg.ApplyDailyEnergy)
	assert.Equal(t, 200*time.Second, cfg.SleepByMinEnergy)

	assert.False(t, cfg.AutoClaimDailyCipher)
	assert.False(t, cfg.AutoFinishMiniGame)
	assert.False(t, cfg.AutoBuyCombo)
	assert.Equal(t, "bybit", cfg.DefaultExchange)
	assert.Empty(t, cfg.PromoCodes)
}

func TestParsePromoCodes(t *testing.T) {
	t.Run("pairs", func(t *testing.T) {
		codes := parsePromoCodes("event_bike_ride_3d:BIKE-1, event_train_miner:TRAIN-1")
		assert.Equal(t, map[types.EventID]string{
			types.EventBikeRide:   "BIKE-1",
			types.EventTrainMiner: "TRAIN-1",
		}, codes)
	})

	t.Run("malformed pairs dropped", func(t *testing.T) {
		codes := parsePromoCodes("no-separator,:missing-id,missing-code:,event_cube_game:CUBE")
		assert.Equal(t, map[types.EventID]string{types.EventCubeGame: "CUBE"}, codes)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, parsePromoCodes(""))
	})
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BALANCE_TO_SAVE", "250000")
	t.Setenv("MIN_SIGNIFICANCE", "0.35")
	t.Setenv("MAX_LEVEL", "0")
	t.Setenv("AUTO_BUY_COMBO", "true")
	t.Setenv("SLEEP_BY_MIN_ENERGY", "15m")
	t.Setenv("DEFAULT_EXCHANGE", "okx")

	cfg := Load()

	assert.Equal(t, int64(250000), cfg.BalanceToSave)
	assert.Equal(t, 0.35, cfg.MinSignificance)
	assert.Zero(t, cfg.MaxLevel)
	assert.True(t, cfg.AutoBuyCombo)
	assert.Equal(t, 15*time.Minute, cfg.SleepByMinEnergy)
	assert.Equal(t, "okx", cfg.DefaultExchange)
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	t.Setenv("SOME_FLOAT", "nope")
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "forever")

	assert.Equal(t, 42, GetEnvAsInt("SOME_INT", 42))
	assert.Equal(t, 1.5, GetEnvAsFloat("SOME_FLOAT", 1.5))
	assert.True(t, GetEnvAsBool("SOME_BOOL", true))
	assert.Equal(t, time.Minute, GetEnvAsDuration("SOME_DURATION", time.Minute))
}

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRoster(t *testing.T) {
	path := writeRoster(t, `
accounts:
  - name: main
    proof: "query_id=abc"
  - name: alt
    proof: "query_id=def"
    proxy: "socks5://127.0.0.1:1080"
`)

	roster, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, roster.Accounts, 2)
	assert.Equal(t, "main", roster.Accounts[0].Name)
	assert.Equal(t, "query_id=abc", roster.Accounts[0].Proof)
	assert.Equal(t, "socks5://127.0.0.1:1080", roster.Accounts[1].Proxy)
}

func TestLoadRosterRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty roster", "accounts: []"},
		{"missing name", "accounts:\n  - proof: abc"},
		{"missing proof", "accounts:\n  - name: main"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRoster(writeRoster(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadRosterMissingFile(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
