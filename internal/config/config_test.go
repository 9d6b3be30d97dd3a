package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BANKAUTO_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 22, cfg.Timing.StartHour)
	assert.Equal(t, "Europe/Berlin", cfg.Timing.Timezone)
	assert.Equal(t, "adb", cfg.Device.ADBPath)
	assert.Equal(t, "Übersicht", cfg.App.HomeMarker)
	assert.Equal(t, 10.0, cfg.Reconcile.Threshold)
	assert.Empty(t, cfg.App.IncomeLabel)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server": {"port": 9000},
		"device": {"serial": "emulator-5554", "pin": "1234"},
		"api_accounts": ["Giro"],
		"virtual_accounts": {
			"Crypto": {
				"data_url": "https://example.test/portfolio",
				"json_balance_key_path": ["data", "balance"],
				"foreign_currency": "USDT"
			}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("BANKAUTO_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "emulator-5554", cfg.Device.Serial)
	assert.Equal(t, []string{"Giro"}, cfg.APIAccounts)

	require.Contains(t, cfg.VirtualAccounts, "Crypto")
	crypto := cfg.VirtualAccounts["Crypto"]
	assert.Equal(t, "https://example.test/portfolio", crypto.DataURL)
	assert.Equal(t, []string{"data", "balance"}, crypto.BalanceKeyPath)
	assert.Equal(t, "USDT", crypto.ForeignCurrency)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {`), 0644))
	t.Setenv("BANKAUTO_CONFIG", path)

	_, err := Load()
	assert.Error(t, err, "a broken config must never fall back to defaults")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("BANKAUTO_CONFIG", filepath.Join(t.TempDir(), "absent.json"))

	_, err := Load()
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BANKAUTO_CONFIG", "")
	t.Setenv("BANKAUTO_DEVICE_PIN", "9876")
	t.Setenv("BANKAUTO_SERVER_PORT", "9001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9876", cfg.Device.PIN)
	assert.Equal(t, 9001, cfg.Server.Port)
}
