package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig
	Timing    TimingConfig
	Device    DeviceConfig
	App       AppConfig
	OCR       OCRConfig
	Reconcile ReconcileConfig

	APIAccounts     []string                        `mapstructure:"api_accounts"`
	VirtualAccounts map[string]VirtualAccountConfig `mapstructure:"virtual_accounts"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string
	Port int
}

// TimingConfig holds scheduling settings.
type TimingConfig struct {
	StartHour       int    `mapstructure:"start_hour"`
	Timezone        string `mapstructure:"timezone"`
	CooldownMinutes int    `mapstructure:"cooldown_minutes"`
}

// DeviceConfig holds adb settings. The PIN should come from the environment
// (BANKAUTO_DEVICE_PIN), not the config file.
type DeviceConfig struct {
	ADBPath string `mapstructure:"adb_path"`
	Serial  string
	PIN     string `mapstructure:"pin"`
}

// AppConfig holds the banking app identity and layout constants.
type AppConfig struct {
	Package        string
	Activity       string
	HomeMarker     string `mapstructure:"home_marker"`
	WidgetTapX     int    `mapstructure:"widget_tap_x"`
	ScrollAttempts int    `mapstructure:"scroll_attempts"`
	UseOCR         bool   `mapstructure:"use_ocr"`
	IncomeLabel    string `mapstructure:"income_label"`
}

// OCRConfig holds the OCR service endpoint, required only with use_ocr.
type OCRConfig struct {
	URL string
}

// ReconcileConfig holds the correction policy.
type ReconcileConfig struct {
	Threshold     float64
	MaxCorrection float64 `mapstructure:"max_correction"`
	Label         string
	Category      string
}

// VirtualAccountConfig describes one externally reconciled account.
type VirtualAccountConfig struct {
	DataURL         string   `mapstructure:"data_url"`
	BalanceKeyPath  []string `mapstructure:"json_balance_key_path"`
	ForeignCurrency string   `mapstructure:"foreign_currency"`
}

// Load reads configuration from config.json and env. Env var overrides use
// prefix BANKAUTO_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("timing.start_hour", 22)
	v.SetDefault("timing.timezone", "Europe/Berlin")
	v.SetDefault("timing.cooldown_minutes", 30)
	v.SetDefault("device.adb_path", "adb")
	v.SetDefault("device.serial", "")
	v.SetDefault("device.pin", "")
	v.SetDefault("app.package", "de.dwins.financeguru")
	v.SetDefault("app.activity", ".MainActivity")
	v.SetDefault("app.home_marker", "Übersicht")
	v.SetDefault("app.widget_tap_x", 580)
	v.SetDefault("app.scroll_attempts", 5)
	v.SetDefault("app.use_ocr", false)
	v.SetDefault("app.income_label", "")
	v.SetDefault("ocr.url", "")
	v.SetDefault("reconcile.threshold", 10.0)
	v.SetDefault("reconcile.max_correction", 0.0)
	v.SetDefault("reconcile.label", "Balance correction")
	v.SetDefault("reconcile.category", "Sonstiges")
	v.SetDefault("api_accounts", []string{})

	v.SetConfigType("json")

	cfgPath := os.Getenv("BANKAUTO_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BANKAUTO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A searched-for config file is optional; a broken file, or a missing
	// one named explicitly via BANKAUTO_CONFIG, must not silently fall
	// back to defaults.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
