// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Routing tunes how recipients are imported, priced, and executed.
type Routing struct {
	InputAsset           string   `yaml:"input_asset"`   // symbol of the payer's source currency
	DefaultAsset         string   `yaml:"default_asset"` // fallback for unresolved CSV symbols
	LiquiditySources     []string `yaml:"liquidity_sources"`
	EnabledAssets        []string `yaml:"enabled_assets"`
	SlippageBps          int      `yaml:"slippage_bps"`
	CSVPath              string   `yaml:"csv_path"`
	JournalPath          string   `yaml:"journal_path"`
	RunTimeoutSecs       int      `yaml:"run_timeout_secs"`
	SubscriptionWarmupMs int      `yaml:"subscription_warmup_ms"`
}

// Chain describes gateway connectivity and the signing account.
type Chain struct {
	GatewayURL    string `yaml:"gateway_url"`
	GatewayWSURL  string `yaml:"gateway_ws_url"`
	SignerAddress string `yaml:"signer_address"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App     App     `yaml:"app"`
	Routing Routing `yaml:"routing"`
	Chain   Chain   `yaml:"chain"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
