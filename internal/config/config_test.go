package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "adar-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.MetricsAddr != ":9109" {
		t.Fatalf("unexpected App.MetricsAddr: %s", cfg.App.MetricsAddr)
	}
	if cfg.Routing.InputAsset != "XOR" {
		t.Fatalf("unexpected Routing.InputAsset: %s", cfg.Routing.InputAsset)
	}
	if cfg.Routing.DefaultAsset != "XOR" {
		t.Fatalf("unexpected Routing.DefaultAsset: %s", cfg.Routing.DefaultAsset)
	}
	if len(cfg.Routing.LiquiditySources) != 1 || cfg.Routing.LiquiditySources[0] != "XYKPool" {
		t.Fatalf("unexpected liquidity sources: %+v", cfg.Routing.LiquiditySources)
	}
	if cfg.Routing.SlippageBps != 50 {
		t.Fatalf("unexpected slippage: %d", cfg.Routing.SlippageBps)
	}
	if cfg.Routing.SubscriptionWarmupMs != 2500 {
		t.Fatalf("unexpected warmup: %d", cfg.Routing.SubscriptionWarmupMs)
	}
	if cfg.Routing.RunTimeoutSecs != 120 {
		t.Fatalf("unexpected run timeout: %d", cfg.Routing.RunTimeoutSecs)
	}
	if cfg.Chain.GatewayURL != "https://gateway.example.org" {
		t.Fatalf("unexpected gateway url: %s", cfg.Chain.GatewayURL)
	}
	if cfg.Chain.GatewayWSURL != "wss://gateway.example.org" {
		t.Fatalf("unexpected gateway ws url: %s", cfg.Chain.GatewayWSURL)
	}
	if cfg.Chain.SignerAddress == "" {
		t.Fatalf("expected signer address")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{}
	cfg.App.Name = "adar"
	cfg.Routing.InputAsset = "XOR"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.App.Name != "adar" || loaded.Routing.InputAsset != "XOR" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestSaveNil(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "x.yaml"), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
