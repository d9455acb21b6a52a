package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRequiresReplay(t *testing.T) {
	t.Parallel()
	if _, err := ParseFlags(nil); err == nil {
		t.Error("Parse(nil) should fail without --replay")
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := ParseFlags([]string{"--replay", "events.csv"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := Defaults()
	want.Replay = "events.csv"
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestParseOverridesDefaultsFromFlags(t *testing.T) {
	t.Parallel()
	cfg, err := ParseFlags([]string{
		"--replay", "events.csv",
		"--inv-cap", "50",
		"--mode", "avs",
		"--avs-gamma", "0.001",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.InvCap != 50 {
		t.Errorf("InvCap = %d, want 50", cfg.InvCap)
	}
	if cfg.Mode != "avs" {
		t.Errorf("Mode = %q, want avs", cfg.Mode)
	}
	if cfg.AvsGamma != 0.001 {
		t.Errorf("AvsGamma = %v, want 0.001", cfg.AvsGamma)
	}
}

func TestParseRejectsUnknownMode(t *testing.T) {
	t.Parallel()
	if _, err := ParseFlags([]string{"--replay", "events.csv", "--mode", "bogus"}); err == nil {
		t.Error("Parse() should reject an unknown --mode")
	}
}

func TestParseYAMLOverlayFillsUnsetFlags(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	yaml := "inv_cap: 25\nthrottle: 10\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := ParseFlags([]string{"--replay", "events.csv", "--config", path})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.InvCap != 25 {
		t.Errorf("InvCap = %d, want 25 (from YAML overlay)", cfg.InvCap)
	}
	if cfg.Throttle != 10 {
		t.Errorf("Throttle = %d, want 10 (from YAML overlay)", cfg.Throttle)
	}
}

func TestParseFlagWinsOverYAMLOverlay(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	if err := os.WriteFile(path, []byte("inv_cap: 25\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := ParseFlags([]string{"--replay", "events.csv", "--config", path, "--inv-cap", "77"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.InvCap != 77 {
		t.Errorf("InvCap = %d, want 77 (flag beats YAML overlay)", cfg.InvCap)
	}
}
