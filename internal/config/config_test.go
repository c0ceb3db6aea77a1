package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rslc.yaml")

	content := "errorLimit: 20\n" +
		"includePaths:\n  - ./shaders/include\n" +
		"toleratesUnresolvedIdentifiers: false\n" +
		"defaultCoordinateSystem: world\n"

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.ErrorLimit == nil || *cfg.ErrorLimit != 20 {
		t.Errorf("ErrorLimit: got %v, want 20", cfg.ErrorLimit)
	}
	if len(cfg.IncludePaths) != 1 || cfg.IncludePaths[0] != "./shaders/include" {
		t.Errorf("IncludePaths: got %v", cfg.IncludePaths)
	}
	if cfg.ToleratesUnresolvedIdentifiers == nil || *cfg.ToleratesUnresolvedIdentifiers != false {
		t.Errorf("ToleratesUnresolvedIdentifiers: got %v, want false", cfg.ToleratesUnresolvedIdentifiers)
	}
	if cfg.DefaultCoordinateSystem == nil || *cfg.DefaultCoordinateSystem != "world" {
		t.Errorf("DefaultCoordinateSystem: got %v, want world", cfg.DefaultCoordinateSystem)
	}
}

func TestLoadWalksParentDirectories(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "rslc.yaml"), []byte("errorLimit: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := Load(nested)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected to find a config file by walking up")
	}
	if *cfg.ErrorLimit != 5 {
		t.Errorf("ErrorLimit = %d, want 5", *cfg.ErrorLimit)
	}
	if filepath.Base(path) != "rslc.yaml" {
		t.Errorf("path = %q, want rslc.yaml", path)
	}
}

func TestLoadReturnsNilWhenNotFound(t *testing.T) {
	root := t.TempDir()
	cfg, path, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg != nil || path != "" {
		t.Fatalf("expected no config found, got cfg=%v path=%q", cfg, path)
	}
}

func TestToOptionsFillsDefaults(t *testing.T) {
	var cfg Config
	opts := cfg.ToOptions()
	want := DefaultOptions()
	if opts.ErrorLimit != want.ErrorLimit ||
		opts.ToleratesUnresolvedIdentifiers != want.ToleratesUnresolvedIdentifiers ||
		opts.DefaultCoordinateSystem != want.DefaultCoordinateSystem ||
		opts.DefaultColorSpace != want.DefaultColorSpace {
		t.Fatalf("ToOptions() on empty config = %+v, want defaults %+v", opts, want)
	}
}

func TestMergeCLIOverridesConfig(t *testing.T) {
	limit := 10
	cfg := &Config{ErrorLimit: &limit}
	cliLimit := 99
	opts := cfg.Merge(MergeOptions{ErrorLimit: &cliLimit})
	if opts.ErrorLimit != 99 {
		t.Fatalf("ErrorLimit = %d, want CLI override 99", opts.ErrorLimit)
	}
}
