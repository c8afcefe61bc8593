package config

import (
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STATIC_DIRECTORY", filepath.Join(dir, "static"))
	t.Setenv("IMAGES_SUBDIR", "artwork")
	t.Setenv("DATA_DIRECTORY", filepath.Join(dir, "data"))
	t.Setenv("SCAN_INTERVAL_SECONDS", "30")
	t.Setenv("ENRICHMENT_QUEUE_SIZE", "")
	t.Setenv("NUM_ENRICHMENT_WORKERS", "")
	t.Setenv("GALLERY_TITLE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ImagesPath != filepath.Join(dir, "static", "artwork") {
		t.Errorf("images path = %q", cfg.ImagesPath)
	}
	if cfg.LocksPath != filepath.Join(dir, "data", "locks") {
		t.Errorf("locks path = %q", cfg.LocksPath)
	}
	if cfg.ScanIntervalSeconds != 30 {
		t.Errorf("scan interval = %d, want 30", cfg.ScanIntervalSeconds)
	}
	if cfg.EnrichmentQueueSize != defaultEnrichmentQueueSize {
		t.Errorf("queue size = %d, want default", cfg.EnrichmentQueueSize)
	}
	if cfg.GalleryTitle != "Artwork Gallery" {
		t.Errorf("title = %q, want Artwork Gallery", cfg.GalleryTitle)
	}
}

func TestGetEnvIntOrDefaultRejectsInvalid(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 7},
		{"abc", 7},
		{"-2", 7},
		{"0", 7},
		{"12", 12},
	}
	for _, tt := range tests {
		t.Setenv("TEST_INT_VAR", tt.value)
		if got := getEnvIntOrDefault("TEST_INT_VAR", 7); got != tt.want {
			t.Errorf("getEnvIntOrDefault(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"YES", true},
		{"false", false},
		{"0", false},
		{"No", false},
		{"", true},
		{"maybe", true},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL_VAR", tt.value)
		if got := getEnvBoolOrDefault("TEST_BOOL_VAR", true); got != tt.want {
			t.Errorf("getEnvBoolOrDefault(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
