package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultImagesSubDir = "images"
	DefaultLocksSubDir  = "locks"

	defaultScanIntervalSeconds  = 5
	defaultEnrichmentQueueSize  = 100
	defaultNumEnrichmentWorkers = 2
)

type Config struct {
	// static root served by the HTTP layer; images live in a subdirectory
	StaticPath string
	ImagesPath string

	// data directory for persisted settings and lock files
	DataPath  string
	LocksPath string

	// persisted settings documents
	AISettingsPath       string
	AdvancedSettingsPath string

	// periodic reconciliation interval, seconds
	ScanIntervalSeconds int

	// in-process enrichment worker settings
	EnrichmentQueueSize  int
	NumEnrichmentWorkers int

	// presentation
	GalleryTitle string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(valStr)) {
	case "true", "1", "yes", "y":
		return true
	case "false", "0", "no", "n":
		return false
	}
	log.Printf("Warning: Invalid %s '%s'. Using default %t.", envVar, valStr, defaultVal)
	return defaultVal
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	static := getEnvOrDefault("STATIC_DIRECTORY", "static")
	absStatic, err := filepath.Abs(static)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for static directory '%s': %w", static, err)
	}

	imagesSubDir := getEnvOrDefault("IMAGES_SUBDIR", DefaultImagesSubDir)
	absImagesPath := filepath.Join(absStatic, imagesSubDir)

	data := getEnvOrDefault("DATA_DIRECTORY", "data")
	absData, err := filepath.Abs(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for data directory '%s': %w", data, err)
	}

	cfg := Config{
		StaticPath:           absStatic,
		ImagesPath:           absImagesPath,
		DataPath:             absData,
		LocksPath:            filepath.Join(absData, DefaultLocksSubDir),
		AISettingsPath:       filepath.Join(absData, "ai_settings.json"),
		AdvancedSettingsPath: filepath.Join(absData, "advanced_settings.json"),
		ScanIntervalSeconds:  getEnvIntOrDefault("SCAN_INTERVAL_SECONDS", defaultScanIntervalSeconds),
		EnrichmentQueueSize:  getEnvIntOrDefault("ENRICHMENT_QUEUE_SIZE", defaultEnrichmentQueueSize),
		NumEnrichmentWorkers: getEnvIntOrDefault("NUM_ENRICHMENT_WORKERS", defaultNumEnrichmentWorkers),
		GalleryTitle:         getEnvOrDefault("GALLERY_TITLE", "Artwork Gallery"),
	}

	return cfg, nil
}
