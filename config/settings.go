package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	minTemperature = 0.0
	maxTemperature = 2.0
	minMaxTokens   = 16
	maxMaxTokens   = 4000
	minSlots       = 1
	maxSlots       = 32

	defaultModel          = "auto"
	defaultMaxTokens      = 300
	defaultTemperature    = 0.7
	defaultTimeoutSeconds = 60
	defaultSidecarSlots   = 2
)

// AISettings controls the enrichment client. Persisted as a small JSON
// document; sanitized on every load and every update.
type AISettings struct {
	Enabled        bool    `json:"enabled"`
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// AdvancedSettings controls startup reconciliation behavior and the
// cross-process sidecar-creation throttle.
type AdvancedSettings struct {
	StartupEnrichment      bool `json:"startup_enrichment"`
	StartupSidecarCreation bool `json:"startup_sidecar_creation"`
	SidecarSlots           int  `json:"sidecar_slots"`
}

func defaultAISettings() AISettings {
	return AISettings{
		Enabled:        getEnvBoolOrDefault("AI_ENRICHMENT_ENABLED", true),
		Model:          getEnvOrDefault("OPENAI_MODEL", defaultModel),
		Temperature:    getEnvFloatOrDefault("AI_TEMPERATURE", defaultTemperature),
		MaxTokens:      getEnvIntOrDefault("AI_MAX_TOKENS", defaultMaxTokens),
		TimeoutSeconds: getEnvIntOrDefault("AI_REQUEST_TIMEOUT_SECONDS", defaultTimeoutSeconds),
	}
}

func defaultAdvancedSettings() AdvancedSettings {
	return AdvancedSettings{
		StartupEnrichment:      getEnvBoolOrDefault("STARTUP_ENRICHMENT", true),
		StartupSidecarCreation: getEnvBoolOrDefault("STARTUP_SIDECAR_CREATION", true),
		SidecarSlots:           getEnvIntOrDefault("SIDECAR_SLOTS", defaultSidecarSlots),
	}
}

func sanitizeAISettings(s AISettings) AISettings {
	if s.Model == "" {
		s.Model = defaultModel
	}
	if s.Temperature < minTemperature {
		s.Temperature = minTemperature
	}
	if s.Temperature > maxTemperature {
		s.Temperature = maxTemperature
	}
	if s.MaxTokens < minMaxTokens {
		s.MaxTokens = minMaxTokens
	}
	if s.MaxTokens > maxMaxTokens {
		s.MaxTokens = maxMaxTokens
	}
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = defaultTimeoutSeconds
	}
	return s
}

func sanitizeAdvancedSettings(s AdvancedSettings) AdvancedSettings {
	if s.SidecarSlots < minSlots {
		s.SidecarSlots = minSlots
	}
	if s.SidecarSlots > maxSlots {
		s.SidecarSlots = maxSlots
	}
	return s
}

// Settings is the process-wide configuration state. Each process loads its
// own copy from disk and may see a stale copy of another process's updates
// until restart; that is accepted.
type Settings struct {
	mu      sync.Mutex
	aiPath  string
	advPath string
	ai      AISettings
	adv     AdvancedSettings
}

// LoadSettings reads both settings documents, falling back to
// environment-derived defaults when a document is missing or unreadable, and
// sanitizes whatever it ends up with.
func LoadSettings(aiPath, advPath string) *Settings {
	s := &Settings{aiPath: aiPath, advPath: advPath}

	s.ai = defaultAISettings()
	if err := readJSON(aiPath, &s.ai); err != nil && !os.IsNotExist(err) {
		log.Printf("settings: error reading %s, using defaults: %v", aiPath, err)
		s.ai = defaultAISettings()
	}
	s.ai = sanitizeAISettings(s.ai)

	s.adv = defaultAdvancedSettings()
	if err := readJSON(advPath, &s.adv); err != nil && !os.IsNotExist(err) {
		log.Printf("settings: error reading %s, using defaults: %v", advPath, err)
		s.adv = defaultAdvancedSettings()
	}
	s.adv = sanitizeAdvancedSettings(s.adv)

	return s
}

// AI returns a copy of the current AI settings.
func (s *Settings) AI() AISettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ai
}

// Advanced returns a copy of the current advanced settings.
func (s *Settings) Advanced() AdvancedSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adv
}

// UpdateAI sanitizes and persists new AI settings, returning the sanitized
// values actually stored.
func (s *Settings) UpdateAI(next AISettings) (AISettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next = sanitizeAISettings(next)
	if err := writeJSONAtomic(s.aiPath, next); err != nil {
		return s.ai, err
	}
	s.ai = next
	return next, nil
}

// UpdateAdvanced sanitizes and persists new advanced settings.
func (s *Settings) UpdateAdvanced(next AdvancedSettings) (AdvancedSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next = sanitizeAdvancedSettings(next)
	if err := writeJSONAtomic(s.advPath, next); err != nil {
		return s.adv, err
	}
	s.adv = next
	return next, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp settings file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
