package enrichment

import (
	"log"
	"os"
	"strings"
	"sync"
)

const (
	apiKeyEnvVar       = "OPENAI_API_KEY"
	legacyAPIKeyEnvVar = "OPENAI_KEY"
)

// CredentialSource resolves the provider API key with a fixed precedence:
// the primary environment variable, then the legacy variable name, then an
// optional local key file. Absence of a key is a normal configuration state.
type CredentialSource struct {
	keyFilePath string

	logOnce sync.Once
}

func NewCredentialSource(keyFilePath string) *CredentialSource {
	return &CredentialSource{keyFilePath: keyFilePath}
}

// Resolve returns the API key, or "" when none is configured.
func (c *CredentialSource) Resolve() string {
	if key := strings.TrimSpace(os.Getenv(apiKeyEnvVar)); key != "" {
		return key
	}
	if key := strings.TrimSpace(os.Getenv(legacyAPIKeyEnvVar)); key != "" {
		return key
	}
	if c.keyFilePath != "" {
		if data, err := os.ReadFile(c.keyFilePath); err == nil {
			if key := strings.TrimSpace(string(data)); key != "" {
				return key
			}
		}
	}
	c.logOnce.Do(func() {
		log.Printf("enrichment: no API key configured (%s, %s, or key file), enrichment will be skipped", apiKeyEnvVar, legacyAPIKeyEnvVar)
	})
	return ""
}
