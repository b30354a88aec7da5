package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Settings represents the fact-grounding core configuration
type Settings struct {
	// Standard is the accounting-standard key used for concept mapping
	Standard string `envconfig:"STANDARD" default:"us_gaap"`

	// TargetCurrency and TargetScale define the canonical unit facts are
	// normalized to before they reach callers
	TargetCurrency string `envconfig:"TARGET_CURRENCY" default:"USD"`
	TargetScale    string `envconfig:"TARGET_SCALE" default:"U"`

	// FactCacheTTL bounds the facts store read-through cache. Zero disables
	// expiry.
	FactCacheTTL time.Duration `envconfig:"FACT_CACHE_TTL" default:"15m"`

	// AmendmentCacheTTL bounds the amendment-chain memoization cache. Zero
	// means entries are never invalidated automatically.
	AmendmentCacheTTL time.Duration `envconfig:"AMENDMENT_CACHE_TTL" default:"0"`

	// ConceptMapPath points at a YAML concept-map file. Empty uses the
	// embedded default table.
	ConceptMapPath string `envconfig:"CONCEPT_MAP_PATH"`

	// SourceName and ArchiveBaseURL feed the citation object
	SourceName     string `envconfig:"SOURCE_NAME" default:"SEC EDGAR"`
	ArchiveBaseURL string `envconfig:"ARCHIVE_BASE_URL" default:"https://www.sec.gov/Archives/edgar/data"`
}

// Load loads settings from FINSIGHT_* environment variables, applying
// defaults for anything unset
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("FINSIGHT", &s); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks settings consistency beyond what envconfig enforces
func (s *Settings) Validate() error {
	if s.Standard == "" {
		return fmt.Errorf("standard must not be empty")
	}
	if len(s.TargetCurrency) != 3 {
		return fmt.Errorf("target currency must be a 3-letter code, got %q", s.TargetCurrency)
	}
	switch s.TargetScale {
	case "K", "M", "B", "T", "U":
	default:
		return fmt.Errorf("target scale must be one of K, M, B, T, U, got %q", s.TargetScale)
	}
	return nil
}

// Default returns settings with all defaults applied and no environment
// lookup, for tests and embedded use
func Default() *Settings {
	return &Settings{
		Standard:       "us_gaap",
		TargetCurrency: "USD",
		TargetScale:    "U",
		FactCacheTTL:   15 * time.Minute,
		SourceName:     "SEC EDGAR",
		ArchiveBaseURL: "https://www.sec.gov/Archives/edgar/data",
	}
}
