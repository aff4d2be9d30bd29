package geocoding

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// BoundingBox is a sanity check on provider hits: electoral-roll addresses
// all sit inside the campaign territory, so anything outside is a mismatch
// (typically the same street name in another city).
type BoundingBox struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Policy configures the adapter and the batch runner. Loaded from a YAML
// file (see geocoding.yaml) with campaign-agnostic defaults.
type Policy struct {
	BaseURL      string `yaml:"base_url"`
	UserAgent    string `yaml:"user_agent"`
	CountryCodes string `yaml:"country_codes"`

	// RatePerSecond is a hard provider budget (Nominatim allows 1/s),
	// not a tuning knob. Exceeding it risks the whole pipeline being
	// blocked provider-side.
	RatePerSecond float64 `yaml:"rate_per_second"`
	// MaxAttempts is the retry ceiling; a building failing this many
	// runs is marked permanently failed and left for manual correction.
	MaxAttempts int `yaml:"max_attempts"`
	// BatchLimit caps buildings per run. 0 = no cap.
	BatchLimit int `yaml:"batch_limit"`

	// ResolveAmbiguous accepts the first in-bounds candidate when the
	// provider returns several. Off by default.
	ResolveAmbiguous bool `yaml:"resolve_ambiguous"`

	// QuerySuffixes are appended to "number street" in order until one
	// resolves, e.g. "Lyon 5e, France" then "69005 Lyon, France".
	QuerySuffixes []string `yaml:"query_suffixes"`
	// TryWithoutNumber adds a last-resort query with the bare street.
	TryWithoutNumber bool `yaml:"try_without_number"`

	BoundingBox *BoundingBox `yaml:"bounding_box"`
}

func DefaultPolicy() Policy {
	return Policy{
		BaseURL:          "https://nominatim.openstreetmap.org/search",
		UserAgent:        "Lyon2026-Terrain/1.0",
		CountryCodes:     "fr",
		RatePerSecond:    1,
		MaxAttempts:      3,
		ResolveAmbiguous: false,
		QuerySuffixes:    []string{"Lyon, France"},
		TryWithoutNumber: true,
		BoundingBox:      &BoundingBox{MinLat: 45.5, MaxLat: 46.0, MinLon: 4.5, MaxLon: 5.2},
	}
}

// LoadPolicy reads a YAML policy file over the defaults. An empty path
// returns the defaults untouched.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("policy file %s: %w", path, err)
	}
	return p, nil
}

func (p Policy) Validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if p.RatePerSecond <= 0 {
		return fmt.Errorf("rate_per_second must be > 0 (got %v)", p.RatePerSecond)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", p.MaxAttempts)
	}
	return nil
}
