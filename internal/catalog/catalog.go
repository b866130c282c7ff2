// Package catalog holds the static per-material configuration.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"recycle-pickup-api-server/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed materials.yaml
var materialsYAML []byte

// Config is the rule set for one material type.
type Config struct {
	Label             string   `yaml:"label" json:"label"`
	RequiresPhoto     bool     `yaml:"requiresPhoto" json:"requiresPhoto"`
	RequiresAgreement bool     `yaml:"requiresAgreement" json:"requiresAgreement"`
	AgreementLabel    string   `yaml:"agreementLabel,omitempty" json:"agreementLabel,omitempty"`
	Min               *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max               *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Entry pairs a material type with its config.
type Entry struct {
	Type models.MaterialType `json:"type"`
	Config
}

var load = sync.OnceValues(func() (map[models.MaterialType]Config, error) {
	return parse(materialsYAML)
})

func parse(data []byte) (map[models.MaterialType]Config, error) {
	var raw map[models.MaterialType]Config
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse material catalog: %w", err)
	}
	for t := range raw {
		if !t.Valid() {
			return nil, fmt.Errorf("material catalog lists unknown type %q", t)
		}
	}
	for _, t := range models.MaterialTypes {
		if _, ok := raw[t]; !ok {
			return nil, fmt.Errorf("material catalog is missing type %q", t)
		}
	}
	return raw, nil
}

func materials() map[models.MaterialType]Config {
	m, err := load()
	if err != nil {
		// The file is embedded at build time; a bad file is a programming error.
		panic(err)
	}
	return m
}

// Lookup returns the config of t.
func Lookup(t models.MaterialType) (Config, bool) {
	c, ok := materials()[t]
	return c, ok
}

// All returns every entry in models.MaterialTypes order.
func All() []Entry {
	m := materials()
	entries := make([]Entry, 0, len(models.MaterialTypes))
	for _, t := range models.MaterialTypes {
		entries = append(entries, Entry{Type: t, Config: m[t]})
	}
	return entries
}

// Validate checks entry against the catalog rules of its type.
func Validate(entry models.MaterialEntry) error {
	cfg, ok := Lookup(entry.Type)
	if !ok {
		return fmt.Errorf("unknown material type %q", entry.Type)
	}
	if cfg.Min != nil || cfg.Max != nil {
		if entry.Weight == nil {
			return fmt.Errorf("%s: weight is required", cfg.Label)
		}
		w := *entry.Weight
		if cfg.Min != nil && w < *cfg.Min {
			return fmt.Errorf("%s: weight %.1f lb is below the minimum of %.1f lb", cfg.Label, w, *cfg.Min)
		}
		if cfg.Max != nil && w > *cfg.Max {
			return fmt.Errorf("%s: weight %.1f lb is above the maximum of %.1f lb", cfg.Label, w, *cfg.Max)
		}
	}
	if cfg.RequiresPhoto && len(entry.Photos) == 0 {
		return fmt.Errorf("%s: at least one photo is required", cfg.Label)
	}
	if cfg.RequiresAgreement && !entry.AgreementAccepted {
		return fmt.Errorf("%s: the agreement must be accepted", cfg.Label)
	}
	return nil
}
