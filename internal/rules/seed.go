package rules

import (
	"competitor-price-monitor/internal/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
)

// RuleSpec is a rule as written in the watchlist file
type RuleSpec struct {
	Product   string   `yaml:"product"`
	Platforms []string `yaml:"platforms"`
	Frequency string   `yaml:"frequency"`
	Threshold float64  `yaml:"threshold"`
	Paused    bool     `yaml:"paused"`
}

type seedFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// LoadSeed reads the rules section of a watchlist file.
// A missing file is not an error, it yields no rules.
func LoadSeed(path string) ([]RuleSpec, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debugf("watchlist %s not found, starting without seeded rules", path)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read watchlist %s", path)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "could not parse watchlist %s", path)
	}
	return f.Rules, nil
}

// Seed adds the given specs to the registry and returns the new rule ids.
// Specs without a product or with an unknown frequency are rejected.
func (r *Registry) Seed(specs []RuleSpec) ([]string, error) {
	ids := make([]string, 0, len(specs))
	for i, spec := range specs {
		if spec.Product == "" {
			return ids, errors.Errorf("rule %d: product is required", i)
		}

		var frequency types.Frequency
		if spec.Frequency != "" {
			f, ok := types.ParseFrequency(spec.Frequency)
			if !ok {
				return ids, errors.Errorf("rule %d (%s): unknown frequency %q", i, spec.Product, spec.Frequency)
			}
			frequency = f
		}

		id := r.AddRule(spec.Product, spec.Platforms, frequency, spec.Threshold)
		if spec.Paused {
			r.Deactivate(id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
