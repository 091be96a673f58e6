package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rustyeddy/drinkx/market"
)

// ConfigLoadError means the opening drink list is missing or unusable.
// It is fatal: the service never starts with partial pricing state.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load drinks: %v", e.Err)
	}
	return fmt.Sprintf("load drinks from %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// LoadDrinks reads a JSON array of {"name", "price"} records.
func LoadDrinks(path string) ([]market.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}

	var seeds []market.Seed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, &ConfigLoadError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}
	if err := checkSeeds(seeds); err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return seeds, nil
}

// Seeds returns the configured opening prices, inline items first.
func (d DrinksConfig) Seeds() ([]market.Seed, error) {
	if len(d.Items) > 0 {
		if err := checkSeeds(d.Items); err != nil {
			return nil, &ConfigLoadError{Err: err}
		}
		return d.Items, nil
	}
	if d.File == "" {
		return nil, &ConfigLoadError{Err: fmt.Errorf("no drinks configured")}
	}
	return LoadDrinks(d.File)
}

func checkSeeds(seeds []market.Seed) error {
	if len(seeds) == 0 {
		return fmt.Errorf("drink list is empty")
	}
	for i, s := range seeds {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("drink %d: name is required", i)
		}
		if !(s.Price > 0) || math.IsInf(s.Price, 0) {
			return fmt.Errorf("drink %q: price must be positive", s.Name)
		}
	}
	return nil
}
