// Package panel loads size standard definitions from YAML files.
//
//	ladders:
//	  - name: GS120
//	    dye: LIZ
//	    sizes: [15, 20, 25, 35, 50, 62, 80, 110, 120]
//	    strict: {max_rss: 30, min_dpscore: 8, min_sizes: 9}
//
// Missing score limits are derived from the number of sizes.
package panel

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/fragscan/schema"
	"gopkg.in/yaml.v3"
)

// Default score limits for ladders that do not set them.
const (
	defaultStrictRSS = 50
	defaultRelaxRSS  = 250
	minLadderSizes   = 4
)

// File is the top level of a ladder file.
type File struct {
	Ladders []schema.Ladder `yaml:"ladders"`
}

// Parse decodes and validates ladder definitions.
func Parse(data []byte) ([]schema.Ladder, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("panel: %w", err)
	}
	if len(f.Ladders) == 0 {
		return nil, errors.New("panel: no ladders defined")
	}

	seen := make(map[string]bool, len(f.Ladders))
	out := make([]schema.Ladder, 0, len(f.Ladders))
	for i, l := range f.Ladders {
		l.Name = strings.ToUpper(strings.TrimSpace(l.Name))
		if err := Validate(l); err != nil {
			return nil, fmt.Errorf("panel: ladder %d: %w", i+1, err)
		}
		if seen[l.Name] {
			return nil, fmt.Errorf("panel: ladder %s defined twice", l.Name)
		}
		seen[l.Name] = true
		out = append(out, withDefaults(l))
	}
	return out, nil
}

// Load reads ladder definitions from path.
func Load(path string) ([]schema.Ladder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ladders, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ladders, nil
}

// Register loads path and adds every ladder to the registry.
func Register(path string) ([]string, error) {
	ladders, err := Load(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ladders))
	for _, l := range ladders {
		schema.RegisterLadder(l)
		names = append(names, l.Name)
	}
	return names, nil
}

// Validate checks a ladder's name and sizes.
func Validate(l schema.Ladder) error {
	if l.Name == "" {
		return errors.New("name is required")
	}
	if len(l.Sizes) < minLadderSizes {
		return fmt.Errorf("%s needs at least %d sizes (has %d)", l.Name, minLadderSizes, len(l.Sizes))
	}
	for i := 1; i < len(l.Sizes); i++ {
		if l.Sizes[i] <= l.Sizes[i-1] {
			return fmt.Errorf("%s sizes must increase (%v after %v)", l.Name, l.Sizes[i], l.Sizes[i-1])
		}
	}
	if l.Sizes[0] <= 0 {
		return fmt.Errorf("%s sizes must be positive", l.Name)
	}
	if l.K < 0 || l.K > len(l.Sizes)/2 {
		return fmt.Errorf("%s cluster count %d out of range", l.Name, l.K)
	}
	return nil
}

func withDefaults(l schema.Ladder) schema.Ladder {
	n := len(l.Sizes)
	if l.K == 0 {
		l.K = 1
	}
	if l.Strict == (schema.ScoreLimits{}) {
		l.Strict = schema.ScoreLimits{MaxRSS: defaultStrictRSS, MinDPScore: float64(n - 2), MinSizes: n}
	}
	if l.Relax == (schema.ScoreLimits{}) {
		l.Relax = schema.ScoreLimits{MaxRSS: defaultRelaxRSS, MinDPScore: float64(n - 3), MinSizes: n}
	}
	return l
}
