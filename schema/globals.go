package schema

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// ScoreLimits bounds an alignment for the strict and relaxed scoring passes.
type ScoreLimits struct {
	MaxRSS     float64 `json:"max_rss" yaml:"max_rss"`
	MinDPScore float64 `json:"min_dpscore" yaml:"min_dpscore"`
	MinSizes   int     `json:"min_sizes" yaml:"min_sizes"`
}

// Ladder is a named internal size standard.
type Ladder struct {
	Name   string      `json:"name" yaml:"name"`
	Dye    string      `json:"dye" yaml:"dye"`
	Sizes  []float64   `json:"sizes" yaml:"sizes"`
	K      int         `json:"k" yaml:"k"` // Expected cluster count of the size series
	Strict ScoreLimits `json:"strict" yaml:"strict"`
	Relax  ScoreLimits `json:"relax" yaml:"relax"`
}

var (
	// ladderRegistry holds built-in ladders plus any registered from files.
	ladderRegistry map[string]Ladder
	ladderMu       sync.RWMutex
	ladderOnce     sync.Once
)

func builtinLadders() map[string]Ladder {
	liz600 := []float64{
		20, 40, 60, 80, 100, 114, 120, 140, 160, 180, 200, 214, 220, 240, 250, 260, 280, 300,
		314, 320, 340, 360, 380, 400, 414, 420, 440, 460, 480, 500, 514, 520, 540, 560, 580, 600,
	}
	gs500 := []float64{35, 50, 75, 100, 139, 150, 160, 200, 250, 300, 340, 350, 400, 450, 490, 500}

	return map[string]Ladder{
		"LIZ600": {
			Name: "LIZ600", Dye: "LIZ", Sizes: liz600, K: 1,
			Strict: ScoreLimits{MaxRSS: 50, MinDPScore: 34, MinSizes: 36},
			Relax:  ScoreLimits{MaxRSS: 250, MinDPScore: 33, MinSizes: 36},
		},
		"LIZ500": {
			Name: "LIZ500", Dye: "LIZ", Sizes: gs500, K: 1,
			Strict: ScoreLimits{MaxRSS: 40, MinDPScore: 15, MinSizes: 16},
			Relax:  ScoreLimits{MaxRSS: 200, MinDPScore: 14, MinSizes: 16},
		},
		"ROX500": {
			Name: "ROX500", Dye: "ROX", Sizes: slices.Clone(gs500), K: 1,
			Strict: ScoreLimits{MaxRSS: 40, MinDPScore: 15, MinSizes: 16},
			Relax:  ScoreLimits{MaxRSS: 200, MinDPScore: 14, MinSizes: 16},
		},
	}
}

func registry() map[string]Ladder {
	ladderOnce.Do(func() {
		ladderRegistry = builtinLadders()
	})
	return ladderRegistry
}

// LookupLadder returns the ladder registered under name (case insensitive).
func LookupLadder(name string) (Ladder, bool) {
	reg := registry()
	ladderMu.RLock()
	defer ladderMu.RUnlock()
	l, ok := reg[strings.ToUpper(name)]
	return l, ok
}

// RegisterLadder adds or replaces a ladder definition.
func RegisterLadder(l Ladder) {
	reg := registry()
	ladderMu.Lock()
	defer ladderMu.Unlock()
	l.Name = strings.ToUpper(l.Name)
	reg[l.Name] = l
}

// LadderNames returns the registered ladder names in sorted order.
func LadderNames() []string {
	reg := registry()
	ladderMu.RLock()
	defer ladderMu.RUnlock()
	return slices.Sorted(maps.Keys(reg))
}
