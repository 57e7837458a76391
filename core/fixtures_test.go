package core

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/internal/tracefile"
	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/require"
)

// Synthetic traces place fragments at rtime = 500 + 8 x size on a flat background.
const (
	traceLength = 5000
	background  = 50
)

func sizeToRTime(size float64) int {
	return 500 + int(math.Round(8*size))
}

func addGaussian(sig []float64, mu int, sigma, height float64) {
	for i := max(0, mu-60); i < min(len(sig), mu+60); i++ {
		d := (float64(i) - float64(mu)) / sigma
		sig[i] += height * math.Exp(-0.5*d*d)
	}
}

func flatTrace() []float64 {
	sig := make([]float64, traceLength)
	for i := range sig {
		sig[i] = background
	}
	return sig
}

// ladderRaw builds a clean raw ladder trace for the given sizes.
func ladderRaw(sizes []float64) []float64 {
	heights := []float64{900, 850, 800, 1000, 700, 650, 950, 600, 750, 500, 880, 720, 640, 560, 480, 420}
	sig := flatTrace()
	for i, s := range sizes {
		addGaussian(sig, sizeToRTime(s), 3, heights[i%len(heights)])
	}
	return sig
}

// alleleRaw builds a raw allele trace with one peak per size.
func alleleRaw(sizes ...float64) []float64 {
	sig := flatTrace()
	for i, s := range sizes {
		addGaussian(sig, sizeToRTime(s), 3, 800-100*float64(i))
	}
	return sig
}

func testLadder(t *testing.T) schema.Ladder {
	t.Helper()
	ladder, ok := schema.LookupLadder("LIZ500")
	require.True(t, ok)
	return ladder
}

func testConfig(t *testing.T) *contract.Config {
	t.Helper()
	ladder := testLadder(t)
	params := schema.DefaultParams()
	params.Ladder.ExpectedPeakNumber = len(ladder.Sizes)
	return &contract.Config{
		Ladder:    ladder,
		LadderDye: ladder.Dye,
		Params:    params,
		Workers:   2,
		Output:    schema.CSVOut,
	}
}

// testSample returns a two channel sample with FAM alleles at the given sizes.
func testSample(t *testing.T, name string, alleles ...float64) *schema.Sample {
	ladder := testLadder(t)
	return &schema.Sample{
		Name: name,
		Path: name + ".json",
		Channels: []*schema.Channel{
			{Dye: "FAM", Raw: alleleRaw(alleles...)},
			{Dye: ladder.Dye, IsLadder: true, Raw: ladderRaw(ladder.Sizes)},
		},
	}
}

// writeSample saves a sample as a JSON trace file under dir and returns its path.
func writeSample(t *testing.T, dir string, s *schema.Sample) string {
	t.Helper()
	path := filepath.Join(dir, s.Name+".json")
	require.NoError(t, tracefile.Save(path, s))
	return path
}

func calledPeaks(ch *schema.Channel) []*schema.Peak {
	var out []*schema.Peak
	for _, p := range ch.Peaks {
		if p.Type == schema.CalledPeak {
			out = append(out, p)
		}
	}
	return out
}
