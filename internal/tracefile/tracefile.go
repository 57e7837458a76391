// Package tracefile loads samples from ABIF binaries and JSON trace files.
package tracefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/fragscan/internal/abif"
	"github.com/huangsam/fragscan/schema"
)

// ErrUnsupported is returned for files that are neither ABIF nor JSON traces.
var ErrUnsupported = errors.New("unsupported trace file")

// abifChannels pairs dye tag numbers with their DATA tag numbers. The fifth
// dye of five-dye chemistries lives in DATA105.
var abifChannels = [][2]int{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 105}}

var abifExts = []string{".fsa", ".ab1", ".abi", ".ab!"}

// Supported reports whether path has a trace file extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".json" || slices.Contains(abifExts, ext)
}

// Expand turns files and directories into a sorted list of trace files.
// Directories are walked recursively; explicit files are kept as given.
func Expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && Supported(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Load reads a sample and flags its ladder channel.
func Load(path, ladderDye string) (*schema.Sample, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		sample *schema.Sample
		err    error
	)
	switch {
	case ext == ".json":
		sample, err = loadJSON(path)
	case slices.Contains(abifExts, ext):
		sample, err = loadABIF(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err != nil {
		return nil, err
	}
	if err := MarkLadder(sample, ladderDye); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sample, nil
}

func loadABIF(path string) (*schema.Sample, error) {
	f, err := abif.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromABIF(f, path)
}

// FromABIF builds a sample from the dye and data tags of an ABIF file.
func FromABIF(f *abif.File, path string) (*schema.Sample, error) {
	name, err := f.String("SMPL", 1)
	if err != nil || name == "" {
		name = baseName(path)
	}
	sample := &schema.Sample{Name: name, Path: path}
	for _, pair := range abifChannels {
		dye, err := f.String("DyeN", pair[0])
		if err != nil {
			continue
		}
		data, err := f.Shorts("DATA", pair[1])
		if err != nil {
			continue
		}
		wavelength, _ := f.Int("DyeW", pair[0])
		sample.Channels = append(sample.Channels, &schema.Channel{
			Dye:        dye,
			Wavelength: wavelength,
			Raw:        clampNegative(data),
		})
	}
	if len(sample.Channels) == 0 {
		return nil, fmt.Errorf("%s: no dye channels", path)
	}
	return sample, nil
}

func loadJSON(path string) (*schema.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf schema.TraceFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return FromTraceFile(tf, path)
}

// FromTraceFile builds a sample from its JSON form.
func FromTraceFile(tf schema.TraceFile, path string) (*schema.Sample, error) {
	if len(tf.Channels) == 0 {
		return nil, fmt.Errorf("%s: no channels", path)
	}
	name := tf.Name
	if name == "" {
		name = baseName(path)
	}
	sample := &schema.Sample{Name: name, Path: path}
	for _, tc := range tf.Channels {
		sample.Channels = append(sample.Channels, &schema.Channel{
			Dye:        tc.Dye,
			Wavelength: tc.Wavelength,
			Marker:     tc.Marker,
			IsLadder:   tc.Ladder,
			Raw:        clampNegative(tc.Data),
		})
	}
	return sample, nil
}

// Save writes a sample's raw channels as a JSON trace file.
func Save(path string, s *schema.Sample) error {
	tf := schema.TraceFile{Name: s.Name}
	for _, ch := range s.Channels {
		tf.Channels = append(tf.Channels, schema.TraceChannel{
			Dye:        ch.Dye,
			Wavelength: ch.Wavelength,
			Marker:     ch.Marker,
			Ladder:     ch.IsLadder,
			Data:       ch.Raw,
		})
	}
	data, err := json.Marshal(tf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// MarkLadder flags the ladder channel. A channel already flagged wins, then
// the first dye containing ladderDye, then the last channel.
func MarkLadder(s *schema.Sample, ladderDye string) error {
	if len(s.Channels) == 0 {
		return errors.New("sample has no channels")
	}
	if s.LadderChannel() != nil {
		return nil
	}
	want := strings.ToUpper(ladderDye)
	for _, ch := range s.Channels {
		if want != "" && strings.Contains(strings.ToUpper(ch.Dye), want) {
			ch.IsLadder = true
			return nil
		}
	}
	s.Channels[len(s.Channels)-1].IsLadder = true
	return nil
}

// clampNegative copies data, replacing negative intensities with zero.
func clampNegative(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = max(v, 0)
	}
	return out
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
