package tracefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/fragscan/internal/abif"
	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeABIF(t *testing.T, dir, name string) string {
	t.Helper()
	var b abif.Builder
	b.AddPString("SMPL", 1, "S-01")
	for i, dye := range []string{"6-FAM", "VIC", "NED", "PET", "LIZ"} {
		b.AddPString("DyeN", i+1, dye)
		b.AddShorts("DyeW", i+1, []int16{int16(520 + 20*i)})
	}
	for _, n := range []int{1, 2, 3, 4, 105} {
		b.AddShorts("DATA", n, []int16{0, -5, int16(n), 100})
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

func TestLoadABIF(t *testing.T) {
	path := writeABIF(t, t.TempDir(), "run.fsa")
	s, err := Load(path, "LIZ")
	require.NoError(t, err)

	assert.Equal(t, "S-01", s.Name)
	require.Len(t, s.Channels, 5)
	assert.Equal(t, "LIZ", s.LadderChannel().Dye)
	assert.Equal(t, 600, s.LadderChannel().Wavelength)
	assert.Equal(t, []float64{0, 0, 105, 100}, s.LadderChannel().Raw)
	assert.False(t, s.Channels[0].IsLadder)
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	in := &schema.Sample{Name: "J1", Channels: []*schema.Channel{
		{Dye: "FAM", Raw: []float64{1, 2, 3}},
		{Dye: "ROX", Raw: []float64{4, 5, 6}},
	}}
	path := filepath.Join(dir, "j1.json")
	require.NoError(t, Save(path, in))

	s, err := Load(path, "ROX")
	require.NoError(t, err)
	assert.Equal(t, "J1", s.Name)
	assert.Equal(t, path, s.Path)
	assert.Equal(t, "ROX", s.LadderChannel().Dye)
	assert.Equal(t, []float64{1, 2, 3}, s.Channels[0].Raw)
}

func TestMarkLadder(t *testing.T) {
	s := &schema.Sample{Channels: []*schema.Channel{{Dye: "FAM"}, {Dye: "HEX"}}}
	require.NoError(t, MarkLadder(s, "LIZ"))
	assert.Equal(t, "HEX", s.LadderChannel().Dye, "falls back to the last channel")

	s = &schema.Sample{Channels: []*schema.Channel{{Dye: "FAM", IsLadder: true}, {Dye: "LIZ"}}}
	require.NoError(t, MarkLadder(s, "LIZ"))
	assert.Equal(t, "FAM", s.LadderChannel().Dye, "explicit flag wins")

	assert.Error(t, MarkLadder(&schema.Sample{}, "LIZ"))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "notes.txt"), "LIZ")
	assert.ErrorIs(t, err, ErrUnsupported)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = Load(bad, "LIZ")
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"name":"x","channels":[]}`), 0o644))
	_, err = Load(empty, "LIZ")
	assert.Error(t, err)

	fake := filepath.Join(dir, "fake.fsa")
	require.NoError(t, os.WriteFile(fake, []byte("not abif at all, really"), 0o644))
	_, err = Load(fake, "LIZ")
	assert.ErrorIs(t, err, abif.ErrNotABIF)
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "plate1")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	a := writeABIF(t, sub, "b.fsa")
	b := writeABIF(t, dir, "a.FSA")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644))

	got, err := Expand([]string{dir, b})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, got)

	_, err = Expand([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}
