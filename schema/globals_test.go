package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupLadder(t *testing.T) {
	l, ok := LookupLadder("liz600")
	require.True(t, ok)
	assert.Equal(t, "LIZ600", l.Name)
	assert.Len(t, l.Sizes, 36)
	assert.Equal(t, 36, l.Strict.MinSizes)

	_, ok = LookupLadder("nope")
	assert.False(t, ok)
}

func TestLadderSizesAscending(t *testing.T) {
	for _, name := range LadderNames() {
		l, ok := LookupLadder(name)
		require.True(t, ok)
		for i := 1; i < len(l.Sizes); i++ {
			assert.Less(t, l.Sizes[i-1], l.Sizes[i], "ladder %s at %d", name, i)
		}
	}
}

func TestRegisterLadder(t *testing.T) {
	RegisterLadder(Ladder{Name: "custom10", Dye: "ROX", Sizes: []float64{10, 20, 30}, K: 1})
	l, ok := LookupLadder("CUSTOM10")
	require.True(t, ok)
	assert.Equal(t, "CUSTOM10", l.Name)
	assert.Contains(t, LadderNames(), "CUSTOM10")
}
