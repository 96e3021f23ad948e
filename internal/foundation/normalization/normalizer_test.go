package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type level string

func newLevels() *Normalizer[level] {
	return NewNormalizer("level", map[string]level{
		"debug": "debug",
		"Info":  "info",
	}, "info")
}

func TestNormalize(t *testing.T) {
	n := newLevels()

	require.Equal(t, level("debug"), n.Normalize("  DEBUG "))
	require.Equal(t, level("info"), n.Normalize("info"))
	require.Equal(t, level("info"), n.Normalize("verbose"))
}

func TestParse(t *testing.T) {
	n := newLevels()

	v, err := n.Parse("Debug")
	require.NoError(t, err)
	require.Equal(t, level("debug"), v)

	v, err = n.Parse("")
	require.NoError(t, err)
	require.Equal(t, level("info"), v)

	_, err = n.Parse("verbose")
	require.Error(t, err)
	require.Contains(t, err.Error(), `invalid level "verbose"`)
	require.Contains(t, err.Error(), "debug, info")
}

func TestKeysIsACopy(t *testing.T) {
	n := newLevels()

	keys := n.Keys()
	require.Equal(t, []string{"debug", "info"}, keys)
	keys[0] = "mutated"
	require.Equal(t, []string{"debug", "info"}, n.Keys())
}
