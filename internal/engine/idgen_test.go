package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededGenerator_Deterministic(t *testing.T) {
	a := NewSeededGenerator("phs002790")
	b := NewSeededGenerator("phs002790")

	for i := 0; i < 10; i++ {
		id := a.Generate()
		assert.Equal(t, id, b.Generate())

		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
	}
}

func TestSeededGenerator_SeedsDiverge(t *testing.T) {
	assert.NotEqual(t, NewSeededGenerator("a").Generate(), NewSeededGenerator("b").Generate())
}

func TestNewIDGenerator(t *testing.T) {
	_, random := NewIDGenerator(nil).(RandomGenerator)
	assert.True(t, random)

	seed := "42"
	_, seeded := NewIDGenerator(&seed).(*SeededGenerator)
	assert.True(t, seeded)
}

func TestRandomGenerator_Distinct(t *testing.T) {
	var g RandomGenerator
	assert.NotEqual(t, g.Generate(), g.Generate())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("id-1", "id-2")
	assert.Equal(t, "id-1", g.Generate())
	assert.Equal(t, "id-2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
