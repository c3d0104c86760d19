package engine

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers for the {uuid} macro.
type IDGenerator interface {
	Generate() string
}

// RandomGenerator generates version 4 UUIDs from crypto/rand.
//
// Thread-safety: RandomGenerator is stateless and safe for concurrent use.
type RandomGenerator struct{}

// Generate returns a new random UUID.
//
// Panics if the system randomness source fails.
func (RandomGenerator) Generate() string {
	return uuid.Must(uuid.NewRandom()).String()
}

// SeededGenerator generates a reproducible sequence of version 4 UUIDs.
//
// The seed text is hashed into a ChaCha8 key; each Generate call consumes
// the next 16 bytes of the stream. Two generators created from the same
// seed return the same sequence.
type SeededGenerator struct {
	mu  sync.Mutex
	rng *rand.ChaCha8
}

// NewSeededGenerator creates a generator for seed.
func NewSeededGenerator(seed string) *SeededGenerator {
	return &SeededGenerator{rng: rand.NewChaCha8(sha256.Sum256([]byte(seed)))}
}

// Generate returns the next UUID in the sequence.
func (g *SeededGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		panic(fmt.Sprintf("SeededGenerator: %v", err))
	}
	return id.String()
}

// NewIDGenerator returns a SeededGenerator when seed is set and a
// RandomGenerator otherwise.
func NewIDGenerator(seed *string) IDGenerator {
	if seed == nil {
		return RandomGenerator{}
	}
	return NewSeededGenerator(*seed)
}

// FixedGenerator returns predetermined identifiers for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedGenerator("id-1", "id-2")
//	gen.Generate() // "id-1"
//	gen.Generate() // "id-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, which means the test drew more
// identifiers than it declared.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
