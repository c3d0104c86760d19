package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceIDGenerator_Increments(t *testing.T) {
	gen := NewSequenceIDGenerator()

	assert.Equal(t, "00000000-0000-4000-8000-000000000001", gen.Generate())
	assert.Equal(t, "00000000-0000-4000-8000-000000000002", gen.Generate())
	assert.Equal(t, 2, gen.Count())
}

func TestSequenceIDGenerator_Reset(t *testing.T) {
	gen := NewSequenceIDGenerator()
	first := gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, first, gen.Generate())
}

func TestSequenceIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceIDGenerator()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				gen.Generate()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, gen.Count())
}
