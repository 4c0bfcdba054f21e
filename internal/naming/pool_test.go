package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExcludesFlagsAndASCII(t *testing.T) {
	p := NewPool([]string{"🇸🇬", "1️⃣", "★", "★", "🚀", "#"}, 7)
	assert.Equal(t, 2, p.Size())
}

func TestPoolAllocatesUniqueUntilExhausted(t *testing.T) {
	candidates := []string{"★", "🚀", "🌙", "🔥"}
	p := NewPool(candidates, 1)

	seen := map[string]bool{}
	for i := 0; i < len(candidates); i++ {
		g := p.Allocate()
		require.False(t, seen[g], "glyph %q handed out twice before exhaustion", g)
		seen[g] = true
	}
	assert.Equal(t, len(candidates), p.Used())

	// exhausted: the used set resets and allocation keeps working
	g := p.Allocate()
	assert.Contains(t, candidates, g)
	assert.Equal(t, 1, p.Used())
}

func TestPoolSeedIsDeterministic(t *testing.T) {
	candidates := []string{"★", "🚀", "🌙", "🔥", "🍀", "🎯"}
	a := NewPool(candidates, 99)
	b := NewPool(candidates, 99)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Allocate(), b.Allocate())
	}
}

func TestPoolEmptyFallsBack(t *testing.T) {
	p := NewPool(nil, 3)
	assert.Equal(t, "★", p.Allocate())
}

func TestEmojiPool(t *testing.T) {
	p := NewEmojiPool(5)
	require.Greater(t, p.Size(), 100)
	g := p.Allocate()
	assert.NotEmpty(t, g)
	assert.True(t, usableGlyph(g))
}
