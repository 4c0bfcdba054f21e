// Package naming allocates the per-file marker glyph prefixed to every renamed node.
package naming

import (
	"math/rand/v2"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kyokomi/emoji/v2"
	"github.com/samber/lo"
)

var reRegionalFlag = regexp.MustCompile(`^[\x{1F1E6}-\x{1F1FF}]{1,2}$`)

// Pool hands out marker glyphs for one run. Allocation avoids glyphs already
// used in the run until every candidate is taken, then starts over; after that
// point two outputs of the same run can share a glyph.
type Pool struct {
	mu        sync.Mutex
	available []string
	used      map[string]struct{}
	rng       *rand.Rand
}

// NewPool builds a pool over candidates. A zero seed picks a time-based one.
func NewPool(candidates []string, seed uint64) *Pool {
	available := lo.Uniq(lo.Filter(candidates, func(g string, _ int) bool { return usableGlyph(g) }))
	sort.Strings(available)
	if len(available) == 0 {
		available = []string{"★"}
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Pool{
		available: available,
		used:      map[string]struct{}{},
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// NewEmojiPool builds a pool from the full emoji table.
func NewEmojiPool(seed uint64) *Pool {
	glyphs := lo.Map(lo.Values(emoji.CodeMap()), func(g string, _ int) string { return strings.TrimSpace(g) })
	return NewPool(glyphs, seed)
}

func (p *Pool) Allocate() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	choices := lo.Filter(p.available, func(g string, _ int) bool {
		_, taken := p.used[g]
		return !taken
	})
	if len(choices) == 0 {
		p.used = map[string]struct{}{}
		choices = p.available
	}
	choice := choices[p.rng.IntN(len(choices))]
	p.used[choice] = struct{}{}
	return choice
}

func (p *Pool) Size() int {
	return len(p.available)
}

func (p *Pool) Used() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.used)
}

// usableGlyph rejects regional flags and anything carrying ASCII, such as
// keycaps, since the marker is immediately followed by digits in the final label.
func usableGlyph(g string) bool {
	if g == "" || reRegionalFlag.MatchString(g) {
		return false
	}
	for _, r := range g {
		if r < 0x80 {
			return false
		}
	}
	return true
}
