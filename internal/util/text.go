package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces = regexp.MustCompile(`\s+`)

	// flagFixes rewrites flag+region pairings that upstream providers get wrong.
	flagFixes = strings.NewReplacer("🇨🇳TW", "🇹🇼TW")
)

var DefaultNoiseTokens = []string{"@wangcai_8"}

// LabelNormalizer strips noise tokens and canonicalizes flag pairings in node labels.
type LabelNormalizer struct {
	noise []*regexp.Regexp
}

func NewLabelNormalizer(noiseTokens []string) *LabelNormalizer {
	n := &LabelNormalizer{}
	for _, tok := range noiseTokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n.noise = append(n.noise, regexp.MustCompile(`(?i)[_\s]*`+regexp.QuoteMeta(tok)+`[_\s]*`))
	}
	return n
}

func (n *LabelNormalizer) Normalize(input string) string {
	s := norm.NFC.String(input)
	s = flagFixes.Replace(s)
	for _, re := range n.noise {
		s = re.ReplaceAllString(s, " ")
	}
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var defaultNormalizer = NewLabelNormalizer(DefaultNoiseTokens)

func NormalizeLabel(input string) string {
	return defaultNormalizer.Normalize(input)
}

// SplitLines returns the trimmed non-blank lines of text.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
