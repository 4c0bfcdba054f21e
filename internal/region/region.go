// Package region infers a region code and flag glyph from a free-text node label.
//
// Inference is an ordered list of rules evaluated in sequence; the first rule
// that matches wins. It is a keyword heuristic, not a geo lookup, so labels
// that merely contain a region code by coincidence ("Singapore" contains "IN")
// are attributed to that code.
package region

import (
	"regexp"
	"strings"

	"subsrename/internal"
)

type Rule string

const (
	RuleFlagPrefix  Rule = "flag_prefix"
	RuleFlagCode    Rule = "flag_code"
	RuleKeyword     Rule = "keyword"
	RuleEmojiPrefix Rule = "emoji_prefix"
	RuleFallback    Rule = "fallback"
)

type Match struct {
	Flag   string
	Region string
	Rule   Rule
}

// Keywords are scanned case-insensitively; at equal offsets earlier entries win.
var Keywords = []string{"SG", "JP", "HK", "TW", "KR", "US", "UK", "DE", "FR", "VN", "TH", "MY", "IN", "AU", "CA", "BR", "RU", "CN"}

var (
	reFlagPrefix  = regexp.MustCompile(`^([\x{1F1E6}-\x{1F1FF}]{2})([A-Z]{2,})`)
	// Pairs are counted from the start of a flag run so "🇸🇬🇺🇸" never yields "🇬🇺".
	reFlagCode    = regexp.MustCompile(`(?:^|[^\x{1F1E6}-\x{1F1FF}])(?:[\x{1F1E6}-\x{1F1FF}]{2})*([\x{1F1E6}-\x{1F1FF}]{2})([A-Z]{2,})`)
	reAnyFlag     = regexp.MustCompile(`[\x{1F1E6}-\x{1F1FF}]{2}`)
	reKeyword     = regexp.MustCompile(`(?i)(` + strings.Join(Keywords, "|") + `)`)
	reEmojiPrefix = regexp.MustCompile(`((?:[\x{1F1E6}-\x{1F1FF}]{2})|\p{So}\x{FE0F}?)([A-Z]{2,})`)
)

type matcher struct {
	rule  Rule
	match func(label string) (flag, region string, ok bool)
}

var rules = []matcher{
	{rule: RuleFlagPrefix, match: matchFlagPrefix},
	{rule: RuleFlagCode, match: matchFlagCode},
	{rule: RuleKeyword, match: matchKeyword},
	{rule: RuleEmojiPrefix, match: matchEmojiPrefix},
}

// Extract returns the flag glyph and region code for an already normalized label.
func Extract(label string) Match {
	if label != "" {
		for _, m := range rules {
			if flag, region, ok := m.match(label); ok {
				return Match{Flag: flag, Region: region, Rule: m.rule}
			}
		}
	}
	return Match{Flag: internal.UnknownFlag, Region: internal.UnknownRegion, Rule: RuleFallback}
}

func matchFlagPrefix(label string) (string, string, bool) {
	m := reFlagPrefix.FindStringSubmatch(label)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// matchFlagCode finds a flag glyph glued to an uppercase code anywhere in the
// label. Renamed labels carry the marker glyph first, and without this rule the
// keyword scan would read "🇺🇸USA" as US.
func matchFlagCode(label string) (string, string, bool) {
	m := reFlagCode.FindStringSubmatch(label)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// matchKeyword keeps a flag glyph found anywhere in the label so that a
// renamed label such as "★3SS🇸🇬SG_01" maps back to its own flag.
func matchKeyword(label string) (string, string, bool) {
	m := reKeyword.FindStringSubmatch(label)
	if m == nil {
		return "", "", false
	}
	flag := reAnyFlag.FindString(label)
	if flag == "" {
		flag = internal.UnknownFlag
	}
	return flag, strings.ToUpper(m[1]), true
}

func matchEmojiPrefix(label string) (string, string, bool) {
	m := reEmojiPrefix.FindStringSubmatch(label)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
