package util

import "testing"

func TestNormalizeLabel(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "flag fix", input: "🇨🇳TW-01", want: "🇹🇼TW-01"},
		{name: "noise token with underscores", input: "🇸🇬SG_@wangcai_8_01", want: "🇸🇬SG 01"},
		{name: "noise token case insensitive", input: "HK @WANGCAI_8 node", want: "HK node"},
		{name: "collapse spaces", input: "  JP   Tokyo \t 02 ", want: "JP Tokyo 02"},
		{name: "empty", input: "   ", want: ""},
		{name: "untouched", input: "🇺🇸US_05", want: "🇺🇸US_05"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeLabel(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestLabelNormalizerCustomTokens(t *testing.T) {
	n := NewLabelNormalizer([]string{"@free.sub", " "})
	if got := n.Normalize("KR__@FREE.SUB__03"); got != "KR 03" {
		t.Fatalf("got %q", got)
	}
	if got := n.Normalize("KR free-sub 03"); got != "KR free-sub 03" {
		t.Fatalf("quoted token must not act as a pattern: %q", got)
	}
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines("a\r\n\n  b  \n\t\nc")
	if len(lines) != 3 || lines[0] != "a" || lines[1] != "b" || lines[2] != "c" {
		t.Fatalf("lines=%q", lines)
	}
}
