package region

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"subsrename/internal"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name   string
		label  string
		flag   string
		region string
		rule   Rule
	}{
		{name: "flag prefix", label: "🇸🇬SG-01", flag: "🇸🇬", region: "SG", rule: RuleFlagPrefix},
		{name: "flag prefix long run", label: "🇯🇵JPN Tokyo", flag: "🇯🇵", region: "JPN", rule: RuleFlagPrefix},
		{name: "flag code after marker", label: "★2SS🇺🇸USA_01", flag: "🇺🇸", region: "USA", rule: RuleFlagCode},
		{name: "flag code after flag run", label: "x🇸🇬🇺🇸USA", flag: "🇺🇸", region: "USA", rule: RuleFlagCode},
		{name: "flag prefix is case sensitive", label: "🇭🇰Hong Kong", flag: internal.UnknownFlag, region: "ZZ", rule: RuleFallback},
		{name: "keyword anywhere", label: "Hong Kong hk-03", flag: internal.UnknownFlag, region: "HK", rule: RuleKeyword},
		{name: "keyword keeps flag", label: "🇺🇸 Los Angeles us 2", flag: "🇺🇸", region: "US", rule: RuleKeyword},
		{name: "keyword leftmost", label: "relay jp via sg", flag: internal.UnknownFlag, region: "JP", rule: RuleKeyword},
		{name: "emoji prefix", label: "✨VIP 01", flag: "✨", region: "VIP", rule: RuleEmojiPrefix},
		{name: "unknown flag glyph", label: "★12SS🏳️ZZ_01", flag: "🏳️", region: "ZZ", rule: RuleEmojiPrefix},
		{name: "nothing", label: "server 42", flag: internal.UnknownFlag, region: "ZZ", rule: RuleFallback},
		{name: "empty", label: "", flag: internal.UnknownFlag, region: "ZZ", rule: RuleFallback},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(tc.label)
			assert.Equal(t, tc.flag, got.Flag)
			assert.Equal(t, tc.region, got.Region)
			assert.Equal(t, tc.rule, got.Rule)
		})
	}
}

func TestExtractFlagPrefixProperty(t *testing.T) {
	flags := []string{"🇸🇬", "🇭🇰", "🇩🇪", "🇧🇷"}
	runs := []string{"AB", "XYZ", "QQQQ"}
	for _, f := range flags {
		for _, r := range runs {
			got := Extract(f + r + "_7 whatever")
			assert.Equal(t, f, got.Flag)
			assert.Equal(t, r, got.Region)
		}
	}
}

func TestExtractRenamedLabelIsStable(t *testing.T) {
	got := Extract("★3SS🇸🇬SG_01")
	assert.Equal(t, "🇸🇬", got.Flag)
	assert.Equal(t, "SG", got.Region)

	got = Extract("★2SS🇯🇵JPN_03")
	assert.Equal(t, "🇯🇵", got.Flag)
	assert.Equal(t, "JPN", got.Region)
}
