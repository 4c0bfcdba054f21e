package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OUTPUT_PREFIX", "renamed_")
	t.Setenv("OUTPUT_INDEX_WIDTH", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ".yaml", cfg.OutputExt)
	assert.Contains(t, cfg.PlaceholderTypes, "direct")
	assert.Equal(t, "renamed_001.yaml", cfg.OutputName(1))
	assert.Equal(t, "renamed_012.yaml", cfg.OutputName(12))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NOISE_TOKENS", " @foo , ,@bar")
	t.Setenv("EMOJI_SEED", "42")
	t.Setenv("HTML_INPUT", "off")
	t.Setenv("OUTPUT_INDEX_WIDTH", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"@foo", "@bar"}, cfg.NoiseTokens)
	assert.Equal(t, uint64(42), cfg.EmojiSeed)
	assert.False(t, cfg.HTMLInput)
	assert.Equal(t, 3, cfg.OutputIndexWidth)
}

func TestValidate(t *testing.T) {
	cfg := Config{InputDir: "in", OutputDir: "out", OutputIndexWidth: 0}
	assert.Error(t, cfg.Validate())

	cfg.OutputIndexWidth = 2
	assert.NoError(t, cfg.Validate())
}

func TestIsOutputName(t *testing.T) {
	cfg := Config{OutputPrefix: "renamed_", OutputExt: ".yaml", OutputIndexWidth: 3}
	assert.True(t, cfg.IsOutputName("renamed_001.yaml"))
	assert.True(t, cfg.IsOutputName("renamed_1000.yaml"))
	assert.True(t, cfg.IsOutputName(cfg.OutputName(42)))
	assert.False(t, cfg.IsOutputName("renamed_001.txt"))
	assert.False(t, cfg.IsOutputName("nodes.yaml"))
	assert.False(t, cfg.IsOutputName("renamed_list.yaml"))
	assert.False(t, cfg.IsOutputName("renamed_01.yaml"))
	assert.False(t, cfg.IsOutputName("renamed_.yaml"))
}
