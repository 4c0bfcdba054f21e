package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	InputDir         string
	OutputDir        string
	OutputPrefix     string
	OutputExt        string
	OutputIndexWidth int

	NoiseTokens      []string
	PlaceholderTypes []string
	EmojiSeed        uint64
	HTMLInput        bool

	ReportPath string

	LogLevel  string
	LogFormat string

	WatchDebounceMs int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		InputDir:         getEnv("INPUT_DIR", filepath.Join(cwd, "upstream_repo")),
		OutputDir:        getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		OutputPrefix:     getEnv("OUTPUT_PREFIX", "renamed_"),
		OutputExt:        getEnv("OUTPUT_EXT", ".yaml"),
		OutputIndexWidth: getEnvInt("OUTPUT_INDEX_WIDTH", 3),

		NoiseTokens:      getEnvList("NOISE_TOKENS", []string{"@wangcai_8"}),
		PlaceholderTypes: getEnvList("PLACEHOLDER_TYPES", []string{"direct", "reject", "dns", "blackhole"}),
		EmojiSeed:        getEnvUint("EMOJI_SEED", 0),
		HTMLInput:        getEnvBool("HTML_INPUT", true),

		ReportPath: getEnv("REPORT_PATH", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		WatchDebounceMs: getEnvInt("WATCH_DEBOUNCE_MS", 500),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.InputDir) == "" {
		return fmt.Errorf("input dir is empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output dir is empty")
	}
	if c.OutputIndexWidth < 1 {
		return fmt.Errorf("invalid OUTPUT_INDEX_WIDTH: %d", c.OutputIndexWidth)
	}
	return nil
}

// OutputName is the file name for the n-th written output, counting from 1.
func (c Config) OutputName(index int) string {
	return fmt.Sprintf("%s%0*d%s", c.OutputPrefix, c.OutputIndexWidth, index, c.OutputExt)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvUint(key string, fallback uint64) uint64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsOutputName reports whether a base file name has the exact shape OutputName
// produces: prefix, at least OutputIndexWidth digits, extension.
func (c Config) IsOutputName(base string) bool {
	if !strings.HasPrefix(base, c.OutputPrefix) || !strings.HasSuffix(base, c.OutputExt) {
		return false
	}
	index := base[len(c.OutputPrefix):]
	if len(index) < len(c.OutputExt) {
		return false
	}
	index = index[:len(index)-len(c.OutputExt)]
	if len(index) < c.OutputIndexWidth {
		return false
	}
	for _, r := range index {
		if r < '0' || r > '9' {
			return false
		}
	}
	return index != ""
}
