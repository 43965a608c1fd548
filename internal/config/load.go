package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g.
// TOPSTATS_MIN_FIGHT_DURATION=45.
const EnvPrefix = "TOPSTATS_"

// ConfigPathEnvVar can point at the YAML file when --config is not given.
const ConfigPathEnvVar = "TOPSTATS_CONFIG"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{
	"topstats.yaml",
	"topstats.yml",
}

// sliceConfigPaths may arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"stats_to_compute",
	"buffs_stacking_duration",
	"buffs_stacking_intensity",
	"buffs_not_stacking",
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first default path found), then TOPSTATS_* environment variables,
// and resolves it. A .env file in the working directory is read first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, reading from environment variables")
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
		log.Debug("Loaded config file", "path", path)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envTransform(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
