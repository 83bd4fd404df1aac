/*
Package config manages the TOML config for suggestserve.

Missing files are created with defaults. A file that fails strict decoding is
parsed again section by section so one bad value does not throw away the
rest of the file.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vulyk/suggestserve/internal/utils"
)

const appDir = "suggestserve"

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Ranker RankerConfig `toml:"ranker"`
	Vocab  VocabConfig  `toml:"vocab"`
	Tasks  TasksConfig  `toml:"tasks"`
	CLI    CliConfig    `toml:"cli"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit int `toml:"max_limit"` // ranked candidates per response, literal not counted
	MaxQuery int `toml:"max_query"` // in runes
}

// RankerConfig selects the scoring capability of candidates.
type RankerConfig struct {
	Scorer string `toml:"scorer"`
}

// VocabConfig points at the candidate collection.
type VocabConfig struct {
	Path  string   `toml:"path"`
	Terms []string `toml:"terms"`
}

// TasksConfig holds task service options.
type TasksConfig struct {
	BaseURL   string `toml:"base_url"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// Timeout returns the task service timeout as a duration.
func (t TasksConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutMS) * time.Millisecond
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit: 64,
			MaxQuery: 120,
		},
		Ranker: RankerConfig{
			Scorer: "quicksilver",
		},
		Vocab: VocabConfig{
			Path:  "",
			Terms: []string{},
		},
		Tasks: TasksConfig{
			BaseURL:   "http://localhost:5000",
			TimeoutMS: 5000,
		},
		CLI: CliConfig{
			DefaultLimit: 24,
		},
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. $XDG_CONFIG_HOME/suggestserve or ~/.config/suggestserve
// 2. ~/Library/Application Support/suggestserve (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		path := filepath.Join(xdg, appDir)
		if result := utils.CheckDirStatus(path); result.Writable {
			return path, nil
		}
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", appDir)
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", appDir)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from the -config flag
// 2. Default path: [UserConfigDir]/suggestserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Values missing from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	unknown, err := utils.LoadTOMLFile(configPath, config)
	if err != nil {
		return tryPartialParse(configPath)
	}
	for _, key := range unknown {
		log.Warnf("Unknown config key %q in %s", key, configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value it can find in the known sections.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(raw, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(raw, "ranker"); ok {
		extractRankerConfig(section, &config.Ranker)
	}
	if section, ok := utils.ExtractSection(raw, "vocab"); ok {
		extractVocabConfig(section, &config.Vocab)
	}
	if section, ok := utils.ExtractSection(raw, "tasks"); ok {
		extractTasksConfig(section, &config.Tasks)
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query"); ok {
		server.MaxQuery = val
	}
}

func extractRankerConfig(data map[string]any, ranker *RankerConfig) {
	if val, ok := utils.ExtractString(data, "scorer"); ok {
		ranker.Scorer = val
	}
}

func extractVocabConfig(data map[string]any, vocab *VocabConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		vocab.Path = val
	}
	if val, ok := utils.ExtractStrings(data, "terms"); ok {
		vocab.Terms = val
	}
}

func extractTasksConfig(data map[string]any, tasks *TasksConfig) {
	if val, ok := utils.ExtractString(data, "base_url"); ok {
		tasks.BaseURL = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		tasks.TimeoutMS = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes server and ranker values and saves to file. nil leaves a value as is.
func (c *Config) Update(configPath string, maxLimit, maxQuery *int, scorer *string) error {
	if maxLimit != nil {
		c.Server.MaxLimit = *maxLimit
	}
	if maxQuery != nil {
		c.Server.MaxQuery = *maxQuery
	}
	if scorer != nil {
		c.Ranker.Scorer = *scorer
	}
	return SaveConfig(c, configPath)
}

// UpdateFile applies the given fields to the config stored at configPath and
// saves it. Values only held in memory, like command line overrides, are not
// written.
func UpdateFile(configPath string, maxLimit, maxQuery *int, scorer *string) (*Config, error) {
	stored, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := stored.Update(configPath, maxLimit, maxQuery, scorer); err != nil {
		return nil, err
	}
	return stored, nil
}
