/*
Package config manages the TOML config for hintserve.
*/
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/bastiangx/hintserve/internal/utils"
	"github.com/charmbracelet/log"
)

// FileName is the config file looked up in the config dir.
const FileName = "hintserve.toml"

// Config holds the entire config structure
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Completion CompletionConfig `toml:"completion"`
	Feedback   FeedbackConfig   `toml:"feedback"`
	CLI        CliConfig        `toml:"cli"`
}

// ServerConfig has the inference service options.
type ServerConfig struct {
	InferURL          string `toml:"infer_url"`
	TimeoutMs         int    `toml:"timeout_ms"`
	FilterPredictions bool   `toml:"filter_predictions"`
}

// CompletionConfig shapes the candidate lists.
type CompletionConfig struct {
	LookbackLines int    `toml:"lookback_lines"`
	LabelPrefix   string `toml:"label_prefix"`
	MaxCandidates int    `toml:"max_candidates"`
}

// FeedbackConfig controls what happens with accepted and dismissed candidates.
type FeedbackConfig struct {
	ShareAccepted bool `toml:"share_accepted"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultTrigger string `toml:"default_trigger"`
}

// Timeout returns the inference timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			InferURL:          "https://type4py.com/api/predict",
			TimeoutMs:         60000,
			FilterPredictions: true,
		},
		Completion: CompletionConfig{
			LookbackLines: 4,
			LabelPrefix:   " ",
			MaxCandidates: 0,
		},
		Feedback: FeedbackConfig{
			ShareAccepted: false,
		},
		CLI: CliConfig{
			DefaultTrigger: ":",
		},
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. $XDG_CONFIG_HOME/hintserve (linux) or %APPDATA%/hintserve (windows)
// 2. ~/.config/hintserve
// 3. ~/Library/Application Support/hintserve (macOS)
// 4. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}

	candidates := make([]string, 0, 3)
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			candidates = append(candidates, filepath.Join(configHome, "hintserve"))
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			candidates = append(candidates, filepath.Join(appData, "hintserve"))
		}
	}
	candidates = append(candidates,
		filepath.Join(homeDir, ".config", "hintserve"),
		filepath.Join(homeDir, "Library", "Application Support", "hintserve"),
	)

	for _, dir := range candidates {
		if result := utils.CheckDirStatus(dir); result.Writable {
			return dir, nil
		}
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for hintserve.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [ConfigDir]/hintserve.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
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

// LoadConfig loads from a TOML file. Keys missing from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config.normalized(), nil
}

// tryPartialParse keeps every well typed key of a file the struct decoder rejected.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "completion"); ok {
		extractCompletionConfig(section, &config.Completion)
	}
	if section, ok := utils.ExtractSection(tempConfig, "feedback"); ok {
		if val, ok := utils.Extract[bool](section, "share_accepted"); ok {
			config.Feedback.ShareAccepted = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.Extract[string](section, "default_trigger"); ok {
			config.CLI.DefaultTrigger = val
		}
	}
	return config.normalized(), nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.Extract[string](data, "infer_url"); ok {
		server.InferURL = val
	}
	if val, ok := utils.ExtractInt(data, "timeout_ms"); ok {
		server.TimeoutMs = val
	}
	if val, ok := utils.Extract[bool](data, "filter_predictions"); ok {
		server.FilterPredictions = val
	}
}

func extractCompletionConfig(data map[string]any, completion *CompletionConfig) {
	if val, ok := utils.ExtractInt(data, "lookback_lines"); ok {
		completion.LookbackLines = val
	}
	if val, ok := utils.Extract[string](data, "label_prefix"); ok {
		completion.LabelPrefix = val
	}
	if val, ok := utils.ExtractInt(data, "max_candidates"); ok {
		completion.MaxCandidates = val
	}
}

// normalized replaces out of range values with defaults.
func (c *Config) normalized() *Config {
	defaults := DefaultConfig()
	if c.Server.InferURL == "" {
		c.Server.InferURL = defaults.Server.InferURL
	}
	if c.Server.TimeoutMs <= 0 {
		log.Warnf("timeout_ms must be positive, got %d. Using %d", c.Server.TimeoutMs, defaults.Server.TimeoutMs)
		c.Server.TimeoutMs = defaults.Server.TimeoutMs
	}
	if c.Completion.LookbackLines <= 0 {
		c.Completion.LookbackLines = defaults.Completion.LookbackLines
	}
	if c.Completion.MaxCandidates < 0 {
		c.Completion.MaxCandidates = 0
	}
	if c.CLI.DefaultTrigger != ":" && c.CLI.DefaultTrigger != ">" {
		c.CLI.DefaultTrigger = defaults.CLI.DefaultTrigger
	}
	return c
}

// RebuildConfigFile force creates a new hintserve.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
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

// Update changes the server values and saves to file
func (c *Config) Update(configPath string, inferURL *string, timeoutMs *int, filter *bool) error {
	server := &c.Server
	if inferURL != nil {
		server.InferURL = *inferURL
	}
	if timeoutMs != nil {
		server.TimeoutMs = *timeoutMs
	}
	if filter != nil {
		server.FilterPredictions = *filter
	}
	c.normalized()
	return SaveConfig(c, configPath)
}
