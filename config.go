package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix     = "WEB_CLIPPER"
	envClipsDir   = "WEB_CLIPPER_DIR"
	envConfigFile = "WEB_CLIPPER_CONFIG"
	appName       = "web-clipper"
)

//go:embed defaults/config.yaml
var defaultConfigFile string

// Config is the resolved configuration. The core reads it, never the
// environment.
type Config struct {
	ClipsDirectory   string      `mapstructure:"clips_directory" yaml:"clips_directory"`
	CreateSubdirs    bool        `mapstructure:"create_subdirs" yaml:"create_subdirs"`
	IncludeTitle     bool        `mapstructure:"include_title" yaml:"include_title"`
	IncludeTimestamp bool        `mapstructure:"include_timestamp" yaml:"include_timestamp"`
	TimestampFormat  string      `mapstructure:"timestamp_format" yaml:"timestamp_format"`
	Images           ImageConfig `mapstructure:"images" yaml:"images"`
	LogFile          string      `mapstructure:"log_file" yaml:"log_file"`
	LogLevel         string      `mapstructure:"log_level" yaml:"log_level"`

	// Source is the dotfile that was read, empty when running on defaults
	Source string `mapstructure:"-" yaml:"-"`
}

// ImageConfig controls image downloads
type ImageConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// MarshalYAML writes the timeout in duration notation
func (c ImageConfig) MarshalYAML() (any, error) {
	return struct {
		Timeout       string `yaml:"timeout"`
		MaxConcurrent int    `yaml:"max_concurrent"`
		UserAgent     string `yaml:"user_agent"`
	}{c.Timeout.String(), c.MaxConcurrent, c.UserAgent}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("clips_directory", "~/clips")
	v.SetDefault("create_subdirs", true)
	v.SetDefault("include_title", true)
	v.SetDefault("include_timestamp", true)
	v.SetDefault("timestamp_format", "2006-01-02 15:04:05")
	v.SetDefault("images.timeout", 10*time.Second)
	v.SetDefault("images.max_concurrent", 4)
	v.SetDefault("images.user_agent", defaultUserAgent)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
}

// LoadConfig merges defaults, the dotfile and the environment. explicitPath
// comes from --config and must exist when set.
func LoadConfig(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("clips_directory", envClipsDir); err != nil {
		return nil, fmt.Errorf("binding %s: %w", envClipsDir, err)
	}

	setDefaults(v)

	path, required := explicitPath, explicitPath != ""
	if path == "" {
		if env := os.Getenv(envConfigFile); env != "" {
			path, required = env, true
		} else {
			path = findConfigFile()
		}
	}

	if path != "" {
		v.SetConfigFile(expandHome(path))
		if err := v.ReadInConfig(); err != nil {
			if required || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	cfg.ClipsDirectory = expandHome(cfg.ClipsDirectory)
	cfg.LogFile = expandHome(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ClipsDirectory) == "" {
		return errors.New("clips_directory must not be empty")
	}
	if c.Images.Timeout <= 0 {
		return fmt.Errorf("images.timeout must be positive, got %s", c.Images.Timeout)
	}
	if c.Images.MaxConcurrent <= 0 {
		return fmt.Errorf("images.max_concurrent must be positive, got %d", c.Images.MaxConcurrent)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// YAML renders the effective configuration
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return string(out), nil
}

// candidateConfigPaths lists dotfile locations in lookup order
func candidateConfigPaths() []string {
	var paths []string
	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".web-clipper.yaml"))
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, appName, "config.yaml"))
	} else if home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.yaml"))
	}
	return paths
}

func findConfigFile() string {
	for _, path := range candidateConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// defaultConfigPath is where init writes the dotfile
func defaultConfigPath() string {
	paths := candidateConfigPaths()
	if len(paths) == 0 {
		return filepath.Join(".", appName+".yaml")
	}
	return paths[len(paths)-1]
}

// EnsureConfigFile writes the default dotfile to path unless a file is
// already there. Reports whether a file was created.
func EnsureConfigFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigFile), 0644); err != nil {
		return false, fmt.Errorf("writing default config: %w", err)
	}
	return true, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
