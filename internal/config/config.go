package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Confluence  ConfluenceConfig  `yaml:"confluence"`
	Attachments AttachmentsConfig `yaml:"attachments"`
}

type ConfluenceConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	APIToken string `yaml:"api_token"`
	SpaceKey string `yaml:"space_key,omitempty"`
}

// AttachmentsConfig holds defaults for the attachment commands.
type AttachmentsConfig struct {
	MinorEdit bool `yaml:"minor_edit"`
	// MaxFileSize in bytes; 0 disables the check.
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`
}

// Environment variables that take precedence over the file.
const (
	EnvBaseURL  = "CONFLUENCE_BASE_URL"
	EnvUsername = "CONFLUENCE_USERNAME"
	EnvAPIToken = "CONFLUENCE_API_TOKEN"
	EnvSpaceKey = "CONFLUENCE_SPACE_KEY"
)

func Load(path string) (*Config, error) {
	config, err := Parse(path)
	if err != nil {
		return nil, err
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Parse reads the YAML file without applying env overrides or validation.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(ResolveConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// ResolveConfigPath expands a leading "~" to the user's home directory.
func ResolveConfigPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		EnvBaseURL:  &c.Confluence.BaseURL,
		EnvUsername: &c.Confluence.Username,
		EnvAPIToken: &c.Confluence.APIToken,
		EnvSpaceKey: &c.Confluence.SpaceKey,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

func (c *Config) Validate() error {
	if c.Confluence.BaseURL == "" {
		return fmt.Errorf("confluence.base_url is required")
	}
	if !strings.HasPrefix(c.Confluence.BaseURL, "http://") && !strings.HasPrefix(c.Confluence.BaseURL, "https://") {
		return fmt.Errorf("confluence.base_url must start with http:// or https://")
	}
	if c.Confluence.Username == "" {
		return fmt.Errorf("confluence.username is required")
	}
	if c.Confluence.APIToken == "" {
		return fmt.Errorf("confluence.api_token is required")
	}
	if c.Attachments.MaxFileSize < 0 {
		return fmt.Errorf("attachments.max_file_size must not be negative")
	}
	return nil
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.Confluence.BaseURL, "/")
}
