package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	// DefaultStoryPointsField is the custom field Jira Cloud uses for story point estimates
	DefaultStoryPointsField = "customfield_10016"
)

// Credentials are passed through to the Jira client
type Credentials struct {
	URL   string `json:"url"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Alias is a shortcut name for an issue, with optional worklog defaults
type Alias struct {
	Issue   string  `json:"issue"`
	Time    *string `json:"time,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// Config is the content of the JSON configuration file
type Config struct {
	Credentials      Credentials      `json:"credentials"`
	Board            int              `json:"board"`
	Projects         []string         `json:"projects"`
	StoryPointsField string           `json:"storyPointsField,omitempty"`
	Aliases          map[string]Alias `json:"aliases"`
}

func DefaultConfig() *Config {
	return &Config{
		Projects:         []string{},
		StoryPointsField: DefaultStoryPointsField,
		Aliases:          map[string]Alias{},
	}
}

// Alias returns the alias registered under name, if any
func (c *Config) Alias(name string) (Alias, bool) {
	alias, ok := c.Aliases[name]
	return alias, ok
}

// AliasNames returns the alias names in lexical order
func (c *Config) AliasNames() []string {
	names := make([]string, 0, len(c.Aliases))
	for name := range c.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckCredentials reports missing fields needed to reach Jira
func (c *Config) CheckCredentials() error {
	var missing []string
	if c.Credentials.URL == "" {
		missing = append(missing, "credentials.url")
	}
	if c.Credentials.Email == "" {
		missing = append(missing, "credentials.email")
	}
	if c.Credentials.Token == "" {
		missing = append(missing, "credentials.token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %v", missing)
	}
	return nil
}

func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	return LoadFile(configPath)
}

// LoadFile reads the configuration at path, writing a default one if it does not exist yet
func LoadFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		config := DefaultConfig()
		if err := config.SaveFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.StoryPointsField == "" {
		config.StoryPointsField = DefaultStoryPointsField
	}
	if config.Aliases == nil {
		config.Aliases = map[string]Alias{}
	}

	return config, nil
}

func (c *Config) SaveFile(configPath string) error {
	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configPathFunc is a function variable to allow testing with different paths
var configPathFunc = defaultConfigPath

func defaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "jlog", "config.json"), nil
}

func getConfigPath() (string, error) {
	return configPathFunc()
}

func GetConfigPath() (string, error) {
	return getConfigPath()
}
