// Package config loads runtime configuration through viper and holds the
// config-document table served by the get_config endpoint. Both are
// constructed once in main and injected; there are no lazy globals.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "GAMESERVER"
	defaultAddress      = "localhost:8080"
	defaultDatabasePath = "gameserver.db"
	defaultLogLevel     = "info"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	Address      string
	DatabasePath string
	LogLevel     string
	TestMode     bool
	DevMode      bool
	// DocumentFiles maps config-document names to the files backing them.
	DocumentFiles map[string]string
}

// NewViper returns a viper instance with defaults and env bindings
// configured. A config file is optional; env vars and defaults suffice.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", defaultAddress)
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("test.enabled", false)
	v.SetDefault("dev.enabled", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Load parses runtime configuration from viper.
func Load(v *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		Address:       v.GetString("server.address"),
		DatabasePath:  v.GetString("database.path"),
		LogLevel:      v.GetString("log.level"),
		TestMode:      v.GetBool("test.enabled"),
		DevMode:       v.GetBool("dev.enabled"),
		DocumentFiles: v.GetStringMapString("documents"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("server.address is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// Documents is the load-once name to file-contents table behind
// get_config. Reads after construction are lock-free.
type Documents struct {
	byName map[string]string
}

// LoadDocuments reads every configured document file into memory.
// A missing or unreadable file fails startup rather than surfacing as a
// runtime 404.
func LoadDocuments(files map[string]string) (*Documents, error) {
	docs := &Documents{byName: make(map[string]string, len(files))}
	for name, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load document %q: %w", name, err)
		}
		docs.byName[name] = string(content)
	}
	return docs, nil
}

// Get returns the contents of a named document.
func (d *Documents) Get(name string) (string, bool) {
	content, ok := d.byName[name]
	return content, ok
}
