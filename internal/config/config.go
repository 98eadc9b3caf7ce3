// Package config holds the application settings unmarshalled from Viper:
// the config file (~/.genome-nav.yaml), GENOMENAV_ environment variables
// and command line flags bound in cmd/genome-nav.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
	"github.com/inodb/genome-nav/internal/navigate"
	"github.com/inodb/genome-nav/internal/store"
)

// EnvPrefix prefixes environment overrides, e.g. GENOMENAV_API_TIMEOUT.
const EnvPrefix = "GENOMENAV"

// FileName is the config file name looked up in the home directory.
const FileName = ".genome-nav.yaml"

// APIConfig locates the remote services.
type APIConfig struct {
	UCSCURL     string        `mapstructure:"ucsc-url"`
	EutilsURL   string        `mapstructure:"eutils-url"`
	SearchURL   string        `mapstructure:"search-url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchLimit int           `mapstructure:"search-limit"`
}

// NavigationConfig sets what a new session starts with.
type NavigationConfig struct {
	DefaultAssembly string `mapstructure:"default-assembly"`
	Organism        string `mapstructure:"organism"`
	ExampleGene     string `mapstructure:"example-gene"`
}

// RangeConfig bounds sequence fetches.
type RangeConfig struct {
	// span of the first fetch for a gene; 0 or less fetches the whole gene
	MaxInitialWindow int64 `mapstructure:"max-initial-window"`
}

// CacheConfig controls the DuckDB cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// ServerConfig is for the HTTP API.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// idle sessions are stopped after this long; 0 keeps them
	SessionTTL time.Duration `mapstructure:"session-ttl"`
}

// Config is the root settings struct.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Range      RangeConfig      `mapstructure:"range"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Server     ServerConfig     `mapstructure:"server"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.ucsc-url", genome.DefaultUCSCURL)
	v.SetDefault("api.eutils-url", genome.DefaultEutilsURL)
	v.SetDefault("api.search-url", genome.DefaultSearchURL)
	v.SetDefault("api.timeout", genome.DefaultTimeout)
	v.SetDefault("api.search-limit", genome.DefaultSearchLimit)

	v.SetDefault("navigation.default-assembly", navigate.DefaultAssembly)
	v.SetDefault("navigation.organism", genome.DefaultOrganism)
	v.SetDefault("navigation.example-gene", navigate.DefaultExampleGene)

	v.SetDefault("range.max-initial-window", interval.DefaultMaxInitialWindow)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", filepath.Join("~", ".genome-nav", "cache.duckdb"))
	v.SetDefault("cache.ttl", store.DefaultTTL)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.session-ttl", 30*time.Minute)
}

// BindEnv makes every key overridable from GENOMENAV_ variables, with dots
// and dashes mapped to underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	path, err := ExpandHome(c.Cache.Path)
	if err != nil {
		return Config{}, err
	}
	c.Cache.Path = path
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings no component can work with.
func (c Config) Validate() error {
	for key, u := range map[string]string{
		"api.ucsc-url":   c.API.UCSCURL,
		"api.eutils-url": c.API.EutilsURL,
		"api.search-url": c.API.SearchURL,
	} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%s: %q is not an http(s) URL", key, u)
		}
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout: must not be negative, got %s", c.API.Timeout)
	}
	if c.Navigation.DefaultAssembly == "" {
		return fmt.Errorf("navigation.default-assembly: must not be empty")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Server.SessionTTL < 0 {
		return fmt.Errorf("server.session-ttl: must not be negative, got %s", c.Server.SessionTTL)
	}
	return nil
}

// ClientOptions returns the options for genome.NewClient.
func (c Config) ClientOptions() genome.Options {
	window := c.Range.MaxInitialWindow
	if window == 0 {
		// NewClient treats 0 as "use the default"; 0 in the config means no cap.
		window = -1
	}
	return genome.Options{
		UCSCURL:          c.API.UCSCURL,
		EutilsURL:        c.API.EutilsURL,
		SearchURL:        c.API.SearchURL,
		Timeout:          c.API.Timeout,
		SearchLimit:      c.API.SearchLimit,
		MaxInitialWindow: window,
	}
}

// MachineOptions returns the options for navigate.New.
func (c Config) MachineOptions() navigate.Options {
	return navigate.Options{
		DefaultAssembly: c.Navigation.DefaultAssembly,
		Organism:        c.Navigation.Organism,
		ExampleGene:     c.Navigation.ExampleGene,
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
