package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/inventory-console/internal/models"
	"github.com/rflorenc/inventory-console/internal/systems"
)

const (
	defaultListen            = ":8080"
	defaultRequestTimeout    = 30 * time.Second
	defaultDeleteBatchSize   = 50
	defaultDeleteConcurrency = 4
)

// Config holds all configuration. Values are layered: defaults, then the
// YAML file, then the environment (including a .env file), then flags
// applied by the caller.
type Config struct {
	Listen string `yaml:"listen"`
	// FrontendURL, when set, is a console dev server that every non API
	// path is proxied to.
	FrontendURL       string               `yaml:"frontend_url"`
	Inventory         models.Connection    `yaml:"inventory"`
	FeatureFlags      map[string]bool      `yaml:"feature_flags"`
	RequestTimeout    time.Duration        `yaml:"request_timeout"`
	DeleteBatchSize   int                  `yaml:"delete_batch_size"`
	DeleteConcurrency int                  `yaml:"delete_concurrency"`
	GlobalFilter      systems.GlobalFilter `yaml:"global_filter"`
}

// LoadOptions points Load at its inputs. Empty paths are skipped, except
// EnvFile which defaults to ".env" and may be missing.
type LoadOptions struct {
	File    string
	EnvFile string
}

func defaults() *Config {
	return &Config{
		Listen:            defaultListen,
		FeatureFlags:      map[string]bool{},
		RequestTimeout:    defaultRequestTimeout,
		DeleteBatchSize:   defaultDeleteBatchSize,
		DeleteConcurrency: defaultDeleteConcurrency,
	}
}

// Load builds the configuration from defaults, file and environment.
func Load(opts LoadOptions) (*Config, error) {
	c := defaults()
	if opts.File != "" {
		if err := c.loadFile(opts.File); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	c.Inventory.ApplyDefaults()
	if c.Inventory.Name == "" {
		c.Inventory.Name = "inventory"
	}
	return c, nil
}

// loadFile overlays values present in a YAML file.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if file.Listen != "" {
		c.Listen = file.Listen
	}
	if file.FrontendURL != "" {
		c.FrontendURL = file.FrontendURL
	}
	if file.RequestTimeout > 0 {
		c.RequestTimeout = file.RequestTimeout
	}
	if file.DeleteBatchSize > 0 {
		c.DeleteBatchSize = file.DeleteBatchSize
	}
	if file.DeleteConcurrency > 0 {
		c.DeleteConcurrency = file.DeleteConcurrency
	}
	for name, on := range file.FeatureFlags {
		c.FeatureFlags[name] = on
	}
	// The connection and global filter always come from the file.
	c.Inventory = file.Inventory
	c.GlobalFilter = file.GlobalFilter
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Listen, "LISTEN_ADDR")
	setString(&c.FrontendURL, "FRONTEND_URL")
	setString(&c.Inventory.Scheme, "INVENTORY_SCHEME")
	setString(&c.Inventory.Host, "INVENTORY_HOST")
	setString(&c.Inventory.Token, "INVENTORY_TOKEN")
	setString(&c.Inventory.Username, "INVENTORY_USERNAME")
	setString(&c.Inventory.Password, "INVENTORY_PASSWORD")
	setString(&c.Inventory.CACert, "INVENTORY_CA_CERT")

	if err := setInt(&c.Inventory.Port, "INVENTORY_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.DeleteBatchSize, "DELETE_BATCH_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.DeleteConcurrency, "DELETE_CONCURRENCY"); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("INVENTORY_INSECURE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INVENTORY_INSECURE: %w", err)
		}
		c.Inventory.Insecure = b
	}
	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("REQUEST_TIMEOUT: invalid duration %q", v)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("FEATURE_FLAGS"); v != "" {
		flags, err := ParseFlags(v)
		if err != nil {
			return fmt.Errorf("FEATURE_FLAGS: %w", err)
		}
		for name, on := range flags {
			c.FeatureFlags[name] = on
		}
	}
	return nil
}

// ParseFlags reads "name=true,other" style feature flag lists. A bare name
// turns the flag on.
func ParseFlags(s string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty flag name in %q", part)
		}
		on := true
		if found {
			b, err := strconv.ParseBool(strings.TrimSpace(val))
			if err != nil {
				return nil, fmt.Errorf("flag %s: %w", name, err)
			}
			on = b
		}
		out[name] = on
	}
	return out, nil
}

// Validate reports configuration the server can't start with.
func (c *Config) Validate() error {
	if c.Inventory.Host == "" {
		return errors.New("inventory host is not configured (inventory.host or INVENTORY_HOST)")
	}
	if c.DeleteBatchSize < 1 || c.DeleteConcurrency < 1 {
		return errors.New("delete batch size and concurrency must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
