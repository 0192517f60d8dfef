package appconf

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all the configuration settings for the Application.
type Config struct {
	Port     int         `yaml:"port" validate:"min=1,max=65535"`
	Env      Environment `yaml:"-"`
	EnvName  string      `yaml:"env" validate:"omitempty,oneof=development test production prod"`
	LogLevel string      `yaml:"logLevel" validate:"oneof=debug info warn warning error"`
	LogFile  string      `yaml:"logFile"`

	// RateLimit is the number of requests per second allowed per client. Zero disables limiting.
	RateLimit int `yaml:"rateLimit" validate:"min=0"`
	// TrustedProxies are the IPs or CIDR blocks allowed to set X-Forwarded-For
	// and X-Real-IP. Empty means the socket peer is always the client.
	TrustedProxies []string `yaml:"trustedProxies" validate:"dive,cidr|ip"`

	CacheCapacity     int           `yaml:"cacheCapacity" validate:"min=1"`
	FeedCacheCapacity int           `yaml:"feedCacheCapacity" validate:"min=1"`
	FeedTTL           time.Duration `yaml:"feedTTL" validate:"gt=0"`
	HTTPTimeout       time.Duration `yaml:"httpTimeout" validate:"gt=0"`

	TramBaseURL string `yaml:"tramBaseURL" validate:"required,url"`
	TMBBaseURL  string `yaml:"tmbBaseURL" validate:"required,url"`
	TMBAppID    string `yaml:"tmbAppID"`
	TMBAppKey   string `yaml:"tmbAppKey"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Port:              8080,
		Env:               Development,
		EnvName:           Development.String(),
		LogLevel:          "info",
		RateLimit:         10,
		CacheCapacity:     10,
		FeedCacheCapacity: 8,
		FeedTTL:           30 * time.Second,
		HTTPTimeout:       15 * time.Second,
		TramBaseURL:       "https://opendata.tram.cat/api/v1",
		TMBBaseURL:        "https://api.tmb.cat/v1",
	}
}

// Load builds the configuration from, lowest precedence first: defaults, the
// YAML file named by -config, the .env file named by -env-file together with
// the process environment, and finally the flags present in args.
func Load(args []string) (Config, error) {
	cfg := Defaults()

	fset := flag.NewFlagSet("aonbas", flag.ContinueOnError)
	configPath := fset.String("config", "", "Path to a YAML configuration file")
	envFile := fset.String("env-file", ".env", "Path to a .env file (ignored when missing)")
	port := fset.Int("port", cfg.Port, "API server port")
	env := fset.String("env", cfg.EnvName, "Environment (development|test|production)")
	logLevel := fset.String("log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	logFile := fset.String("log-file", "", "Also write logs to this file, rotated by size")
	rateLimit := fset.Int("rate-limit", cfg.RateLimit, "Requests per second allowed per client (0 disables)")
	cacheCapacity := fset.Int("cache-capacity", cfg.CacheCapacity, "Maximum number of entries in the TTL cache")
	feedCacheCapacity := fset.Int("feed-cache-capacity", cfg.FeedCacheCapacity, "Maximum number of cached real-time feeds")
	feedTTL := fset.Duration("feed-ttl", cfg.FeedTTL, "How long merged real-time feeds are cached")
	httpTimeout := fset.Duration("http-timeout", cfg.HTTPTimeout, "Timeout for a single upstream request")
	trustedProxies := fset.String("trusted-proxies", "", "Comma-separated proxy IPs or CIDRs whose forwarding headers are honoured")
	tramBaseURL := fset.String("tram-base-url", cfg.TramBaseURL, "Tram open data API base URL")
	tmbBaseURL := fset.String("tmb-base-url", cfg.TMBBaseURL, "TMB API base URL")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", *envFile, err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "env":
			cfg.EnvName = *env
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		case "rate-limit":
			cfg.RateLimit = *rateLimit
		case "trusted-proxies":
			cfg.TrustedProxies = splitList(*trustedProxies)
		case "cache-capacity":
			cfg.CacheCapacity = *cacheCapacity
		case "feed-cache-capacity":
			cfg.FeedCacheCapacity = *feedCacheCapacity
		case "feed-ttl":
			cfg.FeedTTL = *feedTTL
		case "http-timeout":
			cfg.HTTPTimeout = *httpTimeout
		case "tram-base-url":
			cfg.TramBaseURL = *tramBaseURL
		case "tmb-base-url":
			cfg.TMBBaseURL = *tmbBaseURL
		}
	})

	cfg.Env = EnvFlagToEnvironment(cfg.EnvName)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv reads the supported environment variables through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("TMB_APP_ID", &c.TMBAppID)
	str("TMB_APP_KEY", &c.TMBAppKey)
	str("TRAM_BASE_URL", &c.TramBaseURL)
	str("TMB_BASE_URL", &c.TMBBaseURL)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("TRUSTED_PROXIES"); ok && strings.TrimSpace(v) != "" {
		c.TrustedProxies = splitList(v)
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
