package valuation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of a valuation run.
//
// It is read from an optional YAML file, API keys are read from the
// environment (and a .env file), command line flags override both.
type Config struct {
	// Provider is the name of the quote provider: eodhd, polygon, yahoo or static.
	Provider string `yaml:"provider"`
	// Currency is the currency amounts are displayed in.
	Currency string `yaml:"currency"`
	// Ranking is the ranking key of the summary.
	Ranking RankingKey `yaml:"ranking"`
	// QuotesFile is the CSV file of prices used by the static provider.
	QuotesFile string `yaml:"quotes_file"`
	// ReportBucket is the time bucket of the report cache of the dashboard.
	ReportBucket time.Duration `yaml:"report_bucket"`
	// LogLevel is the logrus level name.
	LogLevel string `yaml:"log_level"`

	Fetch FetchConfig `yaml:"fetch"`

	// API keys, never read from the YAML file.
	EODHDKey   string `yaml:"-"`
	PolygonKey string `yaml:"-"`
	GeminiKey  string `yaml:"-"`
}

// Environment variables holding provider secrets.
const (
	EnvEODHDKey   = "EODHD_API_KEY"
	EnvPolygonKey = "POLYGON_API_KEY"
	EnvGeminiKey  = "GEMINI_API_KEY"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Provider:     "yahoo",
		Currency:     "USD",
		Ranking:      RankAuto,
		ReportBucket: 15 * time.Minute,
		LogLevel:     "info",
		Fetch:        DefaultFetchConfig(),
	}
}

// LoadConfig reads the YAML file at path over the defaults, then the environment.
//
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("cannot read config %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return cfg, fmt.Errorf("cannot parse config %q: %w", path, err)
			}
		}
	}

	// .env is a convenience for local runs, it is fine if there is none.
	_ = godotenv.Load()
	cfg.EODHDKey = os.Getenv(EnvEODHDKey)
	cfg.PolygonKey = os.Getenv(EnvPolygonKey)
	cfg.GeminiKey = os.Getenv(EnvGeminiKey)

	key, err := ParseRankingKey(string(cfg.Ranking))
	if err != nil {
		return cfg, fmt.Errorf("invalid config %q: %w", path, err)
	}
	cfg.Ranking = key
	return cfg, nil
}
