package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/altynmaturuen/freebie-poster/internal/history"
	"github.com/altynmaturuen/freebie-poster/pkg/providers"
	"github.com/altynmaturuen/freebie-poster/pkg/telegram"
)

const (
	envPrefix      = "POSTER"
	configName     = "poster"
	defaultChannel = "@altynmaturuen"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("TELEGRAM_TOKEN is not set")

// Config is the full runtime configuration.
type Config struct {
	Telegram       TelegramConfig `mapstructure:"telegram"`
	History        HistoryConfig  `mapstructure:"history"`
	Sources        SourcesConfig  `mapstructure:"sources"`
	HTTP           HTTPConfig     `mapstructure:"http"`
	Scrape         ScrapeConfig   `mapstructure:"scrape"`
	Poll           PollConfig     `mapstructure:"poll"`
	Log            LogConfig      `mapstructure:"log"`
	Random         RandomConfig   `mapstructure:"random"`
	PublishersFile string         `mapstructure:"publishers_file"`
}

type TelegramConfig struct {
	Token          string `mapstructure:"token"`
	Channel        string `mapstructure:"channel"`
	APIBaseURL     string `mapstructure:"api_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type HistoryConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	// RecordFailedSends keeps the old behaviour of marking content as
	// published even when the channel rejected it.
	RecordFailedSends bool `mapstructure:"record_failed_sends"`
}

type SourcesConfig struct {
	Steam providers.Provider `mapstructure:"steam"`
	Epic  providers.Provider `mapstructure:"epic"`
}

type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type ScrapeConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type PollConfig struct {
	Probability float64 `mapstructure:"probability"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RandomConfig struct {
	// Seed fixes the random sequence; 0 seeds from the clock.
	Seed uint64 `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.channel", defaultChannel)
	v.SetDefault("telegram.api_base_url", telegram.DefaultBaseURL)
	v.SetDefault("telegram.timeout_seconds", 30)

	v.SetDefault("history.backend", history.BackendJSON)
	// Empty picks the backend's own file in sanitize.
	v.SetDefault("history.path", "")
	v.SetDefault("history.record_failed_sends", false)

	v.SetDefault("sources.steam.id", providers.ProviderSteam)
	v.SetDefault("sources.steam.source_url", providers.DefaultSteamURL)
	v.SetDefault("sources.epic.id", providers.ProviderEpic)
	v.SetDefault("sources.epic.source_url", providers.DefaultEpicURL)

	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("scrape.enabled", true)
	v.SetDefault("poll.probability", 0.2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("random.seed", 0)
	v.SetDefault("publishers_file", "")
}

// LoadEnv loads variables from .env files into the process environment
// without overriding values that are already set. It returns the files read.
func LoadEnv(files ...string) []string {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			continue
		}
		loaded = append(loaded, f)
	}
	return loaded
}

// Load reads defaults, an optional config file and the environment.
// An explicit path must exist; otherwise ./poster.{yaml,json,toml} is used
// when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("telegram.token", "TELEGRAM_TOKEN", envPrefix+"_TELEGRAM_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind token env: %w", err)
	}

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg = sanitize(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func sanitize(cfg Config) Config {
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Telegram.Channel = strings.TrimSpace(cfg.Telegram.Channel)
	cfg.Telegram.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Telegram.APIBaseURL), "/")
	cfg.History.Backend = strings.ToLower(strings.TrimSpace(cfg.History.Backend))
	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	if cfg.History.Path == "" {
		cfg.History.Path = history.DefaultPathFor(cfg.History.Backend)
	}
	cfg.Sources.Steam.ID = strings.ToLower(strings.TrimSpace(cfg.Sources.Steam.ID))
	cfg.Sources.Steam.SourceURL = strings.TrimSpace(cfg.Sources.Steam.SourceURL)
	cfg.Sources.Epic.ID = strings.ToLower(strings.TrimSpace(cfg.Sources.Epic.ID))
	cfg.Sources.Epic.SourceURL = strings.TrimSpace(cfg.Sources.Epic.SourceURL)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.PublishersFile = strings.TrimSpace(cfg.PublishersFile)
	return cfg
}

// Validate checks the settings a run cannot do without.
func (c Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	if c.Telegram.Channel == "" {
		return errors.New("telegram.channel is required")
	}
	switch c.History.Backend {
	case history.BackendJSON, history.BackendBolt:
	default:
		return fmt.Errorf("history.backend %q not supported", c.History.Backend)
	}
	if c.History.Path == "" {
		return errors.New("history.path is required")
	}
	if c.Sources.Steam.SourceURL == "" || c.Sources.Epic.SourceURL == "" {
		return errors.New("sources.*.source_url must not be empty")
	}
	if c.Poll.Probability < 0 || c.Poll.Probability > 1 {
		return fmt.Errorf("poll.probability %v outside [0, 1]", c.Poll.Probability)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.New("http.timeout_seconds must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q not supported", c.Log.Format)
	}
	return nil
}
