package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/edgard/chatrelay/internal/errors"
)

// EnvPrefix is the prefix of environment overrides, e.g. RELAY_TELEGRAM_TOKEN.
const EnvPrefix = "RELAY"

// LoadConfig loads and validates configuration from, in increasing priority:
//  1. built-in defaults
//  2. the YAML file at path (optional, a missing file is not an error)
//  3. a .env file in the working directory (optional)
//  4. RELAY_* environment variables
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigurationError("failed to read .env file", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read config file %s", path), err)
			}
			slog.Info("Config file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to parse config", err)
	}

	applyDefaultTables(cfg)
	normalize(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers scalar defaults. Registering a key also lets
// AutomaticEnv pick up its RELAY_* variable on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)
	v.SetDefault("telegram.chat_ids", []int64{})

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("mail.provider", DefaultMailProvider)
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", "")
	v.SetDefault("mail.timeout", DefaultMailTimeout)
	v.SetDefault("mail.server", "")
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.sendgrid_api_key", "")
	v.SetDefault("mail.ses_region", "")
	v.SetDefault("mail.breaker.enabled", true)
	v.SetDefault("mail.breaker.max_failures", DefaultBreakerMaxFailures)
	v.SetDefault("mail.breaker.open_timeout", DefaultBreakerOpenTimeout)

	v.SetDefault("relay.default_country", DefaultCountry)
	v.SetDefault("relay.reference_utc_offset", DefaultReferenceUTCOffset)
	v.SetDefault("relay.dedup_window", DefaultDedupWindow)
	v.SetDefault("relay.event_timeout", DefaultEventTimeout)
	v.SetDefault("relay.taxi_marker", DefaultTaxiMarker)
	v.SetDefault("relay.ignored_usernames", []string{})

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.addr", DefaultMonitorAddr)

	v.SetDefault("messages.start", DefaultMessages.Start)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.status_header", DefaultMessages.StatusHeader)
	v.SetDefault("messages.status_empty", DefaultMessages.StatusEmpty)
}

// applyDefaultTables fills the map-valued sections that were not configured.
// Maps are replaced as a whole, never merged, so a config file can drop a
// default country.
func applyDefaultTables(cfg *Config) {
	if len(cfg.Relay.Countries) == 0 {
		cfg.Relay.Countries = make(map[string]CountryConfig, len(DefaultCountries))
		for code, c := range DefaultCountries {
			c.TimezoneDelta = append([]int(nil), c.TimezoneDelta...)
			c.Languages = append([]string(nil), c.Languages...)
			cfg.Relay.Countries[code] = c
		}
	}
	if len(cfg.Relay.Replies) == 0 {
		cfg.Relay.Replies = maps.Clone(DefaultReplies)
	}
	if len(cfg.Mail.Postscripts) == 0 {
		cfg.Mail.Postscripts = maps.Clone(DefaultPostscripts)
	}
	if len(cfg.Scheduler.Tasks) == 0 {
		cfg.Scheduler.Tasks = maps.Clone(DefaultTasks)
	}
}

// normalize undoes viper's lower-casing of map keys: country codes are
// upper case, language codes lower case.
func normalize(cfg *Config) {
	cfg.Relay.DefaultCountry = strings.ToUpper(strings.TrimSpace(cfg.Relay.DefaultCountry))

	countries := make(map[string]CountryConfig, len(cfg.Relay.Countries))
	for code, c := range cfg.Relay.Countries {
		for i, lang := range c.Languages {
			c.Languages[i] = strings.ToLower(strings.TrimSpace(lang))
		}
		countries[strings.ToUpper(strings.TrimSpace(code))] = c
	}
	cfg.Relay.Countries = countries

	replies := make(map[string]string, len(cfg.Relay.Replies))
	for key, text := range cfg.Relay.Replies {
		replies[strings.ToLower(strings.TrimSpace(key))] = text
	}
	cfg.Relay.Replies = replies

	postscripts := make(map[string]string, len(cfg.Mail.Postscripts))
	for key, text := range cfg.Mail.Postscripts {
		postscripts[strings.ToUpper(strings.TrimSpace(key))] = text
	}
	cfg.Mail.Postscripts = postscripts
}
