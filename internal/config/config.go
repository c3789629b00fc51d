// Package config provides configuration loading, validation, and defaults
// for the relay. Values come from built-in defaults, an optional config.yaml,
// a .env file, and RELAY_* environment variables, in increasing priority.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mail      MailConfig      `mapstructure:"mail"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the chat platform settings.
type TelegramConfig struct {
	Token       string  `mapstructure:"token"         validate:"required"`
	AdminUserID int64   `mapstructure:"admin_user_id" validate:"gte=0"`
	ChatIDs     []int64 `mapstructure:"chat_ids"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds the message store location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// MailConfig holds the outbound notification settings.
type MailConfig struct {
	Provider string        `mapstructure:"provider" validate:"oneof=smtp sendgrid ses log"`
	From     string        `mapstructure:"from"     validate:"required,email"`
	To       string        `mapstructure:"to"       validate:"required,email"`
	Timeout  time.Duration `mapstructure:"timeout"  validate:"min=1s,max=5m"`

	// SMTP
	Server   string `mapstructure:"server"   validate:"required_if=Provider smtp"`
	Username string `mapstructure:"username" validate:"required_if=Provider smtp"`
	Password string `mapstructure:"password" validate:"required_if=Provider smtp"`

	// SendGrid
	SendGridAPIKey string `mapstructure:"sendgrid_api_key" validate:"required_if=Provider sendgrid"`

	// SES
	SESRegion string `mapstructure:"ses_region" validate:"required_if=Provider ses"`

	Breaker BreakerConfig `mapstructure:"breaker"`

	// Postscripts maps a country code to the footer appended to its
	// notifications. Countries without an entry use PostscriptInternational.
	Postscripts map[string]string `mapstructure:"postscripts"`
}

// PostscriptInternational is the Postscripts key used for countries without their own footer.
const PostscriptInternational = "INTERNATIONAL"

// BreakerConfig controls the circuit breaker in front of the mail transport.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures" validate:"omitempty,min=1"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"omitempty,min=1s"`
}

// RelayConfig holds the working hours and dedup rules.
type RelayConfig struct {
	DefaultCountry     string        `mapstructure:"default_country"      validate:"required"`
	ReferenceUTCOffset int           `mapstructure:"reference_utc_offset" validate:"min=-12,max=14"`
	DedupWindow        time.Duration `mapstructure:"dedup_window"         validate:"min=0"`
	EventTimeout       time.Duration `mapstructure:"event_timeout"        validate:"min=1s"`
	TaxiMarker         string        `mapstructure:"taxi_marker"          validate:"required"`
	IgnoredUsernames   []string      `mapstructure:"ignored_usernames"`

	Countries map[string]CountryConfig `mapstructure:"countries" validate:"dive"`

	// Replies maps a language code to its auto-reply template. Countries with
	// CategorySplit use "<lang>_taxi" and "<lang>_retail" instead. Templates
	// may contain {open} and {close}.
	Replies map[string]string `mapstructure:"replies"`
}

// CountryConfig is the static working-hours entry of one country. Clock
// strings are in the reference timezone; TimezoneDelta converts them to
// the country's local time for display.
type CountryConfig struct {
	TimeBegin      string   `mapstructure:"time_begin"      validate:"required"`
	TimeClose      string   `mapstructure:"time_close"      validate:"required"`
	TimezoneDelta  []int    `mapstructure:"timezone_delta"  validate:"required,min=1,dive,min=-24,max=24"`
	SeasonalOffset bool     `mapstructure:"seasonal_offset"`
	Languages      []string `mapstructure:"languages"       validate:"required,min=1"`
	CategorySplit  bool     `mapstructure:"category_split"`
}

// SchedulerConfig lists maintenance tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MonitorConfig controls the health and metrics HTTP server.
type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// MessagesConfig holds user-facing bot texts other than auto-replies.
type MessagesConfig struct {
	Start         string `mapstructure:"start"`
	NotAuthorized string `mapstructure:"not_authorized"`
	StatusHeader  string `mapstructure:"status_header"`
	StatusEmpty   string `mapstructure:"status_empty"`
}

// IsIgnoredUsername reports whether messages from username are never relayed.
func (c *RelayConfig) IsIgnoredUsername(username string) bool {
	for _, u := range c.IgnoredUsernames {
		if u == username {
			return true
		}
	}
	return false
}

// IsRelayedChat reports whether chatID passes the optional chat allow list.
func (c *TelegramConfig) IsRelayedChat(chatID int64) bool {
	if len(c.ChatIDs) == 0 {
		return true
	}
	for _, id := range c.ChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
