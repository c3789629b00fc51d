package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/edgard/chatrelay/internal/errors"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RELAY_TELEGRAM_TOKEN", "123456:test-token")
	t.Setenv("RELAY_MAIL_FROM", "bot@example.com")
	t.Setenv("RELAY_MAIL_TO", "support@example.com")
	t.Setenv("RELAY_MAIL_SERVER", "smtp.example.com:465")
	t.Setenv("RELAY_MAIL_USERNAME", "bot")
	t.Setenv("RELAY_MAIL_PASSWORD", "secret")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RELAY_RELAY_IGNORED_USERNAMES", "@support_lead,@support_bot")
	t.Setenv("RELAY_RELAY_DEDUP_WINDOW", "10m")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123456:test-token", cfg.Telegram.Token)
	assert.Equal(t, DefaultCountry, cfg.Relay.DefaultCountry)
	assert.Equal(t, DefaultReferenceUTCOffset, cfg.Relay.ReferenceUTCOffset)
	assert.Equal(t, 10*time.Minute, cfg.Relay.DedupWindow)
	assert.Equal(t, []string{"@support_lead", "@support_bot"}, cfg.Relay.IgnoredUsernames)
	assert.True(t, cfg.Relay.IsIgnoredUsername("@support_bot"))
	assert.False(t, cfg.Relay.IsIgnoredUsername("@customer"))

	assert.Len(t, cfg.Relay.Countries, len(DefaultCountries))
	md := cfg.Relay.Countries["MD"]
	assert.True(t, md.SeasonalOffset)
	assert.Equal(t, []int{-1, 0}, md.TimezoneDelta)
	assert.Contains(t, cfg.Mail.Postscripts, PostscriptInternational)
	assert.True(t, cfg.Scheduler.Tasks[TaskSQLMaintenance].Enabled)
	assert.Equal(t, DefaultMessages.Start, cfg.Messages.Start)
}

func TestLoadConfigFileReplacesCountryTable(t *testing.T) {
	setRequiredEnv(t)

	path := writeConfig(t, `
logger:
  level: debug
relay:
  default_country: kz
  countries:
    kz:
      time_begin: "07:00:00"
      time_close: "16:00"
      timezone_delta: [2]
      languages: [KK, ru]
  replies:
    KK: "Жұмыс уақыты {open} - {close}"
    ru: "Мы работаем с {open} до {close}"
mail:
  postscripts:
    international: "\n\nfooter"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "KZ", cfg.Relay.DefaultCountry)
	require.Len(t, cfg.Relay.Countries, 1)
	assert.Equal(t, []string{"kk", "ru"}, cfg.Relay.Countries["KZ"].Languages)
	assert.Contains(t, cfg.Relay.Replies, "kk")
	assert.Equal(t, "\n\nfooter", cfg.Mail.Postscripts[PostscriptInternational])
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{
			name: "missing token",
			env:  map[string]string{"RELAY_TELEGRAM_TOKEN": ""},
		},
		{
			name: "unknown mail provider",
			env:  map[string]string{"RELAY_MAIL_PROVIDER": "pigeon"},
		},
		{
			name: "default country not configured",
			env:  map[string]string{"RELAY_RELAY_DEFAULT_COUNTRY": "XX"},
		},
		{
			name: "seasonal country with a single offset",
			yaml: `
relay:
  default_country: MD
  countries:
    MD: {time_begin: "10:00:00", time_close: "19:00:00", timezone_delta: [-1], seasonal_offset: true, languages: [ro]}
  replies:
    ro: "{open}-{close}"
`,
		},
		{
			name: "begin after close",
			yaml: `
relay:
  default_country: RU
  countries:
    RU: {time_begin: "18:00:00", time_close: "09:00:00", timezone_delta: [0], languages: [ru]}
  replies:
    ru: "{open}-{close}"
`,
		},
		{
			name: "category split without taxi template",
			yaml: `
relay:
  default_country: RU
  countries:
    RU: {time_begin: "09:00:00", time_close: "18:00:00", timezone_delta: [0], languages: [ru], category_split: true}
  replies:
    ru_retail: "{open}-{close}"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfiguration(err), "expected ConfigurationError, got %v", err)
		})
	}
}

func TestLoadConfigNamesMissingPostscriptKey(t *testing.T) {
	setRequiredEnv(t)

	path := writeConfig(t, `
mail:
  postscripts:
    kz: "\n\nfooter"
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.ErrorContains(t, err, `"INTERNATIONAL"`)
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"09:00:00", 9 * time.Hour, false},
		{"18:30:15", 18*time.Hour + 30*time.Minute + 15*time.Second, false},
		{" 07:45 ", 7*time.Hour + 45*time.Minute, false},
		{"25:00:00", 0, true},
		{"nine", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRelayedChat(t *testing.T) {
	t.Parallel()

	open := TelegramConfig{}
	assert.True(t, open.IsRelayedChat(-100123))

	restricted := TelegramConfig{ChatIDs: []int64{-100123}}
	assert.True(t, restricted.IsRelayedChat(-100123))
	assert.False(t, restricted.IsRelayedChat(-100999))
}
