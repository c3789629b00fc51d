package reply

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatrelay/internal/config"
	apperrors "github.com/edgard/chatrelay/internal/errors"
	"github.com/edgard/chatrelay/internal/hours"
)

var msk = time.FixedZone("UTC+3", 3*60*60)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	cfg := config.RelayConfig{
		DefaultCountry:     "RU",
		ReferenceUTCOffset: 3,
		TaxiMarker:         "такси",
		Countries:          config.DefaultCountries,
		Replies: map[string]string{
			"ru":        "ru {open}-{close}",
			"ru_taxi":   "taxi {open}-{close}",
			"ru_retail": "retail {open}-{close}",
			"kk":        "kk {open}-{close}",
			"uz":        "uz {open}-{close}",
			"ky":        "ky {open}-{close}",
			"hy":        "hy {open}-{close}",
			"ro":        "ro {open}-{close}",
		},
	}
	r, err := hours.NewResolver(cfg)
	require.NoError(t, err)
	return NewComposer(cfg, r)
}

func TestComposeCategorySplit(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t)
	now := time.Date(2026, time.October, 17, 18, 1, 0, 0, msk)

	tests := []struct {
		chat string
		want string
	}{
		{"Поддержка [RU такси]", "taxi 09:00:00-18:00:00"},
		{"Поддержка [RU] Такси Москва", "taxi 09:00:00-18:00:00"},
		{"Поддержка [RU]", "retail 09:00:00-18:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.chat, func(t *testing.T) {
			got, err := c.Compose(tt.chat, "RU", now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComposeMultiLanguageUsesLocalTime(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t)

	got, err := c.Compose("Support [KZ]", "KZ", time.Date(2026, time.October, 17, 20, 0, 0, 0, msk))
	require.NoError(t, err)
	assert.Equal(t, "kk 09:00:00-18:00:00\nru 09:00:00-18:00:00", got)
	assert.False(t, strings.Contains(got, "такси"))
}

func TestComposeSeasonalOffset(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t)

	winter, err := c.Compose("Support [MD]", "MD", time.Date(2026, time.January, 10, 20, 0, 0, 0, msk))
	require.NoError(t, err)
	assert.Equal(t, "ro 09:00:00-18:00:00\nru 09:00:00-18:00:00", winter)

	summer, err := c.Compose("Support [MD]", "MD", time.Date(2026, time.July, 10, 20, 0, 0, 0, msk))
	require.NoError(t, err)
	assert.Equal(t, "ro 10:00:00-19:00:00\nru 10:00:00-19:00:00", summer)
}

func TestComposeUnknownCountry(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t)

	_, err := c.Compose("Support [XX]", "XX", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfig, apperrors.Code(err))
}

func TestComposeMissingTemplate(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t)
	delete(c.templates, "hy")

	_, err := c.Compose("Support [AM]", "AM", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"hy"`)
}
