package hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatrelay/internal/config"
	apperrors "github.com/edgard/chatrelay/internal/errors"
)

func testRelayConfig() config.RelayConfig {
	return config.RelayConfig{
		DefaultCountry:     "RU",
		ReferenceUTCOffset: 3,
		Countries: map[string]config.CountryConfig{
			"RU": {TimeBegin: "09:00:00", TimeClose: "18:00:00", TimezoneDelta: []int{0}, Languages: []string{"ru"}},
			"KZ": {TimeBegin: "07:00:00", TimeClose: "16:00:00", TimezoneDelta: []int{2}, Languages: []string{"kk", "ru"}},
			"MD": {TimeBegin: "10:00:00", TimeClose: "19:00:00", TimezoneDelta: []int{-1, 0}, SeasonalOffset: true, Languages: []string{"ro"}},
		},
	}
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(testRelayConfig())
	require.NoError(t, err)
	return r
}

func TestResolveBuildsWindowOnReferenceDate(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)
	msk := r.Location()

	// 22:30 UTC on Oct 16 is already Oct 17 in Moscow.
	now := time.Date(2026, time.October, 16, 22, 30, 0, 0, time.UTC)

	w, err := r.Resolve("RU", now)
	require.NoError(t, err)

	assert.Equal(t, "RU", w.Country)
	assert.True(t, w.OpenAt.Equal(time.Date(2026, time.October, 17, 9, 0, 0, 0, msk)))
	assert.True(t, w.CloseAt.Equal(time.Date(2026, time.October, 17, 18, 0, 0, 0, msk)))
	assert.Equal(t, "09:00:00", w.LocalOpen())
	assert.Equal(t, "18:00:00", w.LocalClose())
}

func TestResolveOpenBeforeCloseForAllCountries(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	start := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	for _, country := range r.Countries() {
		for day := 0; day < 366; day += 7 {
			now := start.AddDate(0, 0, day)
			w, err := r.Resolve(country, now)
			require.NoError(t, err)
			assert.True(t, w.OpenAt.Before(w.CloseAt), "%s on %s", country, now.Format(time.DateOnly))

			again, err := r.Resolve(country, now.Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, w, again, "window must be stable within a date")
		}
	}
}

func TestResolveSeasonalOffset(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	tests := []struct {
		month      time.Month
		wantOffset time.Duration
		wantOpen   string
	}{
		{time.January, -time.Hour, "09:00:00"},
		{time.May, -time.Hour, "09:00:00"},
		{time.June, 0, "10:00:00"},
		{time.July, 0, "10:00:00"},
		{time.August, 0, "10:00:00"},
		{time.September, -time.Hour, "09:00:00"},
		{time.December, -time.Hour, "09:00:00"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.month.String(), func(t *testing.T) {
			t.Parallel()
			now := time.Date(2026, tt.month, 15, 12, 0, 0, 0, r.Location())
			w, err := r.Resolve("MD", now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOffset, w.Offset)
			assert.Equal(t, tt.wantOpen, w.LocalOpen())
		})
	}
}

func TestResolveNonSeasonalCountryIgnoresMonth(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	for _, month := range []time.Month{time.February, time.July} {
		w, err := r.Resolve("KZ", time.Date(2026, month, 10, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, w.Offset)
		assert.Equal(t, "09:00:00", w.LocalOpen())
		assert.Equal(t, "18:00:00", w.LocalClose())
	}
}

func TestResolveUnknownCountry(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	_, err := r.Resolve("XX", time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestWindowContains(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)
	msk := r.Location()
	w, err := r.Resolve("RU", time.Date(2026, time.March, 3, 12, 0, 0, 0, msk))
	require.NoError(t, err)

	assert.False(t, w.Contains(time.Date(2026, time.March, 3, 8, 59, 59, 0, msk)))
	assert.True(t, w.Contains(time.Date(2026, time.March, 3, 9, 0, 0, 0, msk)))
	assert.True(t, w.Contains(time.Date(2026, time.March, 3, 17, 59, 59, 0, msk)))
	assert.False(t, w.Contains(time.Date(2026, time.March, 3, 18, 0, 0, 0, msk)))
	assert.True(t, w.Opened(time.Date(2026, time.March, 3, 18, 0, 0, 0, msk)))
}

func TestNewResolverValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.RelayConfig)
	}{
		{"missing default country", func(c *config.RelayConfig) { c.DefaultCountry = "BY" }},
		{"bad clock", func(c *config.RelayConfig) {
			ru := c.Countries["RU"]
			ru.TimeBegin = "9am"
			c.Countries["RU"] = ru
		}},
		{"seasonal without alternate offset", func(c *config.RelayConfig) {
			md := c.Countries["MD"]
			md.TimezoneDelta = []int{-1}
			c.Countries["MD"] = md
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testRelayConfig()
			tt.mutate(&cfg)
			_, err := NewResolver(cfg)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfiguration(err))
		})
	}
}

func TestCountriesSortedAndDefault(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	assert.Equal(t, []string{"KZ", "MD", "RU"}, r.Countries())
	assert.Equal(t, "RU", r.Default())
	assert.True(t, r.Has("KZ"))
	assert.False(t, r.Has("kz"))
}
