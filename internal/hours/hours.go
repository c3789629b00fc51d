// Package hours resolves per-country working windows.
//
// All clock strings in the configuration are expressed in a single reference
// timezone (a fixed UTC offset, Moscow time by default). Inbound message
// timestamps are normalized to the same zone, so a window is simply today's
// date in that zone combined with the configured clock strings. The per-country
// timezone delta is only used to present the window in the country's local time.
package hours

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/edgard/chatrelay/internal/config"
	apperrors "github.com/edgard/chatrelay/internal/errors"
)

// Summer months use the alternate offset of seasonal countries.
const (
	summerFirstMonth = time.June
	summerLastMonth  = time.August
)

// Window is the staffed time range of one country on one date.
type Window struct {
	Country string
	OpenAt  time.Time
	CloseAt time.Time
	// Offset converts reference-zone times to the country's local time.
	Offset time.Duration
}

// Contains reports whether t falls in [OpenAt, CloseAt).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.OpenAt) && t.Before(w.CloseAt)
}

// Opened reports whether the window has opened at t.
func (w Window) Opened(t time.Time) bool {
	return !t.Before(w.OpenAt)
}

// LocalOpen returns the opening time as a local wall-clock string.
func (w Window) LocalOpen() string {
	return w.OpenAt.Add(w.Offset).Format(config.ClockLayout)
}

// LocalClose returns the closing time as a local wall-clock string.
func (w Window) LocalClose() string {
	return w.CloseAt.Add(w.Offset).Format(config.ClockLayout)
}

type schedule struct {
	begin    time.Duration
	close    time.Duration
	deltas   []time.Duration
	seasonal bool
}

// Resolver computes windows from the static country table. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	location       *time.Location
	defaultCountry string
	schedules      map[string]schedule
	codes          []string
}

// NewResolver builds a Resolver from the relay configuration. Clock strings
// are parsed once here; an unparsable entry is a ConfigurationError.
func NewResolver(cfg config.RelayConfig) (*Resolver, error) {
	r := &Resolver{
		location:       ReferenceLocation(cfg.ReferenceUTCOffset),
		defaultCountry: strings.ToUpper(cfg.DefaultCountry),
		schedules:      make(map[string]schedule, len(cfg.Countries)),
	}

	for code, c := range cfg.Countries {
		begin, err := config.ParseClock(c.TimeBegin)
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("country %s: time_begin", code), err)
		}
		closing, err := config.ParseClock(c.TimeClose)
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("country %s: time_close", code), err)
		}
		if len(c.TimezoneDelta) == 0 {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("country %s: timezone_delta is empty", code), nil)
		}
		if c.SeasonalOffset && len(c.TimezoneDelta) < 2 {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("country %s: seasonal_offset needs two timezone_delta entries", code), nil)
		}

		deltas := make([]time.Duration, len(c.TimezoneDelta))
		for i, h := range c.TimezoneDelta {
			deltas[i] = time.Duration(h) * time.Hour
		}

		code = strings.ToUpper(code)
		r.schedules[code] = schedule{begin: begin, close: closing, deltas: deltas, seasonal: c.SeasonalOffset}
		r.codes = append(r.codes, code)
	}
	sort.Strings(r.codes)

	if _, ok := r.schedules[r.defaultCountry]; !ok {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("default country %q is not configured", r.defaultCountry), nil)
	}

	return r, nil
}

// ReferenceLocation returns the fixed zone used for stored timestamps.
func ReferenceLocation(utcOffsetHours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", utcOffsetHours), utcOffsetHours*int(time.Hour/time.Second))
}

// Location returns the reference zone.
func (r *Resolver) Location() *time.Location {
	return r.location
}

// Countries returns the configured country codes in sorted order.
func (r *Resolver) Countries() []string {
	return append([]string(nil), r.codes...)
}

// Has reports whether code is a configured country.
func (r *Resolver) Has(code string) bool {
	_, ok := r.schedules[code]
	return ok
}

// Default returns the fallback country code.
func (r *Resolver) Default() string {
	return r.defaultCountry
}

// Resolve returns the window of country on the reference-zone date of now.
// It fails with a ConfigurationError for an unknown country.
func (r *Resolver) Resolve(country string, now time.Time) (Window, error) {
	s, ok := r.schedules[country]
	if !ok {
		return Window{}, apperrors.NewConfigurationError(fmt.Sprintf("country %q is not configured", country), nil)
	}

	local := now.In(r.location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.location)

	return Window{
		Country: country,
		OpenAt:  midnight.Add(s.begin),
		CloseAt: midnight.Add(s.close),
		Offset:  s.offset(local.Month()),
	}, nil
}

func (s schedule) offset(month time.Month) time.Duration {
	if s.seasonal && month >= summerFirstMonth && month <= summerLastMonth {
		return s.deltas[1]
	}
	return s.deltas[0]
}

// Normalize converts t to the reference zone.
func (r *Resolver) Normalize(t time.Time) time.Time {
	return t.In(r.location)
}
