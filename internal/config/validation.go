package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/edgard/chatrelay/internal/errors"
)

// ClockLayout is the layout of time_begin and time_close.
const ClockLayout = "15:04:05"

// Reply template keys used by countries with CategorySplit.
const (
	TaxiReplySuffix   = "_taxi"
	RetailReplySuffix = "_retail"
)

// ParseClock parses a "HH:MM:SS" (or "HH:MM") clock string into the offset
// from midnight.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	layout := ClockLayout
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// Validate checks struct constraints and the cross-field rules that tags
// cannot express. All failures are returned as a ConfigurationError.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigurationError("invalid configuration", err)
	}

	var problems []string

	if _, ok := c.Relay.Countries[c.Relay.DefaultCountry]; !ok {
		problems = append(problems, fmt.Sprintf("default country %q is not configured", c.Relay.DefaultCountry))
	}

	codes := make([]string, 0, len(c.Relay.Countries))
	for code := range c.Relay.Countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		problems = append(problems, c.validateCountry(code, c.Relay.Countries[code])...)
	}

	if _, ok := c.Mail.Postscripts[PostscriptInternational]; !ok {
		problems = append(problems, fmt.Sprintf("mail postscripts must define a %q entry", PostscriptInternational))
	}

	for name, task := range c.Scheduler.Tasks {
		if task.Enabled && strings.TrimSpace(task.Schedule) == "" {
			problems = append(problems, fmt.Sprintf("scheduler task %q is enabled without a schedule", name))
		}
	}

	if len(problems) > 0 {
		return apperrors.NewConfigurationError("invalid configuration: "+strings.Join(problems, "; "), nil)
	}
	return nil
}

func (c *Config) validateCountry(code string, country CountryConfig) []string {
	var problems []string

	begin, errBegin := ParseClock(country.TimeBegin)
	if errBegin != nil {
		problems = append(problems, fmt.Sprintf("country %s: time_begin: %v", code, errBegin))
	}
	closing, errClose := ParseClock(country.TimeClose)
	if errClose != nil {
		problems = append(problems, fmt.Sprintf("country %s: time_close: %v", code, errClose))
	}
	if errBegin == nil && errClose == nil && begin >= closing {
		problems = append(problems, fmt.Sprintf("country %s: time_begin must be before time_close", code))
	}

	if country.SeasonalOffset && len(country.TimezoneDelta) < 2 {
		problems = append(problems, fmt.Sprintf("country %s: seasonal_offset needs two timezone_delta entries", code))
	}

	if country.CategorySplit {
		if len(country.Languages) > 0 {
			lang := country.Languages[0]
			for _, key := range []string{lang + TaxiReplySuffix, lang + RetailReplySuffix} {
				if _, ok := c.Relay.Replies[key]; !ok {
					problems = append(problems, fmt.Sprintf("country %s: missing reply template %q", code, key))
				}
			}
		}
		return problems
	}

	for _, lang := range country.Languages {
		if _, ok := c.Relay.Replies[lang]; !ok {
			problems = append(problems, fmt.Sprintf("country %s: missing reply template %q", code, lang))
		}
	}
	return problems
}
