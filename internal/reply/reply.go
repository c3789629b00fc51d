// Package reply composes the out-of-hours auto-reply of a chat.
package reply

import (
	"fmt"
	"strings"
	"time"

	"github.com/edgard/chatrelay/internal/config"
	apperrors "github.com/edgard/chatrelay/internal/errors"
	"github.com/edgard/chatrelay/internal/hours"
)

// Composer renders reply templates with a country's local working hours.
type Composer struct {
	resolver   *hours.Resolver
	countries  map[string]config.CountryConfig
	templates  map[string]string
	taxiMarker string
}

// NewComposer creates a Composer from the relay configuration.
func NewComposer(cfg config.RelayConfig, resolver *hours.Resolver) *Composer {
	return &Composer{
		resolver:   resolver,
		countries:  cfg.Countries,
		templates:  cfg.Replies,
		taxiMarker: cfg.TaxiMarker,
	}
}

// Compose returns the auto-reply for chatName in country on the date of now.
// Category-split countries get a single taxi or retail text depending on the
// chat name; other countries get one line per configured language.
func (c *Composer) Compose(chatName, country string, now time.Time) (string, error) {
	cc, ok := c.countries[country]
	if !ok || len(cc.Languages) == 0 {
		return "", apperrors.NewConfigurationError(fmt.Sprintf("no reply languages for country %q", country), nil)
	}

	window, err := c.resolver.Resolve(country, now)
	if err != nil {
		return "", err
	}
	open, closing := window.LocalOpen(), window.LocalClose()

	if cc.CategorySplit {
		key := cc.Languages[0] + config.RetailReplySuffix
		if c.isTaxi(chatName) {
			key = cc.Languages[0] + config.TaxiReplySuffix
		}
		return c.render(key, open, closing)
	}

	lines := make([]string, 0, len(cc.Languages))
	for _, lang := range cc.Languages {
		line, err := c.render(lang, open, closing)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Composer) isTaxi(chatName string) bool {
	return c.taxiMarker != "" && strings.Contains(strings.ToLower(chatName), strings.ToLower(c.taxiMarker))
}

func (c *Composer) render(key, open, closing string) (string, error) {
	tmpl, ok := c.templates[key]
	if !ok {
		return "", apperrors.NewConfigurationError(fmt.Sprintf("reply template %q is not configured", key), nil)
	}
	return strings.NewReplacer("{open}", open, "{close}", closing).Replace(tmpl), nil
}
