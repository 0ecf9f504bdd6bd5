// Package arvantis covers the flagship fest: public landing and
// details lookups, the derived partner and registration views, and the
// admin surface for editing editions.
package arvantis

import (
	"time"

	"github.com/syntaxclub/go-portal/events"
)

// Fest is one edition of the festival.
type Fest struct {
	ID          string            `json:"_id,omitempty"`
	Slug        string            `json:"slug,omitempty"`
	Year        int               `json:"year,omitempty"`
	Name        string            `json:"name,omitempty"`
	Tagline     string            `json:"tagline,omitempty"`
	Description string            `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
	StartDate   *events.Date      `json:"startDate,omitempty"`
	EndDate     *events.Date      `json:"endDate,omitempty"`
	Status      string            `json:"status,omitempty"`
	ThemeColors map[string]string `json:"themeColors,omitempty"`

	Poster  *events.Media  `json:"poster,omitempty"`
	Hero    *events.Media  `json:"hero,omitempty"`
	Posters []events.Media `json:"posters,omitempty"`
	Gallery []events.Media `json:"gallery,omitempty"`

	Partners []events.Partner `json:"partners,omitempty"`
	Events   []events.Event   `json:"events,omitempty"`
	Tracks   []Track          `json:"tracks,omitempty"`
	FAQs     []FAQ            `json:"faqs,omitempty"`

	SocialLinks map[string]string `json:"socialLinks,omitempty"`
	IsPublished bool              `json:"isPublished,omitempty"`

	// Computed carries server derived values such as live status and
	// duration. The shape is owned by the server and passed through.
	Computed map[string]any `json:"computed,omitempty"`
}

// OpenEventCount returns how many linked events currently accept
// registrations.
func (f *Fest) OpenEventCount(now time.Time) int {
	return events.OpenCount(f.Events, now)
}

// Track is a themed competition or talk track inside a fest.
type Track struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Order       int    `json:"order,omitempty"`
}

// FAQ is a question and answer pair shown on the fest page.
type FAQ struct {
	ID       string `json:"_id,omitempty"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Order    int    `json:"order,omitempty"`
}
