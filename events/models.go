package events

import (
	"encoding/json"
	"time"
)

// Event is a single club event, either standalone or linked to a fest
// edition. The API spells the display name as either title or name
// depending on the collection it came from.
type Event struct {
	ID           string     `json:"_id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Name         string     `json:"name,omitempty"`
	Description  string     `json:"description,omitempty"`
	EventDate    *Date      `json:"eventDate,omitempty"`
	Venue        string     `json:"venue,omitempty"`
	Posters      []Media    `json:"posters,omitempty"`
	Speakers     []Speaker  `json:"speakers,omitempty"`
	Partners     []Partner  `json:"partners,omitempty"`
	CoOrganizers []Partner  `json:"coOrganizers,omitempty"`
	Resources    []Resource `json:"resources,omitempty"`

	Registration     *Registration     `json:"registration,omitempty"`
	RegistrationInfo *RegistrationInfo `json:"registrationInfo,omitempty"`

	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// DisplayTitle returns the event title regardless of which field the
// server populated.
func (e *Event) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Name
}

// Media is an uploaded asset reference. Gallery entries are addressed
// by PublicID. Older records store the asset as a bare URL string, so
// decoding accepts both spellings.
type Media struct {
	URL      string `json:"url,omitempty"`
	PublicID string `json:"publicId,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Order    int    `json:"order,omitempty"`
}

func (m *Media) UnmarshalJSON(raw []byte) error {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*m = Media{URL: s}
		return nil
	}
	type alias Media
	var a alias
	if err := json.Unmarshal(raw, &a); err != nil {
		return err
	}
	*m = Media(a)
	return nil
}

// Speaker is a listed event speaker.
type Speaker struct {
	Name        string `json:"name,omitempty"`
	Designation string `json:"designation,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

// Partner is a sponsor or collaborator attached to an event or fest.
type Partner struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Tier        string `json:"tier,omitempty"`
	Role        string `json:"role,omitempty"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
	Website     string `json:"website,omitempty"`
	Order       int    `json:"order,omitempty"`

	IsTitleSponsor bool `json:"isTitleSponsor,omitempty"`
	TitleSponsor   bool `json:"titleSponsor,omitempty"`
}

// Resource is a link shared alongside an event, slides or recordings.
type Resource struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Registration modes understood by the openness rules.
const (
	ModeInternal = "internal"
	ModeExternal = "external"
)

// Registration describes how attendees sign up for an event.
type Registration struct {
	Mode        string `json:"mode,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`
	OpenDate    *Date  `json:"registrationOpenDate,omitempty"`
	CloseDate   *Date  `json:"registrationCloseDate,omitempty"`
}

// RegistrationInfo carries the server-computed openness verdict. IsOpen
// is a pointer so a missing field is distinguishable from false.
type RegistrationInfo struct {
	IsOpen *bool `json:"isOpen,omitempty"`
}
