package arvantis

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/events"
)

var (
	titleTierPattern = regexp.MustCompile(`(?i)title|title-sponsor|presenting|powered by|lead`)
	titleTextPattern = regexp.MustCompile(`(?i)title sponsor|powered by|presented by`)
)

// TierOrder is the render priority for partner tiers. Tiers not listed
// here sort after these, in the order they were first seen.
var TierOrder = []string{
	"title",
	"presenting",
	"platinum",
	"gold",
	"silver",
	"sponsor",
	"partner",
	"collaborator",
}

// landingPayload is the composite shape the landing endpoint may serve
// instead of a bare fest object.
type landingPayload struct {
	Fest     *Fest            `json:"fest,omitempty"`
	Hero     *events.Media    `json:"hero,omitempty"`
	Events   []events.Event   `json:"events,omitempty"`
	Partners []events.Partner `json:"partners,omitempty"`
	Computed map[string]any   `json:"computed,omitempty"`
}

// NormalizeLanding folds the landing payload into a single fest. The
// endpoint returns either the fest itself or a composite document
// whose hero, events, partners and computed blocks override the nested
// fest, optionally wrapped in the standard response envelope. An
// explicit hero wins over the first poster. A null payload or a null
// fest means no edition is live, reported as (nil, nil).
func NormalizeLanding(raw []byte) (*Fest, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var probe struct {
		Fest   json.RawMessage `json:"fest"`
		Data   json.RawMessage `json:"data"`
		Status string          `json:"status"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "malformed landing payload")
	}

	if probe.Fest == nil && probe.Data != nil && probe.Status != "" {
		return NormalizeLanding(probe.Data)
	}

	if probe.Fest == nil {
		var fest Fest
		if err := json.Unmarshal(trimmed, &fest); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "malformed landing payload")
		}
		applyHeroFallback(&fest)
		return &fest, nil
	}

	if bytes.Equal(bytes.TrimSpace(probe.Fest), []byte("null")) {
		return nil, nil
	}

	var payload landingPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "malformed landing payload")
	}

	fest := payload.Fest
	if payload.Hero != nil {
		fest.Hero = payload.Hero
	}
	if len(payload.Events) > 0 {
		fest.Events = payload.Events
	}
	if len(payload.Partners) > 0 {
		fest.Partners = payload.Partners
	}
	if len(payload.Computed) > 0 {
		fest.Computed = payload.Computed
	}
	applyHeroFallback(fest)
	return fest, nil
}

func applyHeroFallback(f *Fest) {
	if f.Hero == nil && len(f.Posters) > 0 {
		hero := f.Posters[0]
		f.Hero = &hero
	}
}

// TitleSponsor picks the partner promoted to the hero slot. Matching
// is checked rule by rule over every partner, ties broken by source
// order: first a tier that reads as a title tier, then an explicit
// flag or a role of "title", finally title wording in the name or
// description. False means the fest has no title sponsor.
func TitleSponsor(partners []events.Partner) (events.Partner, bool) {
	if i := titleSponsorIndex(partners); i >= 0 {
		return partners[i], true
	}
	return events.Partner{}, false
}

func titleSponsorIndex(partners []events.Partner) int {
	for i := range partners {
		if titleTierPattern.MatchString(partners[i].Tier) {
			return i
		}
	}
	for i := range partners {
		p := &partners[i]
		if p.IsTitleSponsor || p.TitleSponsor || p.Role == "title" {
			return i
		}
	}
	for i := range partners {
		p := &partners[i]
		if titleTextPattern.MatchString(p.Name + " " + p.Description) {
			return i
		}
	}
	return -1
}

// TierGroup is one rendered sponsor band.
type TierGroup struct {
	Tier     string
	Partners []events.Partner
}

// GroupByTier buckets partners into ordered tier bands for the sponsor
// wall. The title sponsor is excluded since it renders separately.
// Tiers are lowercased and default to "partner"; known tiers follow
// TierOrder, unknown tiers come last in first-seen order.
func GroupByTier(partners []events.Partner) []TierGroup {
	skip := titleSponsorIndex(partners)

	grouped := map[string][]events.Partner{}
	var encounter []string
	for i := range partners {
		if i == skip {
			continue
		}
		tier := normalizeTier(partners[i].Tier)
		if _, seen := grouped[tier]; !seen {
			encounter = append(encounter, tier)
		}
		grouped[tier] = append(grouped[tier], partners[i])
	}

	out := make([]TierGroup, 0, len(encounter))
	known := make(map[string]bool, len(TierOrder))
	for _, tier := range TierOrder {
		known[tier] = true
		if ps, ok := grouped[tier]; ok {
			out = append(out, TierGroup{Tier: tier, Partners: ps})
		}
	}
	for _, tier := range encounter {
		if !known[tier] {
			out = append(out, TierGroup{Tier: tier, Partners: grouped[tier]})
		}
	}
	return out
}

func normalizeTier(tier string) string {
	t := strings.ToLower(strings.TrimSpace(tier))
	if t == "" {
		return "partner"
	}
	return t
}
