// Package tickets covers the admin ticket desk: listing issued
// tickets per event, marking them used at the door, and voiding them.
package tickets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/paginate"
	"github.com/syntaxclub/go-portal/transport"
)

const basePath = "/api/v1/tickets"

// Canonical ticket statuses on the wire.
const (
	StatusUsed   = "used"
	StatusActive = "active"
)

// Ticket is an issued event ticket.
type Ticket struct {
	ID       string     `json:"_id,omitempty"`
	EventID  string     `json:"eventId,omitempty"`
	MemberID string     `json:"memberId,omitempty"`
	Code     string     `json:"code,omitempty"`
	Status   string     `json:"status,omitempty"`
	IsUsed   bool       `json:"isUsed,omitempty"`
	IssuedAt *time.Time `json:"issuedAt,omitempty"`
	UsedAt   *time.Time `json:"usedAt,omitempty"`
}

// Service talks to the tickets endpoints. Everything here requires an
// admin session.
type Service struct {
	api *transport.Clients
}

// NewService returns a tickets service bound to the given clients.
func NewService(api *transport.Clients) *Service {
	return &Service{api: api}
}

// StatusInput is a ticket status change. Build one with FromBool or
// FromString; either way the wire sees exactly "used" or "active".
type StatusInput struct {
	used bool
}

// FromBool marks a ticket used or active.
func FromBool(isUsed bool) StatusInput {
	return StatusInput{used: isUsed}
}

// FromString interprets a raw status value. Anything that does not
// read as "used" counts as active.
func FromString(status string) StatusInput {
	return StatusInput{used: strings.EqualFold(strings.TrimSpace(status), StatusUsed)}
}

func (s StatusInput) canonical() string {
	if s.used {
		return StatusUsed
	}
	return StatusActive
}

// ListByEvent returns the tickets issued for one event. The endpoint
// has answered with a bare array, a docs page and a results wrapper
// across versions, all of which normalize to the canonical page.
func (s *Service) ListByEvent(ctx context.Context, eventID string, params paginate.ListParams) (paginate.Page[Ticket], error) {
	if eventID == "" {
		return paginate.Page[Ticket]{}, goerrors.New("event id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     basePath + "/event/" + url.PathEscape(eventID),
		Query:    params.Query(),
		Fallback: "could not load tickets",
	}
	raw, err := s.api.Auth.DoBytes(ctx, req)
	if err != nil {
		return paginate.Page[Ticket]{}, err
	}
	return normalizeList(raw)
}

// UpdateStatus flips a ticket between used and active.
func (s *Service) UpdateStatus(ctx context.Context, id string, status StatusInput) (*Ticket, error) {
	if id == "" {
		return nil, goerrors.New("ticket id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	var ticket Ticket
	req := transport.Request{
		Method:   http.MethodPatch,
		Path:     basePath + "/" + url.PathEscape(id) + "/status",
		Body:     transport.JSON(map[string]string{"status": status.canonical()}),
		Fallback: "could not update ticket status",
	}
	if err := s.api.Auth.Do(ctx, req, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Delete voids a ticket.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return goerrors.New("ticket id is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	req := transport.Request{
		Method:   http.MethodDelete,
		Path:     basePath + "/" + url.PathEscape(id),
		Fallback: "could not delete ticket",
	}
	var ack transport.Ack
	return s.api.Auth.Do(ctx, req, &ack)
}

// normalizeList extends the standard page normalization with the
// legacy {results: [...]} wrapper this endpoint alone still serves.
func normalizeList(raw []byte) (paginate.Page[Ticket], error) {
	var probe struct {
		Results json.RawMessage `json:"results"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		results := probe.Results
		if results == nil && probe.Data != nil {
			var inner struct {
				Results json.RawMessage `json:"results"`
			}
			if err := json.Unmarshal(probe.Data, &inner); err == nil {
				results = inner.Results
			}
		}
		if results != nil {
			var docs []Ticket
			if err := json.Unmarshal(results, &docs); err != nil {
				return paginate.Page[Ticket]{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "unexpected ticket list payload")
			}
			return paginate.FromDocs(docs), nil
		}
	}
	return paginate.Normalize[Ticket](raw)
}
