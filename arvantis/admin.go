package arvantis

import (
	"context"
	"net/http"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/events"
	"github.com/syntaxclub/go-portal/transport"
)

// FestInput is the create payload for an edition. Update calls reuse
// it as a partial patch.
type FestInput struct {
	Name        string            `json:"name,omitempty"`
	Slug        string            `json:"slug,omitempty"`
	Year        int               `json:"year,omitempty"`
	Tagline     string            `json:"tagline,omitempty"`
	Description string            `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
	StartDate   *events.Date      `json:"startDate,omitempty"`
	EndDate     *events.Date      `json:"endDate,omitempty"`
	ThemeColors map[string]string `json:"themeColors,omitempty"`
}

func (in FestInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&in.Year, validation.Required, validation.Min(2000), validation.Max(2100)),
	)
}

// PresentationInput updates the copy shown on the fest page.
type PresentationInput struct {
	Name        string       `json:"name,omitempty"`
	Tagline     string       `json:"tagline,omitempty"`
	Description string       `json:"description,omitempty"`
	Location    string       `json:"location,omitempty"`
	StartDate   *events.Date `json:"startDate,omitempty"`
	EndDate     *events.Date `json:"endDate,omitempty"`
}

// PartnerInput is the add and update payload for a fest partner.
type PartnerInput struct {
	Name           string `json:"name,omitempty"`
	Tier           string `json:"tier,omitempty"`
	Role           string `json:"role,omitempty"`
	Description    string `json:"description,omitempty"`
	Logo           string `json:"logo,omitempty"`
	Website        string `json:"website,omitempty"`
	IsTitleSponsor bool   `json:"isTitleSponsor,omitempty"`
}

func (in PartnerInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
	)
}

// TrackInput is the add and update payload for a fest track.
type TrackInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

func (in TrackInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
	)
}

// FAQInput is the add and update payload for a fest FAQ entry.
type FAQInput struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

func (in FAQInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Question, validation.Required, validation.Length(1, 500)),
		validation.Field(&in.Answer, validation.Required),
	)
}

// Create registers a new edition.
func (s *Service) Create(ctx context.Context, input FestInput) (*Fest, error) {
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	return s.mutate(ctx, http.MethodPost, basePath, transport.JSON(input), "could not create fest")
}

// Update applies a partial update to an edition.
func (s *Service) Update(ctx context.Context, id string, input FestInput) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodPatch, festPath(id), transport.JSON(input), "could not update fest")
}

// Delete removes an edition.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := requireID(id, "fest id"); err != nil {
		return err
	}
	req := transport.Request{
		Method:   http.MethodDelete,
		Path:     festPath(id),
		Fallback: "could not delete fest",
	}
	var ack transport.Ack
	return s.api.Auth.Do(ctx, req, &ack)
}

// Duplicate clones an edition into a target year, carrying over its
// presentation, partners, tracks and FAQs.
func (s *Service) Duplicate(ctx context.Context, id string, targetYear int) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if targetYear <= 0 {
		return nil, goerrors.New("target year is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	body := transport.JSON(map[string]int{"year": targetYear})
	return s.mutate(ctx, http.MethodPost, festPath(id, "duplicate"), body, "could not duplicate fest")
}

// UpdateStatus moves an edition through its lifecycle, draft to
// archived.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if status == "" {
		return nil, goerrors.New("status is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	body := transport.JSON(map[string]string{"status": status})
	return s.mutate(ctx, http.MethodPatch, festPath(id, "status"), body, "could not update fest status")
}

// UpdatePresentation updates the public copy of an edition.
func (s *Service) UpdatePresentation(ctx context.Context, id string, input PresentationInput) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodPatch, festPath(id, "presentation"), transport.JSON(input), "could not update presentation")
}

// UpdateSocialLinks replaces the social link map of an edition.
func (s *Service) UpdateSocialLinks(ctx context.Context, id string, links map[string]string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	body := transport.JSON(map[string]any{"socialLinks": links})
	return s.mutate(ctx, http.MethodPatch, festPath(id, "social-links"), body, "could not update social links")
}

// UpdateTheme replaces the theme color map of an edition.
func (s *Service) UpdateTheme(ctx context.Context, id string, colors map[string]string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	body := transport.JSON(map[string]any{"themeColors": colors})
	return s.mutate(ctx, http.MethodPatch, festPath(id, "theme"), body, "could not update theme")
}

// UpdateVisibility publishes or hides an edition.
func (s *Service) UpdateVisibility(ctx context.Context, id string, published bool) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	body := transport.JSON(map[string]bool{"isPublished": published})
	return s.mutate(ctx, http.MethodPatch, festPath(id, "visibility"), body, "could not update visibility")
}

// AddPartner attaches a partner to an edition.
func (s *Service) AddPartner(ctx context.Context, id string, input PartnerInput) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	return s.mutate(ctx, http.MethodPost, festPath(id, "partners"), transport.JSON(input), "could not add partner")
}

// UpdatePartner edits an attached partner.
func (s *Service) UpdatePartner(ctx context.Context, id, partnerID string, input PartnerInput) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(partnerID, "partner id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodPatch, festPath(id, "partners", partnerID), transport.JSON(input), "could not update partner")
}

// RemovePartner detaches a partner from an edition.
func (s *Service) RemovePartner(ctx context.Context, id, partnerID string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(partnerID, "partner id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodDelete, festPath(id, "partners", partnerID), nil, "could not remove partner")
}

// ReorderPartners rewrites the partner display order. The order slice
// holds partner ids, first rendered first.
func (s *Service) ReorderPartners(ctx context.Context, id string, order []string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	body := transport.JSON(map[string]any{"order": order})
	return s.mutate(ctx, http.MethodPatch, festPath(id, "partners", "reorder"), body, "could not reorder partners")
}

// LinkEvent attaches an existing event to an edition.
func (s *Service) LinkEvent(ctx context.Context, id, eventID string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(eventID, "event id"); err != nil {
		return nil, err
	}
	body := transport.JSON(map[string]string{"eventId": eventID})
	return s.mutate(ctx, http.MethodPost, festPath(id, "events"), body, "could not link event")
}

// UnlinkEvent detaches an event from an edition without deleting it.
func (s *Service) UnlinkEvent(ctx context.Context, id, eventID string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(eventID, "event id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodDelete, festPath(id, "events", eventID), nil, "could not unlink event")
}

// UploadPoster replaces the main poster. The form carries the file
// under the "poster" field.
func (s *Service) UploadPoster(ctx context.Context, id string, form *transport.FormData) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireForm(form); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodPatch, festPath(id, "poster"), form, "could not upload poster")
}

// UploadHero replaces the hero banner. The form carries the file under
// the "hero" field.
func (s *Service) UploadHero(ctx context.Context, id string, form *transport.FormData) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireForm(form); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodPatch, festPath(id, "hero"), form, "could not upload hero")
}

// AddGalleryMedia appends uploads to the gallery.
func (s *Service) AddGalleryMedia(ctx context.Context, id string, form *transport.FormData) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireForm(form); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodPost, festPath(id, "gallery"), form, "could not add gallery media")
}

// RemoveGalleryMedia deletes one gallery entry by its publicId. Ids
// may contain slashes, so the segment is escaped.
func (s *Service) RemoveGalleryMedia(ctx context.Context, id, publicID string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(publicID, "media publicId"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodDelete, festPath(id, "gallery", publicID), nil, "could not remove gallery media")
}

// ReorderGallery rewrites the gallery order. The order slice holds
// publicIds.
func (s *Service) ReorderGallery(ctx context.Context, id string, order []string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	body := transport.JSON(map[string]any{"order": order})
	return s.mutate(ctx, http.MethodPatch, festPath(id, "gallery", "reorder"), body, "could not reorder gallery")
}

// BulkDeleteGallery removes several gallery entries in one call.
func (s *Service) BulkDeleteGallery(ctx context.Context, id string, publicIDs []string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if len(publicIDs) == 0 {
		return nil, goerrors.New("at least one publicId is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	body := transport.JSON(map[string]any{"publicIds": publicIDs})
	return s.mutate(ctx, http.MethodPost, festPath(id, "gallery", "bulk-delete"), body, "could not delete gallery media")
}

// ExportCSV downloads the registration export as a raw CSV blob.
func (s *Service) ExportCSV(ctx context.Context, id string) ([]byte, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     festPath(id, "export"),
		Fallback: "could not export fest data",
	}
	return s.api.Auth.DoBytes(ctx, req)
}

// Analytics fetches engagement numbers for an edition. The shape is
// owned by the reporting backend.
func (s *Service) Analytics(ctx context.Context, id string) (map[string]any, error) {
	return s.metrics(ctx, id, "analytics", "could not load analytics")
}

// Statistics fetches aggregate counts for an edition.
func (s *Service) Statistics(ctx context.Context, id string) (map[string]any, error) {
	return s.metrics(ctx, id, "statistics", "could not load statistics")
}

// GenerateReport builds and downloads the printable edition report.
func (s *Service) GenerateReport(ctx context.Context, id string) ([]byte, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	req := transport.Request{
		Method:   http.MethodPost,
		Path:     festPath(id, "report"),
		Fallback: "could not generate report",
	}
	return s.api.Auth.DoBytes(ctx, req)
}

// AddTrack appends a track to an edition.
func (s *Service) AddTrack(ctx context.Context, id string, input TrackInput) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	return s.mutate(ctx, http.MethodPost, festPath(id, "tracks"), transport.JSON(input), "could not add track")
}

// UpdateTrack edits a track.
func (s *Service) UpdateTrack(ctx context.Context, id, trackID string, input TrackInput) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(trackID, "track id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodPatch, festPath(id, "tracks", trackID), transport.JSON(input), "could not update track")
}

// RemoveTrack deletes a track.
func (s *Service) RemoveTrack(ctx context.Context, id, trackID string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(trackID, "track id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodDelete, festPath(id, "tracks", trackID), nil, "could not remove track")
}

// ReorderTracks rewrites the track display order by track id.
func (s *Service) ReorderTracks(ctx context.Context, id string, order []string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	body := transport.JSON(map[string]any{"order": order})
	return s.mutate(ctx, http.MethodPatch, festPath(id, "tracks", "reorder"), body, "could not reorder tracks")
}

// AddFAQ appends an FAQ entry to an edition.
func (s *Service) AddFAQ(ctx context.Context, id string, input FAQInput) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	return s.mutate(ctx, http.MethodPost, festPath(id, "faqs"), transport.JSON(input), "could not add FAQ")
}

// UpdateFAQ edits an FAQ entry.
func (s *Service) UpdateFAQ(ctx context.Context, id, faqID string, input FAQInput) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(faqID, "faq id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodPatch, festPath(id, "faqs", faqID), transport.JSON(input), "could not update FAQ")
}

// RemoveFAQ deletes an FAQ entry.
func (s *Service) RemoveFAQ(ctx context.Context, id, faqID string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	if err := requireID(faqID, "faq id"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, http.MethodDelete, festPath(id, "faqs", faqID), nil, "could not remove FAQ")
}

// ReorderFAQs rewrites the FAQ display order by entry id.
func (s *Service) ReorderFAQs(ctx context.Context, id string, order []string) (*Fest, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	body := transport.JSON(map[string]any{"order": order})
	return s.mutate(ctx, http.MethodPatch, festPath(id, "faqs", "reorder"), body, "could not reorder FAQs")
}

func (s *Service) mutate(ctx context.Context, method, path string, body transport.Body, fallback string) (*Fest, error) {
	var fest Fest
	req := transport.Request{
		Method:   method,
		Path:     path,
		Body:     body,
		Fallback: fallback,
	}
	if err := s.api.Auth.Do(ctx, req, &fest); err != nil {
		return nil, err
	}
	return &fest, nil
}

func (s *Service) metrics(ctx context.Context, id, segment, fallback string) (map[string]any, error) {
	if err := requireID(id, "fest id"); err != nil {
		return nil, err
	}
	var out map[string]any
	req := transport.Request{
		Method:   http.MethodGet,
		Path:     festPath(id, segment),
		Fallback: fallback,
	}
	if err := s.api.Auth.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func festPath(id string, segments ...string) string {
	path := basePath + "/" + url.PathEscape(id)
	for _, seg := range segments {
		path += "/" + url.PathEscape(seg)
	}
	return path
}

func requireID(value, field string) error {
	if value == "" {
		return goerrors.New(field+" is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func requireForm(form *transport.FormData) error {
	if form == nil || form.Len() == 0 {
		return goerrors.New("upload form is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func invalidInput(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid fest input").
		WithTextCode(transport.TextCodeValidationFailed).
		WithCode(goerrors.CodeBadRequest)
}
