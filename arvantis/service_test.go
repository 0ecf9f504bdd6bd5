package arvantis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxclub/go-portal/paginate"
	"github.com/syntaxclub/go-portal/storage"
	"github.com/syntaxclub/go-portal/tokenstore"
	"github.com/syntaxclub/go-portal/transport"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := tokenstore.NewStore(storage.NewMemoryStore())
	require.NoError(t, tokens.SetToken(context.Background(), "admin-token"))

	api, err := transport.New(
		transport.WithBaseURL(srv.URL),
		transport.WithTokenStore(tokens),
	)
	require.NoError(t, err)
	return NewService(api)
}

func TestLandingCompositeOverWire(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/arvantis/landing", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"fest":     map[string]any{"_id": "f1", "name": "Arvantis 2026"},
				"hero":     map[string]any{"url": "https://cdn/hero.png"},
				"partners": []map[string]any{{"name": "Acme", "tier": "gold"}},
			},
		})
	}))

	fest, err := svc.Landing(context.Background())
	require.NoError(t, err)
	require.NotNil(t, fest)
	assert.Equal(t, "Arvantis 2026", fest.Name)
	require.NotNil(t, fest.Hero)
	assert.Equal(t, "https://cdn/hero.png", fest.Hero.URL)
	require.Len(t, fest.Partners, 1)
}

func TestLandingNoEdition(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":null}`))
	}))

	fest, err := svc.Landing(context.Background())
	require.NoError(t, err)
	assert.Nil(t, fest)
}

func TestListFests(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/arvantis", r.URL.Path)
		assert.Equal(t, "year", r.URL.Query().Get("sortBy"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"docs":      []map[string]any{{"_id": "f1", "year": 2025}, {"_id": "f2", "year": 2026}},
				"totalDocs": 2,
			},
		})
	}))

	page, err := svc.List(context.Background(), paginate.ListParams{SortBy: "year"})
	require.NoError(t, err)
	require.Len(t, page.Docs, 2)
	assert.Equal(t, 2026, page.Docs[1].Year)
}

func TestDetailsBySlugAndYear(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/arvantis/arvantis-2026":
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data":   map[string]any{"_id": "f1", "slug": "arvantis-2026"},
			})
		case "/api/v1/arvantis/2026":
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data":   map[string]any{"_id": "f1", "year": 2026},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"message": "fest not found"})
		}
	}))

	bySlug, err := svc.Details(context.Background(), "arvantis-2026")
	require.NoError(t, err)
	assert.Equal(t, "arvantis-2026", bySlug.Slug)

	byYear, err := svc.DetailsByYear(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 2026, byYear.Year)

	_, err = svc.Details(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, transport.IsNotFound(err))
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Create(context.Background(), FestInput{Name: "Arvantis"})
	require.Error(t, err, "missing year must fail before any request")
	assert.True(t, transport.IsValidation(err))
}

func TestUpdateStatus(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/arvantis/f1/status", r.URL.Path)
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "live", body["status"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"_id": "f1", "status": "live"},
		})
	}))

	fest, err := svc.UpdateStatus(context.Background(), "f1", "live")
	require.NoError(t, err)
	assert.Equal(t, "live", fest.Status)
}

func TestReorderGalleryPath(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/arvantis/f1/gallery/reorder", r.URL.Path)

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"g2", "g1"}, body["order"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{"_id": "f1"}})
	}))

	_, err := svc.ReorderGallery(context.Background(), "f1", []string{"g2", "g1"})
	require.NoError(t, err)
}

func TestRemoveGalleryMediaEscapesPublicID(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/arvantis/f1/gallery/fests%2F2026%2Fshot1", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{"_id": "f1"}})
	}))

	_, err := svc.RemoveGalleryMedia(context.Background(), "f1", "fests/2026/shot1")
	require.NoError(t, err)
}

func TestUploadPosterSendsMultipart(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("poster")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "poster.png", header.Filename)
		assert.Equal(t, "2026", r.FormValue("year"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{"_id": "f1"}})
	}))

	form := transport.NewFormData().
		Set("year", "2026").
		SetFile("poster", "poster.png", []byte("png-bytes"))

	_, err := svc.UploadPoster(context.Background(), "f1", form)
	require.NoError(t, err)
}

func TestUploadPosterRequiresForm(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.UploadPoster(context.Background(), "f1", nil)
	require.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	csv := "name,email\nAda,ada@club.in\n"
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/arvantis/f1/export", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csv))
	}))

	blob, err := svc.ExportCSV(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, csv, string(blob))
}

func TestStatistics(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/arvantis/f1/statistics", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"totalEvents": 12, "totalPartners": 8},
		})
	}))

	stats, err := svc.Statistics(context.Background(), "f1")
	require.NoError(t, err)
	assert.EqualValues(t, 12, stats["totalEvents"])
}

func TestFAQLifecyclePaths(t *testing.T) {
	var calls []string
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{"_id": "f1"}})
	}))

	ctx := context.Background()
	_, err := svc.AddFAQ(ctx, "f1", FAQInput{Question: "When?", Answer: "March."})
	require.NoError(t, err)
	_, err = svc.UpdateFAQ(ctx, "f1", "q1", FAQInput{Question: "Where?", Answer: "Main campus."})
	require.NoError(t, err)
	_, err = svc.ReorderFAQs(ctx, "f1", []string{"q2", "q1"})
	require.NoError(t, err)
	_, err = svc.RemoveFAQ(ctx, "f1", "q1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /api/v1/arvantis/f1/faqs",
		"PATCH /api/v1/arvantis/f1/faqs/q1",
		"PATCH /api/v1/arvantis/f1/faqs/reorder",
		"DELETE /api/v1/arvantis/f1/faqs/q1",
	}, calls)
}
