package events

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

func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := tokenstore.NewStore(storage.NewMemoryStore())
	require.NoError(t, tokens.SetToken(context.Background(), "test-token"))

	api, err := transport.New(
		transport.WithBaseURL(srv.URL),
		transport.WithTokenStore(tokens),
	)
	require.NoError(t, err)
	return NewService(api), srv
}

func TestByID(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/events/evt%201", r.URL.EscapedPath())
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"_id": "evt 1", "title": "CTF Night", "venue": "Lab 2"},
		})
	}))

	event, err := svc.ByID(context.Background(), "evt 1")
	require.NoError(t, err)
	assert.Equal(t, "CTF Night", event.Title)
	assert.Equal(t, "Lab 2", event.Venue)
}

func TestByIDRequiresID(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.ByID(context.Background(), "")
	require.Error(t, err)
}

func TestByIDNotFound(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"message": "event not found"})
	}))

	_, err := svc.ByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, transport.IsNotFound(err))
	assert.Contains(t, err.Error(), "event not found")
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "eventDate", r.URL.Query().Get("sortBy"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"docs":      []map[string]any{{"_id": "e1", "title": "Talk"}, {"_id": "e2", "name": "Workshop"}},
				"totalDocs": 12,
				"page":      2,
				"limit":     2,
			},
		})
	}))

	page, err := svc.List(context.Background(), paginate.ListParams{Page: 2, SortBy: "eventDate"})
	require.NoError(t, err)
	assert.Len(t, page.Docs, 2)
	assert.Equal(t, 12, page.TotalDocs)
	assert.Equal(t, 6, page.TotalPages)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "Workshop", page.Docs[1].DisplayTitle())
}

func TestListBareArray(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id":"e1"},{"_id":"e2"},{"_id":"e3"}]`))
	}))

	page, err := svc.List(context.Background(), paginate.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalDocs)
	assert.Equal(t, 1, page.Page)
	assert.False(t, page.HasNextPage)
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hack Week", body["title"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"_id": "e9", "title": "Hack Week"},
		})
	}))

	event, err := svc.Create(context.Background(), Input{Title: "Hack Week"})
	require.NoError(t, err)
	assert.Equal(t, "e9", event.ID)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Create(context.Background(), Input{})
	require.Error(t, err)
	assert.True(t, transport.IsValidation(err))
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/events/e1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"_id": "e1", "venue": "Auditorium"},
		})
	}))

	event, err := svc.Update(context.Background(), "e1", Input{Venue: "Auditorium"})
	require.NoError(t, err)
	assert.Equal(t, "Auditorium", event.Venue)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/events/e1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "message": "deleted"})
	}))

	require.NoError(t, svc.Delete(context.Background(), "e1"))
}
