package contacts

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/syntaxclub/go-portal/storage"
)

// DraftKey is the storage slot for the in-progress contact form.
const DraftKey = "contact.draft"

// draftDebounce is how long typing must pause before the draft hits
// storage.
const draftDebounce = 700 * time.Millisecond

// Draft is the persisted form state. The honeypot field never
// persists.
type Draft struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsZero reports whether every field is empty.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// DraftAutosaver debounces draft writes so storage sees one write per
// pause in typing rather than one per keystroke. Saving an all-empty
// draft clears the slot.
type DraftAutosaver struct {
	store storage.Storage
	key   string
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending Draft
	dirty   bool
	lastErr error
}

// DraftOption configures a DraftAutosaver.
type DraftOption func(*DraftAutosaver)

// WithDraftKey overrides the storage slot.
func WithDraftKey(key string) DraftOption {
	return func(a *DraftAutosaver) {
		a.key = key
	}
}

// WithDraftDelay overrides the debounce window.
func WithDraftDelay(d time.Duration) DraftOption {
	return func(a *DraftAutosaver) {
		a.delay = d
	}
}

// NewDraftAutosaver returns an autosaver writing to the given store.
func NewDraftAutosaver(store storage.Storage, opts ...DraftOption) *DraftAutosaver {
	a := &DraftAutosaver{
		store: store,
		key:   DraftKey,
		delay: draftDebounce,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Update schedules a save of the given draft, replacing any save still
// pending.
func (a *DraftAutosaver) Update(draft Draft) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = draft
	a.dirty = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.saveLater)
}

// Flush writes any pending draft immediately.
func (a *DraftAutosaver) Flush(ctx context.Context) error {
	draft, ok := a.take()
	if !ok {
		return nil
	}
	return a.persist(ctx, draft)
}

// Load returns the stored draft, or nil when none was saved.
func (a *DraftAutosaver) Load(ctx context.Context) (*Draft, error) {
	raw, err := a.store.Get(ctx, a.key)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "corrupt contact draft")
	}
	return &draft, nil
}

// Clear drops the stored draft and cancels any pending save.
func (a *DraftAutosaver) Clear(ctx context.Context) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = Draft{}
	a.dirty = false
	a.mu.Unlock()

	return a.store.Delete(ctx, a.key)
}

// Stop cancels any pending save without writing it.
func (a *DraftAutosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.dirty = false
}

// LastError reports the most recent background save failure, if any.
func (a *DraftAutosaver) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *DraftAutosaver) saveLater() {
	draft, ok := a.take()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.persist(ctx, draft); err != nil {
		a.mu.Lock()
		a.lastErr = err
		a.mu.Unlock()
	}
}

// take claims the pending draft, reporting false when nothing is due.
func (a *DraftAutosaver) take() (Draft, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.dirty {
		return Draft{}, false
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	draft := a.pending
	a.dirty = false
	return draft, true
}

func (a *DraftAutosaver) persist(ctx context.Context, draft Draft) error {
	if draft.IsZero() {
		return a.store.Delete(ctx, a.key)
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not encode contact draft")
	}
	return a.store.Set(ctx, a.key, string(raw))
}
