package contacts

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxclub/go-portal/storage"
)

type countingStore struct {
	*storage.MemoryStore
	sets atomic.Int32
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	c.sets.Add(1)
	return c.MemoryStore.Set(ctx, key, value)
}

func TestDraftDebounceCollapsesWrites(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	saver := NewDraftAutosaver(store, WithDraftDelay(20*time.Millisecond))
	defer saver.Stop()

	saver.Update(Draft{Message: "h"})
	saver.Update(Draft{Message: "he"})
	saver.Update(Draft{Message: "hello"})

	require.Eventually(t, func() bool {
		return store.sets.Load() > 0
	}, time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 1, store.sets.Load(), "rapid updates must collapse into one write")

	raw, err := store.Get(context.Background(), DraftKey)
	require.NoError(t, err)

	var saved Draft
	require.NoError(t, json.Unmarshal([]byte(raw), &saved))
	assert.Equal(t, "hello", saved.Message)
}

func TestDraftFlushWritesImmediately(t *testing.T) {
	store := storage.NewMemoryStore()
	saver := NewDraftAutosaver(store, WithDraftDelay(time.Hour))
	defer saver.Stop()

	saver.Update(Draft{Name: "Ada", Message: "hi"})
	require.NoError(t, saver.Flush(context.Background()))

	loaded, err := saver.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Ada", loaded.Name)
}

func TestDraftFlushWithoutUpdateIsNoop(t *testing.T) {
	store := storage.NewMemoryStore()
	saver := NewDraftAutosaver(store)

	require.NoError(t, saver.Flush(context.Background()))

	loaded, err := saver.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDraftLoadMissing(t *testing.T) {
	saver := NewDraftAutosaver(storage.NewMemoryStore())

	loaded, err := saver.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDraftClear(t *testing.T) {
	store := storage.NewMemoryStore()
	saver := NewDraftAutosaver(store, WithDraftDelay(time.Hour))

	saver.Update(Draft{Message: "pending"})
	require.NoError(t, saver.Flush(context.Background()))
	require.NoError(t, saver.Clear(context.Background()))

	loaded, err := saver.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// the pending save died with the clear
	require.NoError(t, saver.Flush(context.Background()))
	loaded, err = saver.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDraftEmptyUpdateClearsSlot(t *testing.T) {
	store := storage.NewMemoryStore()
	saver := NewDraftAutosaver(store, WithDraftDelay(time.Hour))

	saver.Update(Draft{Message: "keep me"})
	require.NoError(t, saver.Flush(context.Background()))

	saver.Update(Draft{})
	require.NoError(t, saver.Flush(context.Background()))

	loaded, err := saver.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDraftFromSubmitInputDropsHoneypot(t *testing.T) {
	input := SubmitInput{
		Name:    "Ada",
		Email:   "ada@club.in",
		Message: "hello",
		Website: "https://spam.example.com",
	}

	draft := input.Draft()
	raw, err := json.Marshal(draft)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "website")
	assert.NotContains(t, string(raw), "spam.example.com")
}

func TestDraftStopCancelsPendingSave(t *testing.T) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	saver := NewDraftAutosaver(store, WithDraftDelay(30*time.Millisecond))

	saver.Update(Draft{Message: "never saved"})
	saver.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, store.sets.Load())
}
