package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxclub/go-portal/storage"
)

func mintToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  "usr_123",
		"uid":  "usr_123",
		"role": role,
		"exp":  exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test-signing-secret"))
	require.NoError(t, err)

	return token
}

func TestDecode(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	token := mintToken(t, "admin", exp)

	claims := Decode(token)
	require.NotNil(t, claims)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "usr_123", claims.UserID())
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not a token", "definitely-not-a-jwt"},
		{"two segments", "aaaa.bbbb"},
		{"bad base64", "!!!.###.$$$"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, Decode(tc.token))
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	t.Run("future exp is live", func(t *testing.T) {
		token := mintToken(t, "member", now.Add(time.Hour))
		assert.False(t, IsExpired(token, now))
	})

	t.Run("past exp is expired", func(t *testing.T) {
		token := mintToken(t, "member", now.Add(-time.Hour))
		assert.True(t, IsExpired(token, now))
	})

	t.Run("exp exactly now is expired", func(t *testing.T) {
		token := mintToken(t, "member", now)
		assert.True(t, IsExpired(token, now))
	})

	t.Run("missing exp is expired", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"role": "member",
		}).SignedString([]byte("test-signing-secret"))
		require.NoError(t, err)
		assert.True(t, IsExpired(token, now))
	})

	t.Run("malformed is expired", func(t *testing.T) {
		assert.True(t, IsExpired("garbage", now))
	})
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())

	token := mintToken(t, "member", time.Now().Add(time.Hour))
	require.NoError(t, store.SetToken(ctx, token))

	bundle, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, token, bundle.AccessToken)

	got, ok := store.AccessToken(ctx)
	assert.True(t, ok)
	assert.Equal(t, token, got)
}

func TestStoreEmptySlot(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())

	bundle, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, bundle)

	_, ok := store.AccessToken(ctx)
	assert.False(t, ok)
	assert.False(t, store.Valid(ctx))
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())

	require.NoError(t, store.SetToken(ctx, mintToken(t, "member", time.Now().Add(time.Hour))))
	require.NoError(t, store.Clear(ctx))

	bundle, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, bundle)

	// clearing an already empty slot stays silent
	require.NoError(t, store.Clear(ctx))
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())

	err := store.SetToken(ctx, "  ")
	require.Error(t, err)
}

func TestStoreLegacyRawString(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryStore()
	token := mintToken(t, "member", time.Now().Add(time.Hour))

	// older builds persisted the bare token without JSON framing
	require.NoError(t, backend.Set(ctx, SlotKey, token))

	store := NewStore(backend)
	bundle, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, token, bundle.AccessToken)
}

func TestStoreLegacyRefreshField(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryStore()
	token := mintToken(t, "member", time.Now().Add(time.Hour))

	// refresh tokens used to ride along in the slot; they are ignored now
	require.NoError(t, backend.Set(ctx, SlotKey,
		`{"accessToken":"`+token+`","refreshToken":"stale-refresh"}`))

	store := NewStore(backend)
	bundle, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, token, bundle.AccessToken)
}

func TestStoreValid(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("live token", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore(), WithClock(func() time.Time { return now }))
		require.NoError(t, store.SetToken(ctx, mintToken(t, "member", now.Add(time.Hour))))
		assert.True(t, store.Valid(ctx))
	})

	t.Run("expired token", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore(), WithClock(func() time.Time { return now }))
		require.NoError(t, store.SetToken(ctx, mintToken(t, "member", now.Add(-time.Minute))))
		assert.False(t, store.Valid(ctx))
	})

	t.Run("claims from slot", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore())
		require.NoError(t, store.SetToken(ctx, mintToken(t, "admin", now.Add(time.Hour))))

		claims := store.Claims(ctx)
		require.NotNil(t, claims)
		assert.Equal(t, "admin", claims.Role)
	})
}
