package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxclub/go-portal/transport"
)

func TestLoginMemberWithEmailCredential(t *testing.T) {
	accessToken := mintToken(t, "member", time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/members/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "asha@club.in", body["email"])
		assert.NotContains(t, body, "institutionalId")

		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"accessToken": accessToken,
				"user":        map[string]any{"_id": "usr_42", "role": "member"},
			},
		})
	})

	h := newSessionHarness(t, mux)

	result, err := h.auth.LoginMember(context.Background(), MemberLoginInput{
		Identifier: EmailCredential("asha@club.in"),
		Password:   "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, accessToken, result.AccessToken)
	require.NotNil(t, result.User)
	assert.Equal(t, "usr_42", result.User.ID)

	stored, ok := h.tokens.AccessToken(context.Background())
	require.True(t, ok)
	assert.Equal(t, accessToken, stored)
}

func TestLoginAdminTokenSpelledAsToken(t *testing.T) {
	accessToken := mintToken(t, "admin", time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var body AdminLoginInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "root@club.in", body.Email)

		// older handlers answer with token and admin keys
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"token": accessToken,
				"admin": map[string]any{"_id": "adm_1", "username": "root", "role": "admin"},
			},
		})
	})

	h := newSessionHarness(t, mux)

	result, err := h.auth.LoginAdmin(context.Background(), AdminLoginInput{
		Email:    "root@club.in",
		Password: "swordfish",
	})
	require.NoError(t, err)
	assert.Equal(t, accessToken, result.AccessToken)
	require.NotNil(t, result.User)
	assert.Equal(t, "root", result.User.Username)
}

func TestLoginAdminValidation(t *testing.T) {
	svc := NewAuthService(nil, nil)

	_, err := svc.LoginAdmin(context.Background(), AdminLoginInput{Email: "not-an-email", Password: "pw"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = svc.LoginAdmin(context.Background(), AdminLoginInput{Email: "root@club.in"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestLoginFailsWithoutAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data":   map[string]any{"admin": map[string]any{"_id": "adm_1"}},
		})
	})

	h := newSessionHarness(t, mux)

	_, err := h.auth.LoginAdmin(context.Background(), AdminLoginInput{
		Email:    "root@club.in",
		Password: "swordfish",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")

	_, ok := h.tokens.AccessToken(context.Background())
	assert.False(t, ok)
}

func TestRegisterAdmin(t *testing.T) {
	accessToken := mintToken(t, "admin", time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/register", func(w http.ResponseWriter, r *http.Request) {
		var body AdminRegisterInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "root", body.Username)
		assert.Equal(t, "club-secret", body.AdminSecret)

		writeJSON(w, http.StatusCreated, map[string]any{
			"status": "success",
			"data": map[string]any{
				"accessToken": accessToken,
				"admin":       map[string]any{"_id": "adm_1", "username": "root", "role": "admin"},
			},
		})
	})

	h := newSessionHarness(t, mux)

	result, err := h.auth.RegisterAdmin(context.Background(), AdminRegisterInput{
		Username:    "root",
		Email:       "root@club.in",
		Password:    "swordfish1",
		AdminSecret: "club-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, accessToken, result.AccessToken)

	stored, ok := h.tokens.AccessToken(context.Background())
	require.True(t, ok)
	assert.Equal(t, accessToken, stored)
}

func TestRegisterAdminValidation(t *testing.T) {
	svc := NewAuthService(nil, nil)

	cases := []AdminRegisterInput{
		{Username: "ro", Email: "root@club.in", Password: "swordfish1", AdminSecret: "s"},
		{Username: "root", Email: "root@club.in", Password: "short", AdminSecret: "s"},
		{Username: "root", Email: "root@club.in", Password: "swordfish1"},
	}
	for _, input := range cases {
		_, err := svc.RegisterAdmin(context.Background(), input)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	}
}

func TestRefreshMemberPersistsRotatedToken(t *testing.T) {
	rotated := mintToken(t, "member", time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/members/refresh", func(w http.ResponseWriter, r *http.Request) {
		// refresh rides on the cookie, never on a bearer
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": rotated})
	})

	h := newSessionHarness(t, mux)

	token, err := h.auth.RefreshMember(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rotated, token)

	stored, ok := h.tokens.AccessToken(context.Background())
	require.True(t, ok)
	assert.Equal(t, rotated, stored)
}

func TestRefreshFailsWithoutToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "ok"})
	})

	h := newSessionHarness(t, mux)

	_, err := h.auth.RefreshAdmin(context.Background())
	require.Error(t, err)
	assert.True(t, IsSessionExpired(err))
}

func TestMemberMeDecodesBarePayload(t *testing.T) {
	token := mintToken(t, "member", time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/members/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"_id": "usr_42", "name": "Asha", "institutionalId": "12345678", "role": "member",
		})
	})

	h := newSessionHarness(t, mux)
	require.NoError(t, h.tokens.SetToken(context.Background(), token))

	user, err := h.auth.MemberMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, "12345678", user.InstitutionalID)
}

func TestAdminMeRejectsEmptyPayload(t *testing.T) {
	token := mintToken(t, "admin", time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/admin/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{}})
	})

	h := newSessionHarness(t, mux)
	require.NoError(t, h.tokens.SetToken(context.Background(), token))

	_, err := h.auth.AdminMe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user")
}

func TestLogoutClearsSlotDespiteServerError(t *testing.T) {
	token := mintToken(t, "member", time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/members/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})

	h := newSessionHarness(t, mux)
	require.NoError(t, h.tokens.SetToken(context.Background(), token))

	err := h.auth.LogoutMember(context.Background())
	require.Error(t, err)

	_, ok := h.tokens.AccessToken(context.Background())
	assert.False(t, ok, "slot must clear even when the server call fails")
}

func TestLogoutAdmin(t *testing.T) {
	token := mintToken(t, "admin", time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "logged out"})
	})

	h := newSessionHarness(t, mux)
	require.NoError(t, h.tokens.SetToken(context.Background(), token))

	require.NoError(t, h.auth.LogoutAdmin(context.Background()))

	_, ok := h.tokens.AccessToken(context.Background())
	assert.False(t, ok)
}

func TestDecodeUserPayloadShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{"wrapped user", `{"user":{"_id":"u1","name":"Asha"}}`, "u1"},
		{"wrapped member", `{"member":{"_id":"u2"}}`, "u2"},
		{"wrapped admin", `{"admin":{"_id":"u3"}}`, "u3"},
		{"bare", `{"_id":"u4","email":"a@b.c"}`, "u4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := decodeUserPayload(json.RawMessage(tc.payload))
			require.NotNil(t, user)
			assert.Equal(t, tc.want, user.ID)
		})
	}

	assert.Nil(t, decodeUserPayload(nil))
	assert.Nil(t, decodeUserPayload(json.RawMessage(`{}`)))
	assert.Nil(t, decodeUserPayload(json.RawMessage(`{"user":{}}`)))
}

func TestAuthErrorsCarryTaxonomy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/members/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "invalid credentials",
			"errors":  map[string]any{"password": "must not be blank"},
		})
	})

	h := newSessionHarness(t, mux)

	_, err := h.auth.LoginMember(context.Background(), MemberLoginInput{
		Identifier: ParseIdentifier("12345678"),
		Password:   "wrong",
	})
	require.Error(t, err)
	assert.True(t, transport.IsValidation(err))
	assert.Contains(t, err.Error(), "invalid credentials")

	fields := transport.ValidationFields(err)
	require.NotNil(t, fields)
	assert.Equal(t, "must not be blank", fields["password"])
}
