package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	token, err := m.GenerateToken("alice", true)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice", claims.Subject)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	m1, err := NewManager("secret-one")
	require.NoError(t, err)
	m2, err := NewManager("secret-two")
	require.NoError(t, err)

	token, err := m1.GenerateToken("alice", false)
	require.NoError(t, err)

	_, err = m2.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)
	_, err = m.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestNewManager_GeneratesRandomSecret(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)

	token, err := m.GenerateToken("alice", true)
	require.NoError(t, err)
	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestMiddleware(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	var seenUser string
	handler := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = CurrentUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid cookie", func(t *testing.T) {
		token, err := m.GenerateToken("alice", true)
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", seenUser)
	})

	t.Run("valid bearer header", func(t *testing.T) {
		token, err := m.GenerateToken("bob", false)
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bob", seenUser)
	})
}

func TestOptionalMiddleware(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	var authenticated bool
	handler := m.OptionalMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authenticated = CurrentUser(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Anonymous requests pass through without an identity.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, authenticated)

	token, err := m.GenerateToken("alice", true)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, authenticated)
}

func TestSessionCookie(t *testing.T) {
	c := SessionCookie("tok", true, false)
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Positive(t, c.MaxAge)

	cleared := ClearedSessionCookie(false)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Empty(t, cleared.Value)
}
