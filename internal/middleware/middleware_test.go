package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poetica/internal/apperr"
	"poetica/internal/auth"
	"poetica/internal/models"
	"poetica/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTokens map[string]auth.AccessToken

func (s stubTokens) ValidateAccessToken(token string) (auth.AccessToken, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return auth.AccessToken{}, errors.New("invalid token")
}

func newEngine(t *testing.T, store *testutil.MemStore, tokens TokenValidator) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(LoadUser(store, tokens))
	r.GET("/login/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, c.Param("id"))
		require.NoError(t, s.Save())
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})
	r.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) apperr.Response {
	t.Helper()
	var body apperr.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func addUser(t *testing.T, store *testutil.MemStore, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: "Someone", Email: email, Password: "x", Role: role}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func loginCookie(t *testing.T, r *gin.Engine, userID string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login/"+userID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestAuthRequired(t *testing.T) {
	store := testutil.NewMemStore()
	user := addUser(t, store, "a@example.com", models.RoleUser)
	r := newEngine(t, store, stubTokens{"good": {UserID: user.ID, Role: "USER", IssuedAt: time.Now()}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decode(t, rec).Error)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(loginCookie(t, r, user.ID))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ID)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired_DeletedUserIsSignedOut(t *testing.T) {
	store := testutil.NewMemStore()
	user := addUser(t, store, "a@example.com", models.RoleUser)
	r := newEngine(t, store, nil)
	sessionCookie := loginCookie(t, r, user.ID)

	require.NoError(t, store.DeleteUser(context.Background(), user.ID))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoadUser_RefusesTokensOlderThanPasswordChange(t *testing.T) {
	store := testutil.NewMemStore()
	user := addUser(t, store, "a@example.com", models.RoleUser)
	changed := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	user.PasswordChangedAt = &changed
	require.NoError(t, store.SaveUser(context.Background(), user))

	r := newEngine(t, store, stubTokens{
		"stale":       {UserID: user.ID, Role: "USER", IssuedAt: changed.Add(-time.Hour)},
		"same-second": {UserID: user.ID, Role: "USER", IssuedAt: changed.Truncate(time.Second)},
		"fresh":       {UserID: user.ID, Role: "USER", IssuedAt: changed.Add(time.Minute)},
	})

	for token, want := range map[string]int{
		"stale":       http.StatusUnauthorized,
		"same-second": http.StatusOK,
		"fresh":       http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, token)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(loginCookie(t, r, user.ID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	store := testutil.NewMemStore()
	user := addUser(t, store, "a@example.com", models.RoleUser)
	admin := addUser(t, store, "root@example.com", models.RoleAdmin)
	r := newEngine(t, store, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(loginCookie(t, r, user.ID))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", decode(t, rec).Error)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(loginCookie(t, r, admin.ID))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := newEngine(t, testutil.NewMemStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec).Error)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}
