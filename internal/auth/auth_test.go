package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-long-enough"

func init() {
	gin.SetMode(gin.TestMode)
	bcryptCost = bcrypt.MinCost
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret)
	id := uuid.New()

	token, expiresAt, err := svc.GenerateToken(Claims{UserID: id, Email: "a@b.kr", Role: "admin"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(accessTokenTTL), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, TokenAccess, claims.Type)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService(testSecret)
	claims := Claims{UserID: uuid.New()}

	refresh, _, err := svc.GenerateRefreshToken(claims)
	require.NoError(t, err)
	_, err = svc.ValidateToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	access, _, err := svc.GenerateToken(claims)
	require.NoError(t, err)
	_, err = svc.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	got, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenRefresh, got.Type)
}

func TestTokenRejections(t *testing.T) {
	svc := NewJWTService(testSecret)
	token, _, err := svc.GenerateToken(Claims{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = NewJWTService("another-secret").ValidateToken(token)
	assert.Error(t, err)

	expired := NewJWTService(testSecret)
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, _, err := expired.GenerateToken(Claims{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = svc.ValidateToken(old)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	svc := NewJWTService(testSecret)
	id := uuid.New()
	token, _, err := svc.GenerateToken(Claims{UserID: id, Role: "consultant"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", JWTMiddleware(testSecret), func(c *gin.Context) {
		got, ok := UserID(c)
		assert.True(t, ok)
		assert.Equal(t, id, got)
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestOptionalJWTMiddleware(t *testing.T) {
	svc := NewJWTService(testSecret)
	id := uuid.New()
	token, _, err := svc.GenerateToken(Claims{UserID: id, Role: "consultant"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/match", OptionalJWTMiddleware(testSecret), func(c *gin.Context) {
		if got, ok := UserID(c); ok {
			c.String(http.StatusOK, got.String())
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	send := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/match", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, "anonymous", send("").Body.String())
	assert.Equal(t, id.String(), send("Bearer "+token).Body.String())
	assert.Equal(t, http.StatusUnauthorized, send("Bearer nope").Code)
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(UserRoleKey, c.Query("role"))
	}, RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?role=admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?role=consultant", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong horse", hash))

	_, err = HashPassword("short")
	assert.Error(t, err)
}
