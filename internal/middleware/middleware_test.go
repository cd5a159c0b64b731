package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/recordclean/internal/config"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/response"
	"github.com/stemsi/recordclean/internal/service"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, typ service.TokenType, ttl time.Duration, perms ...model.Permission) string {
	t.Helper()
	codes := make([]string, 0, len(perms))
	for _, p := range perms {
		codes = append(codes, string(p))
	}
	claims := service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl))},
		TokenType:        typ,
		UserID:           42,
		Permissions:      codes,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	if body.Error == nil {
		return ""
	}
	return body.Error.Code
}

func TestAdminAuthChain(t *testing.T) {
	auth := service.NewAuthService(&config.Config{JWTSecret: testSecret})
	r := gin.New()
	r.GET("/x", RequireAdminJWT(auth), RequirePermission(model.PermissionRecordsCleanup), func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"user": GetClaims(c).UserID})
	})

	tests := []struct {
		name     string
		header   string
		status   int
		wantCode response.ErrCode
	}{
		{"missing header", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"malformed header", "Token abc", http.StatusUnauthorized, response.ErrTokenRequired},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"expired", "Bearer " + token(t, service.TokenTypeAdmin, -time.Minute, model.PermissionRecordsCleanup), http.StatusUnauthorized, response.ErrTokenExpired},
		{"student token", "Bearer " + token(t, service.TokenTypeStudent, time.Hour), http.StatusForbidden, response.ErrAdminAccessOnly},
		{"missing permission", "Bearer " + token(t, service.TokenTypeAdmin, time.Hour), http.StatusForbidden, response.ErrPermissionDenied},
		{"allowed", "Bearer " + token(t, service.TokenTypeAdmin, time.Hour, model.PermissionRecordsCleanup), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/x", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, hit())
	assert.Equal(t, http.StatusNoContent, hit())
	assert.Equal(t, http.StatusTooManyRequests, hit())

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusNoContent, hit())
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat("attendance ", 500)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	t.Run("compresses large bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/big", nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
		r.ServeHTTP(w, req)

		require.Equal(t, "br", w.Header().Get("Content-Encoding"))
		plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
		require.NoError(t, err)
		assert.Equal(t, big, string(plain))
	})

	t.Run("passes small bodies through", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/small", nil)
		req.Header.Set("Accept-Encoding", "br")
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("ignores clients without br", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/big", nil))

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, big, w.Body.String())
	})
}
