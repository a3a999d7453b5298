// file: internal/server/middleware/basicauth_test.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jdfalk/book-library/internal/config"
)

func setupBasicAuthRouter(t *testing.T, enabled bool) *gin.Engine {
	t.Helper()
	prev := config.AppConfig
	t.Cleanup(func() { config.AppConfig = prev })

	hash, err := HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	config.AppConfig.BasicAuthEnabled = enabled
	config.AppConfig.BasicAuthUsername = "admin"
	config.AppConfig.BasicAuthPassHash = hash

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BasicAuth())
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/api/v1/books", func(c *gin.Context) {
		c.String(http.StatusOK, "books")
	})
	return r
}

func serveWithAuth(r *gin.Engine, path, user, pass string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestBasicAuth_Disabled(t *testing.T) {
	r := setupBasicAuthRouter(t, false)
	assert.Equal(t, http.StatusOK, serveWithAuth(r, "/api/v1/books", "", "").Code)
}

func TestBasicAuth_NoCredentials(t *testing.T) {
	r := setupBasicAuthRouter(t, true)
	w := serveWithAuth(r, "/api/v1/books", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, basicAuthRealm, w.Header().Get("WWW-Authenticate"))
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
}

func TestBasicAuth_WrongCredentials(t *testing.T) {
	r := setupBasicAuthRouter(t, true)
	assert.Equal(t, http.StatusUnauthorized, serveWithAuth(r, "/api/v1/books", "admin", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, serveWithAuth(r, "/api/v1/books", "root", "secret").Code)
}

func TestBasicAuth_CorrectCredentials(t *testing.T) {
	r := setupBasicAuthRouter(t, true)
	w := serveWithAuth(r, "/api/v1/books", "admin", "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "books", w.Body.String())
}

func TestBasicAuth_HealthExempt(t *testing.T) {
	r := setupBasicAuthRouter(t, true)
	assert.Equal(t, http.StatusOK, serveWithAuth(r, "/api/v1/health", "", "").Code)
}

func TestHashPasswordDefaultCost(t *testing.T) {
	hash, err := HashPassword("pw", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
