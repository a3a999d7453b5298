// file: internal/server/middleware/basicauth.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/jdfalk/book-library/internal/config"
)

const basicAuthRealm = `Basic realm="Book Library"`

// HashPassword returns the bcrypt hash to store in basic_auth_password_hash.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// BasicAuth returns a Gin middleware that enforces HTTP Basic Authentication
// when config.AppConfig.BasicAuthEnabled is true. The password is checked
// against a bcrypt hash. Health endpoints are exempt.
func BasicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.AppConfig.BasicAuthEnabled {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if path == "/api/health" || path == "/api/v1/health" {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", basicAuthRealm)
			abortJSON(c, http.StatusUnauthorized, "authentication required", "UNAUTHORIZED")
			return
		}

		expectedUser := config.AppConfig.BasicAuthUsername
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(expectedUser)) == 1
		// Always run bcrypt so a wrong user name costs as much as a wrong password.
		passErr := bcrypt.CompareHashAndPassword([]byte(config.AppConfig.BasicAuthPassHash), []byte(pass))

		if !userMatch || passErr != nil {
			c.Header("WWW-Authenticate", basicAuthRealm)
			abortJSON(c, http.StatusUnauthorized, "invalid credentials", "UNAUTHORIZED")
			return
		}

		c.Next()
	}
}
