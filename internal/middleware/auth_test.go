package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtsvc "clouddrive/internal/pkg/jwt"
)

func setupAuthRouter(j *jwtsvc.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Auth(j), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetInt64("user_id"),
			"username": c.GetString("username"),
		})
	})
	return r
}

func doAuthRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsValidToken(t *testing.T) {
	j := jwtsvc.New("test-secret", time.Hour)
	r := setupAuthRouter(j)

	token, err := j.GenerateToken(7, "admin")
	require.NoError(t, err)

	w := doAuthRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"admin"`)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	r := setupAuthRouter(jwtsvc.New("test-secret", time.Hour))

	w := doAuthRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	r := setupAuthRouter(jwtsvc.New("test-secret", time.Hour))

	for _, header := range []string{"Token abc", "Bearer ", "Bearer"} {
		w := doAuthRequest(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuthRejectsForgedToken(t *testing.T) {
	r := setupAuthRouter(jwtsvc.New("test-secret", time.Hour))

	forged, err := jwtsvc.New("other-secret", time.Hour).GenerateToken(1, "admin")
	require.NoError(t, err)

	w := doAuthRequest(r, "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
