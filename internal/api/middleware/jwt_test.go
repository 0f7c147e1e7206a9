package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roksva123/kinerja-planner/internal/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(secret string) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuth(secret))
	r.GET("/me", func(c *gin.Context) {
		ctxUser, _ := identity.UserFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "ctx_user": ctxUser, "role": c.GetString(ContextRole)})
	})
	return r
}

func TestJWTAuthAcceptsBearerToken(t *testing.T) {
	tok, err := identity.IssueToken("s3cret", "boss", "manager", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	newRouter("s3cret").ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"boss","ctx_user":"boss","role":"manager"}`, w.Body.String())
}

func TestJWTAuthAcceptsQueryToken(t *testing.T) {
	tok, err := identity.IssueToken("s3cret", "boss", "", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	newRouter("s3cret").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+tok, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthRejects(t *testing.T) {
	expired, err := identity.IssueToken("s3cret", "boss", "", -time.Minute)
	require.NoError(t, err)
	foreign, err := identity.IssueToken("other", "boss", "", time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + foreign,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			newRouter("s3cret").ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
