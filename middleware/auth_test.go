package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flyingbus/config"
	"flyingbus/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret []byte, userID uint, role models.UserRole, expires time.Time) string {
	t.Helper()
	claims := Claims{
		UserID:   userID,
		Username: "rider",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func newAuthRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": UserID(c),
			"role":    Role(c),
			"token":   Token(c),
		})
	})
	r.GET("/me", handlers...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	token := signToken(t, config.JWTSecret, 7, models.RoleStudent, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(newAuthRouter(), req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
		Token  string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint(7), body.UserID)
	assert.Equal(t, string(models.RoleStudent), body.Role)
	assert.Equal(t, token, body.Token)
}

func TestAuthMiddlewareAcceptsQueryToken(t *testing.T) {
	token := signToken(t, config.JWTSecret, 7, models.RoleStudent, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/me?access_token="+token, nil)
	w := serve(newAuthRouter(), req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	valid := signToken(t, config.JWTSecret, 7, models.RoleStudent, time.Now().Add(time.Hour))
	expired := signToken(t, config.JWTSecret, 7, models.RoleStudent, time.Now().Add(-time.Hour))
	foreign := signToken(t, []byte("someone-else"), 7, models.RoleStudent, time.Now().Add(time.Hour))

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Token " + valid,
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + foreign,
		"garbage":      "Bearer not-a-jwt",
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := serve(newAuthRouter(), req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code_type":"unAuthorized"`)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter(RequireRole(models.RoleEditor, models.RoleAdmin))

	student := signToken(t, config.JWTSecret, 7, models.RoleStudent, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+student)
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	editor := signToken(t, config.JWTSecret, 8, models.RoleEditor, time.Now().Add(time.Hour))
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+editor)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRequireAPIKey(t *testing.T) {
	r := gin.New()
	r.POST("/rpc", RequireAPIKey("anon-key"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	w := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"invalid api key"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("apikey", "anon-key")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)

	open := gin.New()
	open.POST("/rpc", RequireAPIKey(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, serve(open, httptest.NewRequest(http.MethodPost, "/rpc", nil)).Code)
}
