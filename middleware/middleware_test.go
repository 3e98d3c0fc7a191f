package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quickbite-api/auth"
	"quickbite-api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(issuer *auth.Issuer, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired(issuer)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetRole(c)})
	})
	r.GET("/private", handlers...)
	return r
}

func tokenFor(t *testing.T, issuer *auth.Issuer, id uint, role models.UserRole) string {
	t.Helper()
	token, err := issuer.Generate(&models.User{ID: id, Email: "u@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func TestAuthRequired(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	r := newRouter(issuer)
	token := tokenFor(t, issuer, 7, models.RoleCustomer)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Token not found"}`, w.Body.String())
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":7,"role":"customer"}`, w.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("foreign token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, auth.NewIssuer("other", time.Hour), 7, models.RoleAdmin))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Invalid or expired token"}`, w.Body.String())
	})
}

func TestRoleAndPermissionRequired(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)

	tests := []struct {
		name   string
		guard  gin.HandlerFunc
		role   models.UserRole
		status int
	}{
		{"admin role", RoleRequired(models.RoleAdmin), models.RoleAdmin, http.StatusOK},
		{"customer denied admin role", RoleRequired(models.RoleAdmin), models.RoleCustomer, http.StatusForbidden},
		{"moderator may update food", PermissionRequired(models.PermUpdateFood), models.RoleModerator, http.StatusOK},
		{"moderator may not delete food", PermissionRequired(models.PermDeleteFood), models.RoleModerator, http.StatusForbidden},
		{"customer may not manage orders", PermissionRequired(models.PermManageOrders), models.RoleCustomer, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(issuer, tt.guard)
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, issuer, 1, tt.role))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestPermissionUsesRoleNotTokenList(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	// a customer token that claims extra permissions still resolves by role
	user := &models.User{ID: 3, Email: "c@example.com", Role: models.RoleCustomer, Permissions: []models.Permission{models.PermDeleteFood}}
	token, err := issuer.Generate(user)
	require.NoError(t, err)

	r := newRouter(issuer, PermissionRequired(models.PermDeleteFood))
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(), Logger(logger))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
