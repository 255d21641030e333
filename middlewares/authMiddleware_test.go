package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/diagnostics_backend/utils"
)

func performRequest(t *testing.T, handlers []gin.HandlerFunc, token string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	group := r.Group("/", handlers...)
	group.GET("ping", func(c *gin.Context) {
		claim := CtxValue(c.Request.Context())
		if claim == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": claim.ID, "role": claim.Role})
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token, err := utils.JwtGenerate(7, "Aye Chan", "admin")
	if err != nil {
		t.Fatalf("JwtGenerate error: %v", err)
	}

	w := performRequest(t, []gin.HandlerFunc{AuthMiddleware()}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !strings.Contains(body, `"id":7`) || !strings.Contains(body, `"role":"admin"`) {
		t.Fatalf("claims not propagated: %s", body)
	}
}

func TestAuthMiddleware_NoHeaderPassesThrough(t *testing.T) {
	w := performRequest(t, []gin.HandlerFunc{AuthMiddleware()}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "anonymous") {
		t.Fatalf("expected anonymous passthrough, got %s", w.Body.String())
	}
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	w := performRequest(t, []gin.HandlerFunc{AuthMiddleware()}, "not-a-jwt")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	chain := []gin.HandlerFunc{AuthMiddleware(), RequireAdmin()}

	w := performRequest(t, chain, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", w.Code)
	}

	agentToken, err := utils.JwtGenerate(3, "Agent", "agent")
	if err != nil {
		t.Fatalf("JwtGenerate error: %v", err)
	}
	w = performRequest(t, chain, agentToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("agent: expected 403, got %d", w.Code)
	}

	adminToken, err := utils.JwtGenerate(1, "Admin", "admin")
	if err != nil {
		t.Fatalf("JwtGenerate error: %v", err)
	}
	w = performRequest(t, chain, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", w.Code)
	}
}

