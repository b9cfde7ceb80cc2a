package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"box-schedule/backend/config"
	"box-schedule/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16",
		Issuer:         "box-identity",
		AccessTokenTTL: 15 * time.Minute,
	})
}

// echoIdentity 返回中间件注入的身份信息
func echoIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.GetString("user_id"),
		"role":    c.GetString("role"),
	})
}

// ── JWTAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWTManager()
	valid, err := mgr.GenerateAccessToken("user-1", "athlete")
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}
	otherIssuer, _ := jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16",
		Issuer:         "someone-else",
		AccessTokenTTL: time.Minute,
	}).GenerateAccessToken("user-1", "athlete")

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"Missing", "", http.StatusUnauthorized},
		{"NotBearer", "Basic " + valid, http.StatusUnauthorized},
		{"Garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"WrongIssuer", "Bearer " + otherIssuer, http.StatusUnauthorized},
		{"Valid", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", JWTAuth(mgr, nil), echoIdentity)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(w.Body.String(), `"user_id":"user-1"`) {
				t.Errorf("user_id 未注入: %s", w.Body.String())
			}
		})
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"Admin", "admin", http.StatusOK},
		{"Coach", "coach", http.StatusOK},
		{"Athlete", "athlete", http.StatusForbidden},
		{"NoRole", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.role != "" {
					c.Set("role", tt.role)
				}
				c.Next()
			})
			r.GET("/roster", RoleAuth("admin", "coach"), echoIdentity)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/roster", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	// 沿用上游 ID
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(requestIDHeader, "upstream-123")
	r.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) != "upstream-123" || w.Body.String() != "upstream-123" {
		t.Errorf("应沿用上游 Request-ID，实际 %q", w.Header().Get(requestIDHeader))
	}

	// 超长时重新生成
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", requestIDMaxLen+1))
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got == "" || len(got) > requestIDMaxLen {
		t.Errorf("超长 Request-ID 应被替换，实际 %q", got)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/seed", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/seed", strings.NewReader(`{"start_date":"2026-02-02"}`)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/seed", strings.NewReader(`{}`)))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ── CORS ──

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检请求期望 204，实际 %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("允许的来源应回写 Allow-Origin")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("未允许的来源不应回写 Allow-Origin")
	}
}

// ── RateLimit ──

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/reserve", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/reserve", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("Redis 不可用时应放行，第 %d 次得到 %d", i+1, w.Code)
		}
	}
}
