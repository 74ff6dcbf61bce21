package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mini_thermostat/internal/models"
	"mini_thermostat/internal/service"

	"github.com/gin-gonic/gin"
)

// newMiddlewareOnlyRouter wires the auth middleware in front of an echo endpoint.
func newMiddlewareOnlyRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/secure", h.userIdMiddleware, func(c *gin.Context) {
		uid, _ := c.Get(ctxUserID)
		c.JSON(http.StatusOK, gin.H{"userId": uid})
	})
	return r
}

func TestUserIDMiddleware_TokenSources(t *testing.T) {
	cases := []struct {
		name      string
		url       string
		header    string
		upgrade   bool
		parseErr  error
		wantCode  int
		wantErr   string
		wantToken string
	}{
		{name: "missing header", url: "/secure", wantCode: http.StatusUnauthorized, wantErr: "missing Authorization header"},
		{name: "wrong scheme", url: "/secure", header: "Token abc", wantCode: http.StatusUnauthorized, wantErr: "invalid Authorization header format"},
		{name: "bearer without token", url: "/secure", header: "Bearer  ", wantCode: http.StatusUnauthorized, wantErr: "invalid Authorization header format"},
		{name: "rejected token", url: "/secure", header: "Bearer stale", parseErr: errors.New("expired"),
			wantCode: http.StatusUnauthorized, wantErr: "invalid or expired token", wantToken: "stale"},
		{name: "bearer header", url: "/secure", header: "Bearer good-token", wantCode: http.StatusOK, wantToken: "good-token"},
		{name: "query token on plain request", url: "/secure?access_token=abc", wantCode: http.StatusUnauthorized, wantErr: "missing Authorization header"},
		{name: "query token on upgrade", url: "/secure?access_token=abc", upgrade: true, wantCode: http.StatusOK, wantToken: "abc"},
		{name: "header wins over query", url: "/secure?access_token=abc", header: "Bearer hdr", upgrade: true, wantCode: http.StatusOK, wantToken: "hdr"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{parseID: 123, parseErr: tc.parseErr}
			r := newMiddlewareOnlyRouter(&service.Service{Authorization: auth})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if auth.lastParseToken != tc.wantToken {
				t.Fatalf("ParseToken got %q, want %q", auth.lastParseToken, tc.wantToken)
			}

			var out struct {
				Error  string `json:"error"`
				UserID int    `json:"userId"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if out.Error != tc.wantErr {
				t.Fatalf("error message: got %q, want %q", out.Error, tc.wantErr)
			}
			if tc.wantCode == http.StatusOK && out.UserID != 123 {
				t.Fatalf("userId: got %d, want 123", out.UserID)
			}
		})
	}
}

// users is an in-memory repository.Authorization for wiring the real AuthService.
type users map[string]*models.User

func (u users) Create(username, hash string) (int, error) {
	id := len(u) + 1
	u[username] = &models.User{ID: id, Username: username, PasswordHash: hash}
	return id, nil
}

func (u users) GetByUsername(username string) (*models.User, error) {
	return u[username], nil
}

func TestUserIDMiddleware_IssuedTokenOpensCardAPI(t *testing.T) {
	auth := service.NewAuthService(users{}, service.AuthOptions{SigningKey: "k"})
	card := &mockCard{view: service.View{Entity: "climate.hall", Available: true}}
	r := newTestRouter(&service.Service{Authorization: auth, Card: card})

	if _, err := auth.SignUp("frank", "pw"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	token, err := auth.GenerateToken("frank", "pw")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/card/view", nil)
	req.Header = authHeader(token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	other := service.NewAuthService(users{}, service.AuthOptions{SigningKey: "other"})
	forged, err := other.SignUp("mallory", "pw")
	if err != nil || forged == 0 {
		t.Fatalf("SignUp on other service: %v", err)
	}
	forgedToken, err := other.GenerateToken("mallory", "pw")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/card/view", nil)
	req.Header = authHeader(forgedToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("token from another key: status=%d, want 401", w.Code)
	}
}
