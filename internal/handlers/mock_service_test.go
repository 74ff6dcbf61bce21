package handlers

import (
	"context"
	"net/http"
	"sync"

	"mini_thermostat/internal/models"
	"mini_thermostat/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockCard struct {
	mu sync.Mutex

	cfg        models.CardConfig
	cfgErr     error
	setErr     error
	pushErr    error
	view       service.View
	viewErr    error
	outcome    service.Outcome
	handleErr  error
	events     chan service.Event
	lastSet    *models.CardConfig
	lastSnap   *models.EntitySnapshot
	intents    []models.Intent
	subscribed int
}

func (m *mockCard) SetConfig(ctx context.Context, cfg models.CardConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSet = &cfg
	return m.setErr
}
func (m *mockCard) Config(ctx context.Context) (models.CardConfig, error) {
	return m.cfg, m.cfgErr
}
func (m *mockCard) PushSnapshot(ctx context.Context, snap models.EntitySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSnap = &snap
	return m.pushErr
}
func (m *mockCard) Handle(ctx context.Context, in models.Intent) (service.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents = append(m.intents, in)
	return m.outcome, m.handleErr
}
func (m *mockCard) View(ctx context.Context) (service.View, error) {
	return m.view, m.viewErr
}
func (m *mockCard) Subscribe() (<-chan service.Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed++
	if m.events == nil {
		m.events = make(chan service.Event, 8)
	}
	return m.events, func() {}
}
func (m *mockCard) handled() []models.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Intent(nil), m.intents...)
}

type mockCommandLog struct {
	resp       []models.CommandEntry
	err        error
	lastFilter service.CommandFilter
}

func (m *mockCommandLog) List(ctx context.Context, f service.CommandFilter) ([]models.CommandEntry, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
