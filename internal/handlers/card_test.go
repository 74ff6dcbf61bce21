package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mini_thermostat/internal/models"
	"mini_thermostat/internal/service"
)

func doJSON(r http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", contentType)
	}
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCardHandlers_RequireAuth(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}, Card: &mockCard{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/card/view", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}
}

func TestCardHandlers_PutConfigJSONAndYAML(t *testing.T) {
	card := &mockCard{}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Card: card}
	r := newTestRouter(s)

	w := doJSON(r, http.MethodPut, "/api/v1/card/config", "application/json",
		`{"entity":"climate.living","layout":{"preset_buttons":"hvac_modes","up_down":false}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put json status=%d body=%s", w.Code, w.Body.String())
	}
	if card.lastSet == nil || card.lastSet.Entity != "climate.living" {
		t.Fatalf("SetConfig not called with config: %+v", card.lastSet)
	}
	if card.lastSet.Layout.PresetButtons.Shorthand != models.DropdownHvacModes {
		t.Fatalf("shorthand not decoded: %+v", card.lastSet.Layout.PresetButtons)
	}

	w = doJSON(r, http.MethodPut, "/api/v1/card/config", "application/yaml",
		"entity: climate.office\nlayout:\n  preset_buttons:\n    - type: temperature\n      data:\n        temperature: 20\n")
	if w.Code != http.StatusOK {
		t.Fatalf("put yaml status=%d body=%s", w.Code, w.Body.String())
	}
	if card.lastSet.Entity != "climate.office" || len(card.lastSet.Layout.PresetButtons.Buttons) != 1 {
		t.Fatalf("yaml config not decoded: %+v", card.lastSet)
	}

	w = doJSON(r, http.MethodPut, "/api/v1/card/config", "application/json", `{"entity":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestCardHandlers_ConfigErrorShape(t *testing.T) {
	card := &mockCard{setErr: &service.ConfigError{
		Kind: service.KindInvalidPresetButton, Field: "data", Index: 1, Message: "Missing option: data",
	}}
	s := &service.Service{Authorization: &mockAuth{parseID: 1}, Card: card}
	r := newTestRouter(s)

	w := doJSON(r, http.MethodPut, "/api/v1/card/config", "application/json", `{"entity":"climate.x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
		Field string `json:"field"`
		Index int    `json:"index"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Kind != "InvalidPresetButton" || out.Field != "data" || out.Index != 1 || out.Error != "Missing option: data" {
		t.Fatalf("unexpected error body: %+v", out)
	}
}

func TestCardHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not configured", service.ErrNotConfigured, http.StatusConflict},
		{"malformed button entity", fmt.Errorf("%w: %q", service.ErrMalformedTargetEntity, "warmup"), http.StatusUnprocessableEntity},
		{"unknown intent", service.ErrUnknownIntent, http.StatusBadRequest},
		{"no target", service.ErrNoTarget, http.StatusConflict},
		{"stopped", service.ErrCardStopped, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			card := &mockCard{handleErr: tc.err}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Card: card})

			w := doJSON(r, http.MethodPost, "/api/v1/card/intents", "application/json", `{"type":"increase"}`)
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestCardHandlers_IntentSnapshotAndView(t *testing.T) {
	target := 21.0
	card := &mockCard{
		outcome: service.Outcome{Target: &target, Pending: true},
		view:    service.View{Entity: "climate.living", Available: true, Target: "21.0 °C", Pending: true},
		cfg:     models.CardConfig{Entity: "climate.living"},
	}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Card: card})

	w := doJSON(r, http.MethodPost, "/api/v1/card/intents", "application/json", `{"type":"activate","index":2,"value":"heat"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("intent status=%d body=%s", w.Code, w.Body.String())
	}
	got := card.handled()
	if len(got) != 1 || got[0].Kind != models.IntentActivate || got[0].Index == nil || *got[0].Index != 2 || got[0].Value != "heat" {
		t.Fatalf("unexpected intents: %+v", got)
	}
	var resp struct {
		Outcome service.Outcome `json:"outcome"`
		View    service.View    `json:"view"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Outcome.Pending || resp.View.Target != "21.0 °C" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/card/intents", "application/json", `{"value":"heat"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for intent without type, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/card/snapshot", "application/json",
		`{"entity_id":"climate.living","state":"heat","current_temperature":19,"temperature":21}`)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status=%d body=%s", w.Code, w.Body.String())
	}
	if card.lastSnap == nil || card.lastSnap.TargetTemperature == nil || *card.lastSnap.TargetTemperature != 21 {
		t.Fatalf("snapshot not decoded: %+v", card.lastSnap)
	}

	w = doJSON(r, http.MethodGet, "/api/v1/card/config", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get config status=%d", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/v1/card/view", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get view status=%d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}
