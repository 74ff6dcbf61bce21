package hostapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mini_thermostat/internal/models"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Client talks to the host's REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type stateResponse struct {
	EntityID   string          `json:"entity_id"`
	State      string          `json:"state"`
	Attributes stateAttributes `json:"attributes"`
}

type stateAttributes struct {
	CurrentTemperature *float64 `json:"current_temperature"`
	Temperature        *float64 `json:"temperature"`
	HvacAction         string   `json:"hvac_action"`
	HvacModes          []string `json:"hvac_modes"`
	PresetMode         string   `json:"preset_mode"`
	PresetModes        []string `json:"preset_modes"`
	Unit               string   `json:"unit_of_measurement"`
}

// FetchState reads GET /api/states/<entity_id>.
func (c *Client) FetchState(ctx context.Context, entityID string) (models.EntitySnapshot, error) {
	path := "/api/states/" + url.PathEscape(entityID)
	var st stateResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &st); err != nil {
		return models.EntitySnapshot{}, err
	}
	if st.EntityID == "" {
		st.EntityID = entityID
	}
	return models.EntitySnapshot{
		EntityID:           st.EntityID,
		State:              st.State,
		CurrentTemperature: st.Attributes.CurrentTemperature,
		TargetTemperature:  st.Attributes.Temperature,
		HvacAction:         st.Attributes.HvacAction,
		HvacModes:          st.Attributes.HvacModes,
		PresetMode:         st.Attributes.PresetMode,
		PresetModes:        st.Attributes.PresetModes,
		Unit:               st.Attributes.Unit,
	}, nil
}

// CallService posts the record to /api/services/<domain>/<service>.
func (c *Client) CallService(ctx context.Context, rec models.CommandRecord) error {
	path := "/api/services/" + url.PathEscape(rec.Domain) + "/" + url.PathEscape(rec.Service)
	body, err := json.Marshal(rec.ServiceData())
	if err != nil {
		return fmt.Errorf("encode service data: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
