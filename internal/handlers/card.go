package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"mini_thermostat/internal/config"
	"mini_thermostat/internal/models"
	"mini_thermostat/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
	errNotConfigured   = "card is not configured"
	errCardInternal    = "card request failed"

	maxConfigBody = 1 << 16
)

// writeServiceError maps card errors onto HTTP responses.
func (h *Handler) writeServiceError(c *gin.Context, logKey string, err error) {
	var ce *service.ConfigError
	switch {
	case errors.As(err, &ce):
		body := gin.H{"error": ce.Message, "kind": ce.Kind, "field": ce.Field}
		if ce.Index >= 0 {
			body["index"] = ce.Index
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrNotConfigured):
		c.JSON(http.StatusConflict, gin.H{"error": errNotConfigured})
	case errors.Is(err, service.ErrMalformedTargetEntity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownIntent), errors.Is(err, service.ErrControlNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoTarget):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCardStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		if h.log != nil {
			h.log.Errorw(logKey, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": errCardInternal})
	}
}

// CardConfigRequest documents the configuration payload for Swagger.
type CardConfigRequest struct {
	Entity   string         `json:"entity" example:"climate.living_room"`
	Name     string         `json:"name,omitempty" example:"Living room"`
	Unit     string         `json:"unit,omitempty" example:"°C"`
	StepSize float64        `json:"step_size,omitempty" example:"0.5"`
	Layout   map[string]any `json:"layout,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Set card configuration
// @Description  Validates and activates a configuration. Rejected configurations leave the active one in place.
// @Tags         card
// @Accept       json
// @Accept       application/yaml
// @Produce      json
// @Param        body  body   CardConfigRequest  true  "Card configuration"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/card/config [put]
// @Security     BearerAuth
func (h *Handler) putConfig(c *gin.Context) {
	cfg, err := bindCardConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Card.SetConfig(ctx, cfg); err != nil {
		if h.log != nil && service.IsConfigError(err) {
			h.log.Infow("card_config_put_rejected", "entity", cfg.Entity, "err", err)
		}
		h.writeServiceError(c, "card_config_put_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "config": cfg})
}

func bindCardConfig(c *gin.Context) (models.CardConfig, error) {
	ct := c.ContentType()
	if strings.Contains(ct, "yaml") {
		b, err := io.ReadAll(io.LimitReader(c.Request.Body, maxConfigBody))
		if err != nil {
			return models.CardConfig{}, err
		}
		return config.ParseCard(b)
	}
	var cfg models.CardConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		return models.CardConfig{}, err
	}
	return cfg, nil
}

// @Summary      Get card configuration
// @Tags         card
// @Produce      json
// @Success      200  {object}  models.CardConfig
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/card/config [get]
// @Security     BearerAuth
func (h *Handler) getConfig(c *gin.Context) {
	cfg, err := h.services.Card.Config(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, "card_config_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// @Summary      Push an entity snapshot
// @Tags         card
// @Accept       json
// @Produce      json
// @Param        body  body   models.EntitySnapshot  true  "Snapshot"
// @Success      200   {object}  service.View
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/card/snapshot [post]
// @Security     BearerAuth
func (h *Handler) postSnapshot(c *gin.Context) {
	var snap models.EntitySnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Card.PushSnapshot(ctx, snap); err != nil {
		h.writeServiceError(c, "card_snapshot_failed", err)
		return
	}
	h.respondWithView(c)
}

// @Summary      Get card view
// @Tags         card
// @Produce      json
// @Success      200  {object}  service.View
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/card/view [get]
// @Security     BearerAuth
func (h *Handler) getView(c *gin.Context) {
	h.respondWithView(c)
}

// @Summary      Dispatch a user intent
// @Description  increase, decrease, set_temperature, select_hvac_mode, select_preset_mode, call_button, activate, more_info
// @Tags         card
// @Accept       json
// @Produce      json
// @Param        body  body   models.Intent  true  "Intent"
// @Success      200   {object}  map[string]interface{}  "outcome, view"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/v1/card/intents [post]
// @Security     BearerAuth
func (h *Handler) postIntent(c *gin.Context) {
	var in models.Intent
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	out, err := h.services.Card.Handle(ctx, in)
	if err != nil {
		h.writeServiceError(c, "card_intent_failed", err)
		return
	}
	resp := gin.H{"outcome": out}
	if v, err := h.services.Card.View(ctx); err == nil {
		resp["view"] = v
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) respondWithView(c *gin.Context) {
	v, err := h.services.Card.View(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, "card_view_failed", err)
		return
	}
	c.JSON(http.StatusOK, v)
}
