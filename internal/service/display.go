package service

import (
	"fmt"
	"strings"

	"mini_thermostat/internal/models"
)

// DefaultStepSize is used when neither the card nor its layout sets one.
const DefaultStepSize = 0.5

const notAvailable = "N/A"

var defaultIcons = map[string]string{
	"default": "hass:thermometer",
	"cool":    "hass:snowflake",
	"heat":    "hass:fire",
	"up":      "mdi:chevron-up",
	"down":    "mdi:chevron-down",
}

// iconFor resolves an icon name through the card overrides, then the
// built-in table. Unknown names are used as-is.
func iconFor(cfg models.CardConfig, name string) string {
	if icon, ok := cfg.Icons[name]; ok && icon != "" {
		return icon
	}
	if icon, ok := defaultIcons[name]; ok {
		return icon
	}
	return name
}

func labelFor(cfg models.CardConfig, key, fallback string) string {
	if l, ok := cfg.Labels[key]; ok && l != "" {
		return l
	}
	return fallback
}

func hvacModeLabel(cfg models.CardConfig, mode string) string {
	return labelFor(cfg, "state.climate."+mode, mode)
}

func presetModeLabel(cfg models.CardConfig, mode string) string {
	return labelFor(cfg, "state_attributes.climate.preset_mode."+mode, mode)
}

// stateIconName maps the relative state onto the icon table.
func stateIconName(rs models.RelativeState) string {
	switch rs {
	case models.RelativeUnder:
		return "heat"
	case models.RelativeAbove:
		return "cool"
	default:
		return "default"
	}
}

func formatTemperature(t *float64, unit string) string {
	if t == nil {
		return notAvailable
	}
	return strings.TrimSpace(fmt.Sprintf("%.1f %s", *t, unit))
}

func unitFor(cfg models.CardConfig, snap *models.EntitySnapshot) string {
	if snap != nil && snap.Unit != "" {
		return snap.Unit
	}
	return cfg.Unit
}

func stepSize(cfg models.CardConfig) float64 {
	if cfg.StepSize > 0 {
		return cfg.StepSize
	}
	if cfg.Layout != nil && cfg.Layout.StepSize > 0 {
		return cfg.Layout.StepSize
	}
	return DefaultStepSize
}

func showUpDown(cfg models.CardConfig) bool {
	return cfg.Layout == nil || cfg.Layout.UpDown == nil || *cfg.Layout.UpDown
}
