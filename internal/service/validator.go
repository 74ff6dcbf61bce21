package service

import (
	"encoding/json"
	"math"
	"strings"

	"mini_thermostat/internal/models"
)

// ValidateConfig gates a card configuration before activation.
// It never mutates cfg and rejects rather than coerces.
func ValidateConfig(cfg models.CardConfig) error {
	if strings.TrimSpace(cfg.Entity) == "" {
		return newConfigError(KindMissingEntity, "entity", "Missing option: entity")
	}
	if err := validateStepSize("step_size", cfg.StepSize); err != nil {
		return err
	}
	if cfg.Layout == nil {
		return nil
	}
	if err := validateStepSize("layout.step_size", cfg.Layout.StepSize); err != nil {
		return err
	}
	if d := cfg.Layout.Dropdown; d != "" && d != models.DropdownHvacModes && d != models.DropdownPresetModes {
		return newConfigError(KindInvalidDropdownKind, "layout.dropdown",
			"dropdown must be one of hvac_modes, preset_modes; got "+d)
	}
	if cfg.Layout.PresetButtons != nil {
		return validatePresetButtons(*cfg.Layout.PresetButtons)
	}
	return nil
}

func validateStepSize(field string, v float64) error {
	if v == 0 {
		return nil
	}
	if !isFinite(v) || v < 0 {
		return newConfigError(KindInvalidStepSize, field, "step size must be a positive number")
	}
	return nil
}

func validatePresetButtons(p models.PresetButtons) error {
	if p.IsShorthand() {
		if p.Shorthand != models.DropdownHvacModes && p.Shorthand != models.DropdownPresetModes {
			return newConfigError(KindInvalidPresetButton, "layout.preset_buttons",
				"Invalid configuration for preset_buttons")
		}
		return nil
	}
	for i, b := range p.Buttons {
		if err := validatePresetButton(i, b); err != nil {
			return err
		}
	}
	return nil
}

func validatePresetButton(i int, b models.PresetButton) error {
	if b.Data == nil {
		return buttonError(i, "data", "Missing option: data")
	}
	switch b.Type {
	case models.ButtonTemperature:
		if _, ok := toFloat(b.Data["temperature"]); !ok {
			return buttonError(i, "data.temperature", "Temperature should be a number")
		}
	case models.ButtonHvacMode, models.ButtonPresetMode:
		if s, ok := b.Data[b.Type].(string); !ok || s == "" {
			return buttonError(i, "data."+b.Type, "Missing option: data."+b.Type)
		}
	case models.ButtonScript, models.ButtonService:
		if strings.TrimSpace(b.Entity) == "" {
			return buttonError(i, "entity", "Missing option: entity")
		}
	case "":
		return buttonError(i, "type", "Missing option: type")
	default:
		return buttonError(i, "type", "Unknown button type: "+b.Type)
	}
	return nil
}

// toFloat accepts the numeric shapes produced by the JSON, YAML and viper decoders.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, isFinite(n)
	case float32:
		return float64(n), isFinite(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && isFinite(f)
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
