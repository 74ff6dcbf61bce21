package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Dropdown kinds and preset-button shorthands accepted by a card layout.
const (
	DropdownHvacModes   = "hvac_modes"
	DropdownPresetModes = "preset_modes"
)

// Preset button action types.
const (
	ButtonTemperature = "temperature"
	ButtonHvacMode    = "hvac_mode"
	ButtonPresetMode  = "preset_mode"
	ButtonScript      = "script"
	ButtonService     = "service"
)

// CardConfig is the declarative configuration of one thermostat card.
type CardConfig struct {
	Entity   string            `json:"entity" yaml:"entity" mapstructure:"entity"`
	Name     string            `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Unit     string            `json:"unit,omitempty" yaml:"unit,omitempty" mapstructure:"unit"`
	StepSize float64           `json:"step_size,omitempty" yaml:"step_size,omitempty" mapstructure:"step_size"`
	Layout   *Layout           `json:"layout,omitempty" yaml:"layout,omitempty" mapstructure:"layout"`
	Icons    map[string]string `json:"icons,omitempty" yaml:"icons,omitempty" mapstructure:"icons"`
	Labels   map[string]string `json:"labels,omitempty" yaml:"labels,omitempty" mapstructure:"labels"`
}

// Layout describes which controls the card exposes.
type Layout struct {
	Name          string         `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Dropdown      string         `json:"dropdown,omitempty" yaml:"dropdown,omitempty" mapstructure:"dropdown"`
	PresetButtons *PresetButtons `json:"preset_buttons,omitempty" yaml:"preset_buttons,omitempty" mapstructure:"preset_buttons"`
	UpDown        *bool          `json:"up_down,omitempty" yaml:"up_down,omitempty" mapstructure:"up_down"`
	StepSize      float64        `json:"step_size,omitempty" yaml:"step_size,omitempty" mapstructure:"step_size"`
	Grouped       bool           `json:"grouped,omitempty" yaml:"grouped,omitempty" mapstructure:"grouped"`
	Tiny          bool           `json:"tiny,omitempty" yaml:"tiny,omitempty" mapstructure:"tiny"`
}

// PresetButton is one explicitly declared preset button.
type PresetButton struct {
	Type   string         `json:"type" yaml:"type" mapstructure:"type"`
	Entity string         `json:"entity,omitempty" yaml:"entity,omitempty" mapstructure:"entity"`
	Data   map[string]any `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data"`
	Icon   string         `json:"icon,omitempty" yaml:"icon,omitempty" mapstructure:"icon"`
	Label  string         `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// PresetButtons holds either a shorthand ("hvac_modes" / "preset_modes")
// or an explicit list of buttons. Exactly one of the two is set.
type PresetButtons struct {
	Shorthand string
	Buttons   []PresetButton
}

// IsShorthand reports whether the buttons are generated from the live entity.
func (p PresetButtons) IsShorthand() bool {
	return p.Shorthand != ""
}

func (p PresetButtons) MarshalJSON() ([]byte, error) {
	if p.IsShorthand() {
		return json.Marshal(p.Shorthand)
	}
	if p.Buttons == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Buttons)
}

func (p *PresetButtons) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PresetButtons{Shorthand: s}
		return nil
	}
	var buttons []PresetButton
	if err := json.Unmarshal(b, &buttons); err != nil {
		return fmt.Errorf("preset_buttons must be a shorthand string or a list of buttons: %w", err)
	}
	*p = PresetButtons{Buttons: buttons}
	return nil
}

func (p PresetButtons) MarshalYAML() (any, error) {
	if p.IsShorthand() {
		return p.Shorthand, nil
	}
	return p.Buttons, nil
}

func (p *PresetButtons) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = PresetButtons{Shorthand: node.Value}
		return nil
	case yaml.SequenceNode:
		var buttons []PresetButton
		if err := node.Decode(&buttons); err != nil {
			return err
		}
		*p = PresetButtons{Buttons: buttons}
		return nil
	default:
		return fmt.Errorf("line %d: preset_buttons must be a shorthand string or a list of buttons", node.Line)
	}
}
