package models

// RelativeState classifies current vs. target temperature.
type RelativeState string

const (
	RelativeInactive RelativeState = "inactive"
	RelativeUnder    RelativeState = "under"
	RelativeEqual    RelativeState = "equal"
	RelativeAbove    RelativeState = "above"
	RelativeNeutral  RelativeState = "neutral"
)

// ControlKind identifies what a composed control does.
type ControlKind string

const (
	ControlState       ControlKind = "state"
	ControlName        ControlKind = "name"
	ControlDropdown    ControlKind = "dropdown"
	ControlTemperature ControlKind = "temperature"
	ControlHvacMode    ControlKind = "hvac_mode"
	ControlPresetMode  ControlKind = "preset_mode"
	ControlScript      ControlKind = "script"
	ControlService     ControlKind = "service"
	ControlIncrease    ControlKind = "increase"
	ControlTarget      ControlKind = "target"
	ControlDecrease    ControlKind = "decrease"
)

// ControlDescriptor is one interactive control of a single composition pass.
// Intent is what activating the control dispatches; for dropdowns the
// selected option is supplied at activation time.
type ControlDescriptor struct {
	Kind     ControlKind `json:"kind"`
	Label    string      `json:"label,omitempty"`
	Icon     string      `json:"icon,omitempty"`
	IsActive bool        `json:"is_active"`
	Updating bool        `json:"updating,omitempty"`
	Options  []string    `json:"options,omitempty"`
	Selected string      `json:"selected,omitempty"`
	Intent   *Intent     `json:"intent,omitempty"`
}

// IntentKind names a discrete user interaction.
type IntentKind string

const (
	IntentIncrease         IntentKind = "increase"
	IntentDecrease         IntentKind = "decrease"
	IntentSetTemperature   IntentKind = "set_temperature"
	IntentSelectHvacMode   IntentKind = "select_hvac_mode"
	IntentSelectPresetMode IntentKind = "select_preset_mode"
	IntentCallButton       IntentKind = "call_button"
	IntentActivate         IntentKind = "activate"
	IntentMoreInfo         IntentKind = "more_info"
)

// Intent is a user interaction routed through the command dispatcher.
// Index is a control position for activate and a position in
// layout.preset_buttons for call_button.
type Intent struct {
	Kind        IntentKind `json:"type" binding:"required"`
	Value       string     `json:"value,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
	Index       *int       `json:"index,omitempty"`
}
