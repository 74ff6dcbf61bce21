package models

// Entity states and hvac actions the card reacts to. Other values reported
// by the host pass through as plain strings.
const (
	HvacModeOff  = "off"
	HvacModeHeat = "heat"

	HvacActionOff  = "off"
	HvacActionIdle = "idle"

	StateUnavailable = "unavailable"
)

// EntitySnapshot is a point-in-time read of a climate entity as delivered by the host.
// Nil temperatures mean the host did not report the attribute.
type EntitySnapshot struct {
	EntityID           string   `json:"entity_id"`
	State              string   `json:"state"`
	CurrentTemperature *float64 `json:"current_temperature,omitempty"`
	TargetTemperature  *float64 `json:"temperature,omitempty"`
	HvacAction         string   `json:"hvac_action,omitempty"`
	HvacModes          []string `json:"hvac_modes,omitempty"`
	PresetMode         string   `json:"preset_mode,omitempty"`
	PresetModes        []string `json:"preset_modes,omitempty"`
	Unit               string   `json:"unit_of_measurement,omitempty"`
}

// Available reports whether the snapshot carries a usable entity state.
func (s EntitySnapshot) Available() bool {
	return s.State != "" && s.State != StateUnavailable
}

// Temp returns a pointer to v, handy for building snapshots.
func Temp(v float64) *float64 {
	return &v
}
