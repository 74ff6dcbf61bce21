package service

import (
	"fmt"
	"strings"

	"mini_thermostat/internal/models"
)

// ModeKind is the attribute a mode selection changes.
type ModeKind string

const (
	ModeHvac   ModeKind = "hvac_mode"
	ModePreset ModeKind = "preset_mode"
)

// Dispatcher turns user intents into command records. It only builds
// records; sending them is the job of a CommandSink.
type Dispatcher struct{}

// SetTemperature builds climate.set_temperature for entityID.
func (Dispatcher) SetTemperature(entityID string, temperature float64) models.CommandRecord {
	return models.NewCommandRecord(models.DomainClimate, models.ServiceSetTemperature, entityID,
		map[string]any{"temperature": temperature})
}

// SelectMode builds climate.set_<kind>. It reports false when value is empty
// or already the mode the snapshot reports, so re-fired selections of the
// current option never reach the host.
func (Dispatcher) SelectMode(entityID string, kind ModeKind, value string, snap *models.EntitySnapshot) (models.CommandRecord, bool) {
	if value == "" || value == currentMode(kind, snap) {
		return models.CommandRecord{}, false
	}
	return models.NewCommandRecord(models.DomainClimate, "set_"+string(kind), entityID,
		map[string]any{string(kind): value}), true
}

// InvokeButton builds the record for a script or service button. A script
// entity calls the script named by its last segment; a service entity is
// read as "<domain>.<service>". The button data is passed through.
func (Dispatcher) InvokeButton(b models.PresetButton) (models.CommandRecord, error) {
	domain, service, ok := buttonTarget(b)
	if !ok {
		return models.CommandRecord{}, fmt.Errorf("%w: %q", ErrMalformedTargetEntity, b.Entity)
	}
	target, _ := b.Data["entity_id"].(string)
	return models.NewCommandRecord(domain, service, target, b.Data), nil
}

func buttonTarget(b models.PresetButton) (domain, service string, ok bool) {
	if b.Type == models.ButtonScript {
		i := strings.LastIndex(b.Entity, ".")
		if i <= 0 || i == len(b.Entity)-1 {
			return "", "", false
		}
		return "script", b.Entity[i+1:], true
	}
	parts := strings.Split(b.Entity, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func currentMode(kind ModeKind, snap *models.EntitySnapshot) string {
	if snap == nil {
		return ""
	}
	if kind == ModeHvac {
		return snap.State
	}
	return snap.PresetMode
}

func modeKindForIntent(k models.IntentKind) ModeKind {
	if k == models.IntentSelectHvacMode {
		return ModeHvac
	}
	return ModePreset
}
