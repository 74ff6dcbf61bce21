package service

import "mini_thermostat/internal/models"

// Classify derives the relative state of a snapshot. It is total: missing
// temperatures and off/idle entities are inactive, and comparisons that
// cannot be ordered (NaN) fall through to neutral. Equality is checked
// before the directional comparisons.
func Classify(snap models.EntitySnapshot) models.RelativeState {
	if isInactive(snap) {
		return models.RelativeInactive
	}
	current, target := *snap.CurrentTemperature, *snap.TargetTemperature
	switch {
	case current == target:
		return models.RelativeEqual
	case current < target:
		return models.RelativeUnder
	case current > target:
		return models.RelativeAbove
	default:
		return models.RelativeNeutral
	}
}

func isInactive(snap models.EntitySnapshot) bool {
	switch snap.State {
	case models.HvacModeOff, models.HvacActionIdle:
		return true
	}
	switch snap.HvacAction {
	case models.HvacActionOff, models.HvacActionIdle:
		return true
	}
	return snap.TargetTemperature == nil || snap.CurrentTemperature == nil
}
