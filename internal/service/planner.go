package service

import "mini_thermostat/internal/models"

// TargetView is the target temperature as currently shown to the user.
type TargetView struct {
	Value   *float64
	Pending bool
}

// Compose plans the ordered control set for one render pass: the state
// indicator, then the configured middle region (name, dropdown, preset
// buttons), then the up/down adjuster unless the layout disables it.
// It has no hidden state; a nil snapshot yields no controls.
func Compose(cfg models.CardConfig, snap *models.EntitySnapshot, target TargetView) []models.ControlDescriptor {
	if snap == nil {
		return nil
	}
	unit := unitFor(cfg, snap)
	rs := Classify(*snap)

	controls := []models.ControlDescriptor{{
		Kind:   models.ControlState,
		Label:  formatTemperature(snap.CurrentTemperature, unit),
		Icon:   iconFor(cfg, stateIconName(rs)),
		Intent: &models.Intent{Kind: models.IntentMoreInfo},
	}}
	controls = append(controls, composeMiddle(cfg, snap, unit)...)
	if showUpDown(cfg) {
		controls = append(controls, composeAdjuster(cfg, target, unit)...)
	}
	return controls
}

func composeMiddle(cfg models.CardConfig, snap *models.EntitySnapshot, unit string) []models.ControlDescriptor {
	if cfg.Layout == nil {
		return nil
	}
	var out []models.ControlDescriptor
	if cfg.Layout.Name != "" {
		out = append(out, models.ControlDescriptor{
			Kind:   models.ControlName,
			Label:  cfg.Layout.Name,
			Intent: &models.Intent{Kind: models.IntentMoreInfo},
		})
	}
	if d, ok := composeDropdown(cfg, snap); ok {
		out = append(out, d)
	}
	if cfg.Layout.PresetButtons != nil {
		out = append(out, composePresetButtons(cfg, *cfg.Layout.PresetButtons, snap, unit)...)
	}
	return out
}

func composeDropdown(cfg models.CardConfig, snap *models.EntitySnapshot) (models.ControlDescriptor, bool) {
	switch cfg.Layout.Dropdown {
	case models.DropdownHvacModes:
		if len(snap.HvacModes) == 0 {
			return models.ControlDescriptor{}, false
		}
		return models.ControlDescriptor{
			Kind:     models.ControlDropdown,
			Label:    hvacModeLabel(cfg, snap.State),
			Options:  append([]string(nil), snap.HvacModes...),
			Selected: snap.State,
			Intent:   &models.Intent{Kind: models.IntentSelectHvacMode},
		}, true
	case models.DropdownPresetModes:
		if snap.PresetMode == "" {
			return models.ControlDescriptor{}, false
		}
		d := models.ControlDescriptor{
			Kind:     models.ControlDropdown,
			Label:    presetModeLabel(cfg, snap.PresetMode),
			Selected: snap.PresetMode,
		}
		// Without a list of presets the dropdown is a read-only label.
		if len(snap.PresetModes) > 0 {
			d.Options = append([]string(nil), snap.PresetModes...)
			d.Intent = &models.Intent{Kind: models.IntentSelectPresetMode}
		}
		return d, true
	default:
		return models.ControlDescriptor{}, false
	}
}

func composePresetButtons(cfg models.CardConfig, p models.PresetButtons, snap *models.EntitySnapshot, unit string) []models.ControlDescriptor {
	switch p.Shorthand {
	case models.DropdownHvacModes:
		out := make([]models.ControlDescriptor, 0, len(snap.HvacModes))
		for _, mode := range snap.HvacModes {
			out = append(out, hvacModeButton(cfg, snap, mode, "", ""))
		}
		return out
	case models.DropdownPresetModes:
		out := make([]models.ControlDescriptor, 0, len(snap.PresetModes))
		for _, mode := range snap.PresetModes {
			out = append(out, presetModeButton(cfg, snap, mode, "", ""))
		}
		return out
	case "":
	default:
		return nil
	}

	out := make([]models.ControlDescriptor, 0, len(p.Buttons))
	for i, b := range p.Buttons {
		if d, ok := presetButton(cfg, snap, i, b, unit); ok {
			out = append(out, d)
		}
	}
	return out
}

func presetButton(cfg models.CardConfig, snap *models.EntitySnapshot, i int, b models.PresetButton, unit string) (models.ControlDescriptor, bool) {
	switch b.Type {
	case models.ButtonTemperature:
		t, ok := toFloat(b.Data["temperature"])
		if !ok {
			return models.ControlDescriptor{}, false
		}
		d := buttonDescriptor(cfg, models.ControlTemperature, b.Icon, b.Label)
		if b.Icon == "" && b.Label == "" {
			d.Label = formatTemperature(&t, unit)
		}
		d.IsActive = snap.TargetTemperature != nil && *snap.TargetTemperature == t
		d.Intent = &models.Intent{Kind: models.IntentSetTemperature, Temperature: &t}
		return d, true
	case models.ButtonHvacMode:
		mode, _ := b.Data[models.ButtonHvacMode].(string)
		return hvacModeButton(cfg, snap, mode, b.Icon, b.Label), true
	case models.ButtonPresetMode:
		mode, _ := b.Data[models.ButtonPresetMode].(string)
		return presetModeButton(cfg, snap, mode, b.Icon, b.Label), true
	case models.ButtonScript, models.ButtonService:
		d := buttonDescriptor(cfg, models.ControlKind(b.Type), b.Icon, b.Label)
		d.Intent = &models.Intent{Kind: models.IntentCallButton, Index: &i}
		return d, true
	default:
		return models.ControlDescriptor{}, false
	}
}

func hvacModeButton(cfg models.CardConfig, snap *models.EntitySnapshot, mode, icon, label string) models.ControlDescriptor {
	d := buttonDescriptor(cfg, models.ControlHvacMode, icon, label)
	if icon == "" && label == "" {
		d.Label = hvacModeLabel(cfg, mode)
	}
	d.IsActive = snap.State == mode
	d.Intent = &models.Intent{Kind: models.IntentSelectHvacMode, Value: mode}
	return d
}

func presetModeButton(cfg models.CardConfig, snap *models.EntitySnapshot, mode, icon, label string) models.ControlDescriptor {
	d := buttonDescriptor(cfg, models.ControlPresetMode, icon, label)
	if icon == "" && label == "" {
		d.Label = presetModeLabel(cfg, mode)
	}
	d.IsActive = snap.PresetMode == mode
	d.Intent = &models.Intent{Kind: models.IntentSelectPresetMode, Value: mode}
	return d
}

// buttonDescriptor shows the icon when one is set, else the label.
func buttonDescriptor(cfg models.CardConfig, kind models.ControlKind, icon, label string) models.ControlDescriptor {
	d := models.ControlDescriptor{Kind: kind}
	if icon != "" {
		d.Icon = iconFor(cfg, icon)
	} else {
		d.Label = label
	}
	return d
}

func composeAdjuster(cfg models.CardConfig, target TargetView, unit string) []models.ControlDescriptor {
	return []models.ControlDescriptor{
		{
			Kind:   models.ControlIncrease,
			Icon:   iconFor(cfg, "up"),
			Intent: &models.Intent{Kind: models.IntentIncrease},
		},
		{
			Kind:     models.ControlTarget,
			Label:    formatTemperature(target.Value, unit),
			Updating: target.Pending,
			Intent:   &models.Intent{Kind: models.IntentMoreInfo},
		},
		{
			Kind:   models.ControlDecrease,
			Icon:   iconFor(cfg, "down"),
			Intent: &models.Intent{Kind: models.IntentDecrease},
		},
	}
}
