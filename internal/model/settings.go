package model

// Settings are the user-facing overlay toggles. The loop driver reads a
// snapshot once per tick, so a change applies on the next tick at the latest.
type Settings struct {
	// ColorMode enables colored indicator lines and the legend.
	ColorMode bool `json:"color_mode" toml:"color_mode"`
	// ShowLabels controls edge-label visibility. Hidden labels stay tracked
	// at zero opacity.
	ShowLabels bool `json:"show_labels" toml:"show_labels"`
	// ShowLegend controls legend visibility. A hidden legend keeps its rows
	// and bookkeeping, rendered fully transparent.
	ShowLegend bool `json:"show_legend" toml:"show_legend"`
}

// DefaultSettings returns the toggles a fresh session starts with.
func DefaultSettings() Settings {
	return Settings{ColorMode: true, ShowLabels: true, ShowLegend: true}
}
