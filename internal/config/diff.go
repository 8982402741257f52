package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	PersonaChanged  bool        // true if any persona field changed
	Persona         PersonaDiff // per-field persona diff
	LogLevelChanged bool
	NewLogLevel     LogLevel
}

// PersonaDiff describes which persona fields changed between two configs.
// A persona change only affects sessions started after the reload; live
// sessions keep the persona they connected with.
type PersonaDiff struct {
	NameChanged         bool
	InstructionsChanged bool
	VoiceChanged        bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// Persona
	if old.Persona.Name != new.Persona.Name {
		d.Persona.NameChanged = true
	}
	if old.Persona.Instructions != new.Persona.Instructions {
		d.Persona.InstructionsChanged = true
	}
	if old.Persona.Voice != new.Persona.Voice {
		d.Persona.VoiceChanged = true
	}
	d.PersonaChanged = d.Persona.NameChanged || d.Persona.InstructionsChanged || d.Persona.VoiceChanged

	return d
}
