package ir

// Version constants for the trace schema and engine.
const (
	// SchemaVersion is the version of the persisted event layout.
	SchemaVersion = "1"

	// EngineVersion is the hindsight engine version.
	EngineVersion = "0.1.0"
)
