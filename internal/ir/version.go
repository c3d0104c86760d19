package ir

// Version constants.
const (
	// EngineName is the name recorded in provenance descriptions.
	EngineName = "harmonizer"

	// EngineVersion is the harmonizer engine version.
	EngineVersion = "0.3.0"
)
