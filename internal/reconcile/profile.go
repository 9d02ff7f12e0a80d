package reconcile

import "github.com/KenCariquitan/Receipt-Spendle/internal/scanning"

// Profile is how much a source is trusted. Lower Priority is more trusted.
type Profile struct {
	Priority float64
	// Bonus is added to the candidate score for known-reliable sources
	Bonus float64
	// DefaultConfidence is used when the provider reports none
	DefaultConfidence float64
}

// DefaultProfiles are the built-in source profiles
var DefaultProfiles = map[string]Profile{
	scanning.SourceTesseract: {Priority: 0, Bonus: 0, DefaultConfidence: 0},
	scanning.SourceOCRSpace:  {Priority: 0.5, Bonus: 0.25, DefaultConfidence: 70},
	scanning.SourceOllama:    {Priority: 2, Bonus: 0, DefaultConfidence: 50},
	scanning.SourceGemini:    {Priority: -0.2, Bonus: 0.5, DefaultConfidence: 90},
}

// DefaultOrder is the source evaluation order used to break score ties
var DefaultOrder = []string{
	scanning.SourceTesseract,
	scanning.SourceOCRSpace,
	scanning.SourceOllama,
	scanning.SourceGemini,
}

// unknownProfile applies to sources missing from the profile table
var unknownProfile = Profile{Priority: 3, Bonus: 0, DefaultConfidence: 0}
