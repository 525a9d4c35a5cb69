package core

import "time"

// Status bounds. Validators must keep Status within [StatusFail, StatusPass].
const (
	StatusPass = 1.0
	StatusFail = -1.0
)

// Outcome is the raw result of running one validator once.
// A non-negative Status passes; a negative Status fails.
type Outcome struct {
	Status   float64
	Goal     float64
	Value    float64
	Duration time.Duration
	Message  string
	Details  string
}

// Passed reports whether the outcome classifies as a pass.
func (o *Outcome) Passed() bool {
	return o.Status >= 0
}

// ClampStatus limits s to the valid status range.
func ClampStatus(s float64) float64 {
	switch {
	case s > StatusPass:
		return StatusPass
	case s < StatusFail:
		return StatusFail
	default:
		return s
	}
}
