// Package core defines the shared language of the LeapCheck system.
//
// This package contains:
//   - Domain values (CheckSpec, Outcome, Severity)
//   - Run bookkeeping types (Run, RunStatus, CheckResult)
//   - Adapter configuration and metadata types
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
