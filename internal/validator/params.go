package validator

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// decodeParams decodes the string parameters of spec into out, converting
// numbers and booleans from their text form.
func decodeParams(spec core.CheckSpec, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(spec.Parameters); err != nil {
		return fmt.Errorf("%s: invalid parameters: %w", spec.CheckType, err)
	}
	return nil
}

// ratioStatus scores an observed bad-row fraction against the allowed
// threshold: 1 at zero, -1 at or past the threshold, and 1 - f/threshold
// in between, which approaches 0 as f approaches the threshold.
func ratioStatus(fraction, threshold float64) float64 {
	switch {
	case fraction <= 0:
		return core.StatusPass
	case fraction >= threshold:
		return core.StatusFail
	default:
		return core.ClampStatus(1 - fraction/threshold)
	}
}

func fraction(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func checkThreshold(kind string, t float64) error {
	if t < 0 || t > 1 {
		return &ParamError{CheckType: kind, Param: "threshold", Message: fmt.Sprintf("must be between 0 and 1, got %g", t)}
	}
	return nil
}
