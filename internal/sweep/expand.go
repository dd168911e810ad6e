package sweep

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

// MaxRangeValues bounds the number of values a single range may produce
const MaxRangeValues = 10000

// Expand turns a parameter spec into the ordered values to sweep. Range
// values are accumulated by repeated addition of the step, so callers that
// need integral sweeps must supply integral bounds and step.
func Expand(spec models.ParameterSpec) ([]float64, error) {
	return expandField("", spec)
}

func expandField(field string, spec models.ParameterSpec) ([]float64, error) {
	switch spec.Kind {
	case models.ParameterSingle:
		if !isFinite(spec.Value) {
			return nil, &InvalidSpecError{Field: field, Reason: "value must be a finite number"}
		}
		return []float64{spec.Value}, nil

	case models.ParameterRange:
		r := spec.Range
		if !isFinite(r.From) || !isFinite(r.To) || !isFinite(r.Step) {
			return nil, &InvalidSpecError{Field: field, Reason: "range bounds must be finite numbers"}
		}
		if r.Step <= 0 {
			return nil, &InvalidSpecError{Field: field, Reason: fmt.Sprintf("step must be positive, got %g", r.Step)}
		}
		if r.From > r.To {
			return nil, &InvalidSpecError{Field: field, Reason: fmt.Sprintf("from (%g) must not exceed to (%g)", r.From, r.To)}
		}
		if (r.To-r.From)/r.Step >= MaxRangeValues {
			return nil, &InvalidSpecError{Field: field, Reason: fmt.Sprintf("range produces more than %d values", MaxRangeValues)}
		}

		values := make([]float64, 0, int((r.To-r.From)/r.Step)+1)
		for v := r.From; v <= r.To; v += r.Step {
			values = append(values, v)
		}
		return values, nil

	case "":
		return nil, &InvalidSpecError{Field: field, Reason: "parameter is required"}

	default:
		return nil, &InvalidSpecError{Field: field, Reason: fmt.Sprintf("unknown type %q (must be single or range)", spec.Kind)}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
