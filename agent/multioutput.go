package agent

import (
	"fmt"

	"github.com/agentmap-go/agentmap/agerr"
)

// validateMultiOutput implements spec §4.1's multi-output validation
// algorithm for an agent declaring n >= 2 output fields.
//
// Returns the state-updates partial (not yet merged with
// last_action_success) and a warning list to log, or an error when
// mode is ValidationError and the fields don't match exactly.
func validateMultiOutput(agentName string, fields []string, mode ValidationMode, output any) (map[string]any, []string, error) {
	out, isMap := toStringKeyedMap(output)
	if !isMap {
		// Graceful degradation: non-mapping output under a multi-output
		// contract is assigned to the first declared field.
		if mode == ValidationError {
			return nil, nil, &agerr.MultiOutputTypeError{Agent: agentName, Got: fmt.Sprintf("%T", output)}
		}
		partial := map[string]any{fields[0]: output}
		var warnings []string
		if mode == ValidationWarn {
			warnings = append(warnings, fmt.Sprintf("agent %q: process() returned non-mapping %T for multi-output fields %v, assigned to %q", agentName, output, fields, fields[0]))
		}
		return partial, warnings, nil
	}

	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f] = true
	}

	var missing, extra []string
	for _, f := range fields {
		if _, ok := out[f]; !ok {
			missing = append(missing, f)
		}
	}
	for k := range out {
		if !declared[k] {
			extra = append(extra, k)
		}
	}

	switch mode {
	case ValidationIgnore:
		partial := make(map[string]any, len(fields))
		for _, f := range fields {
			partial[f] = out[f] // nil if absent
		}
		return partial, nil, nil

	case ValidationError:
		if len(missing) > 0 || len(extra) > 0 {
			return nil, nil, &agerr.MultiOutputValidationError{Agent: agentName, Missing: missing, Extra: extra}
		}
		return out, nil, nil

	default: // ValidationWarn
		partial := make(map[string]any, len(out)+len(missing))
		for k, v := range out {
			partial[k] = v
		}
		for _, f := range missing {
			partial[f] = nil
		}
		var warnings []string
		if len(missing) > 0 {
			warnings = append(warnings, fmt.Sprintf("agent %q: multi-output missing declared fields %v", agentName, missing))
		}
		if len(extra) > 0 {
			warnings = append(warnings, fmt.Sprintf("agent %q: multi-output has undeclared extra fields %v (preserved)", agentName, extra))
		}
		return partial, warnings, nil
	}
}

// toStringKeyedMap normalizes the common mapping shapes a process()
// might return into map[string]any.
func toStringKeyedMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case StateUpdates:
		return map[string]any(m), true
	default:
		return nil, false
	}
}
