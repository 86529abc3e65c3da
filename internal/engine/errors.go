package engine

import "fmt"

// FailKind classifies a rejected action. All three kinds are expected
// outcomes of player input and are returned, never raised; only a
// violated internal invariant or a missing required config default is
// a real error, and the host treats that as fatal.
type FailKind string

const (
	// FailValidation: malformed payload, out-of-range index or
	// coordinate, wrong type.
	FailValidation FailKind = "validation_error"
	// FailIllegal: well-formed but rule-violating — wrong turn, wrong
	// phase, illegal move, must-follow-suit, insufficient resource.
	FailIllegal FailKind = "illegal_action"
	// FailTerminal: action submitted after the game already ended.
	FailTerminal FailKind = "terminal_state"
)

// Failf builds a rejected ActionResult. Callers must not have mutated
// any state before returning it.
func Failf(kind FailKind, format string, args ...any) ActionResult {
	return ActionResult{
		Success: false,
		Kind:    kind,
		Error:   fmt.Sprintf(format, args...),
	}
}

// Invalidf rejects a malformed action payload.
func Invalidf(format string, args ...any) ActionResult {
	return Failf(FailValidation, format, args...)
}

// Illegalf rejects a well-formed but rule-violating action.
func Illegalf(format string, args ...any) ActionResult {
	return Failf(FailIllegal, format, args...)
}

// Terminalf rejects an action submitted after the game ended.
func Terminalf(format string, args ...any) ActionResult {
	return Failf(FailTerminal, format, args...)
}

// OK builds a successful ActionResult carrying the post-mutation state
// and the events emitted by this one mutation.
func OK(state StateEnvelope, events []DomainEvent) ActionResult {
	return ActionResult{
		Success:  true,
		NewState: &state,
		Events:   events,
	}
}
