package engine

import "fmt"

// RuleError is a domain-rule violation: the action was well-formed and
// allowed to be attempted, but the game rules refuse it. No mutation is
// applied.
type RuleError struct {
	Code   string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule violation [%s]: %s", e.Code, e.Reason)
}

func ruleErr(code, format string, args ...any) error {
	return &RuleError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// GateError is a turn-ownership or round-gate refusal. Callers surface these
// as conflicts carrying the latest state so the client can resynchronize.
type GateError struct {
	Reason string
}

func (e *GateError) Error() string {
	return "turn gate: " + e.Reason
}

func gateErr(format string, args ...any) error {
	return &GateError{Reason: fmt.Sprintf(format, args...)}
}
