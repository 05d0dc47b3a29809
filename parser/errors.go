package parser

import "fmt"

// ParseError reports malformed filter input. It carries the source offset of
// the offending character; the lexer and builder do not attempt recovery.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("filter parse error at offset %d: %s", e.Offset, e.Reason)
}

func parseErrorf(offset int, format string, args ...interface{}) error {
	return &ParseError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports an internal-consistency failure inside a mutation
// primitive (e.g. a token lookup miss). It means the caller is operating on
// stale state; the current operation must be aborted, not papered over.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func validationErrorf(op, format string, args ...interface{}) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
