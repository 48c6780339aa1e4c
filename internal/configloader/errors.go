package configloader

import "fmt"

// Error wraps a configuration problem detected while parsing or
// reconciling the YAML document. Configuration errors are fatal to the
// process at startup — see SPEC_FULL.md §7 propagation policy.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func errf(format string, args ...any) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}
