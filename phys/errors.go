package phys

import (
	"errors"
	"fmt"
)

// Error taxonomy of the physical back end. Configuration errors and
// divergence abort the whole run; a failed routing attempt is a normal
// search signal and never surfaces as an error.
var (
	// ErrConfig marks a malformed architecture or an illegal option
	// combination (odd width under unidirectional routing, Fs not a
	// multiple of 3 under bidirectional routing, unresolved interconnect
	// references, unknown density kinds).
	ErrConfig = errors.New("invalid configuration")

	// ErrUnroutable marks a circuit the search deemed unroutable under the
	// current router options.
	ErrUnroutable = errors.New("circuit unroutable")

	// ErrDiverged marks a width search that exceeded its growth ceiling.
	ErrDiverged = errors.New("channel width search diverged")
)

// configWrap attaches context to one of the sentinel errors above.
func configWrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// configErrf wraps ErrConfig with a formatted message.
func configErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// configErrLine wraps ErrConfig with the originating architecture-file line.
// Interconnects are resolved long after parsing, so the line number is the
// only useful pointer back to the offending description.
func configErrLine(line int, format string, args ...any) error {
	if line <= 0 {
		return configErrf(format, args...)
	}
	return fmt.Errorf("%w: line %d: %s", ErrConfig, line, fmt.Sprintf(format, args...))
}
