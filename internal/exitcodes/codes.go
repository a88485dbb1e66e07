package exitcodes

import (
	"errors"
	"os"
)

// Standard exit codes for quicknginx
const (
	// Success indicates successful command completion
	Success = 0

	// GeneralError indicates a general/unknown error
	GeneralError = 1

	// InvalidArgs indicates an unrecognized action, site variant or log kind
	InvalidArgs = 2

	// PreconditionFailed indicates a precondition was not met
	// (e.g., nginx binary missing, config marker absent)
	PreconditionFailed = 3

	// ProcessError indicates the external nginx command failed to launch
	// or exited non-zero
	ProcessError = 5

	// ValidationError indicates doctor checks failed or input content
	// (e.g., a backup archive) is unsafe or corrupt
	ValidationError = 6

	// IOError indicates a config or log file could not be read or written
	IOError = 7

	// Undeterminable indicates the liveness probe could not query the process table
	Undeterminable = 8
)

// Exit terminates the program with the given code
func Exit(code int) {
	os.Exit(code)
}

// CodeForError returns the appropriate exit code for an error.
// Finds the outermost ErrorWithCode in the chain, otherwise returns GeneralError.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}

	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}

	return GeneralError
}

// HasCode reports whether err carries the given exit code.
func HasCode(err error, code int) bool {
	return err != nil && CodeForError(err) == code
}
