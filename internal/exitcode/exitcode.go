// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskmirror/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, bad task reference, rejected input).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a task store, network or model error.
	BackendError = 3
)

// FromError maps an error from the task store to an exit code.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrNotFound):
		return UserError
	case errors.Is(err, service.ErrUnauthorized):
		return AuthError
	default:
		return BackendError
	}
}
