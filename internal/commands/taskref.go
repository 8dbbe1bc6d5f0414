package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"taskmirror/internal/mirror"
	"taskmirror/internal/service"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses the 1-based task number that list prints.
// Exactly one positional argument made of ASCII digits is accepted.
func ParseTaskRef(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}

	ref := args[0]
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task reference: %s", ref)
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid task reference: %s", ref)
	}
	return n, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// lookupTask resolves args to a mirrored task. On failure it reports the
// problem and returns a non-zero exit code.
func lookupTask(tasks *mirror.Synchronizer, args []string, errOut io.Writer) (service.Task, int) {
	n, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, userError(errOut, "%v", err)
	}
	task, found := tasks.At(n)
	if !found {
		return service.Task{}, userError(errOut, "task not found: %d", n)
	}
	return task, 0
}
