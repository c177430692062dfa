package validate

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrUnsupported is returned when a type expression has no value schema.
// Callers fall back to structural matching.
var ErrUnsupported = errors.New("no value schema for type")

// ValidationError reports a value rejected by the schema of a type.
type ValidationError struct {
	Target  string
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("value does not match %s: %s: %s", e.Target, e.Path, e.Message)
	}
	return fmt.Sprintf("value does not match %s: %s", e.Target, e.Message)
}

// formatError turns a CUE evaluation error into a ValidationError, keeping
// the path of the first failure and the messages of all of them.
func formatError(target string, err error) *ValidationError {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return &ValidationError{Target: target, Message: err.Error()}
	}

	verr := &ValidationError{Target: target, Path: formatPath(cueerrors.Path(list[0]))}
	var msgs []string
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		if path != "" && path != verr.Path {
			msg = path + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	verr.Message = strings.Join(msgs, "; ")
	return verr
}

// formatPath renders ["items", "0", "name"] as items[0].name.
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
