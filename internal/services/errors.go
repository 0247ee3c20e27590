// Package services defines the shared error taxonomy for pipeline components.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrDecode        = errors.New("decode error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPermanent reports whether the error reflects a property of the file itself
// rather than the environment. Either way the catalog row records the error
// status and is re-signed only once the file's size or mtime changes; the
// distinction feeds the junk classifier, where only file-rooted failures count
// as unreadable.
func IsPermanent(err error) bool {
	switch {
	case errors.Is(err, ErrDecode), errors.Is(err, ErrNotFound):
		return true
	case errors.Is(err, ErrExternalTool), errors.Is(err, ErrTimeout), errors.Is(err, ErrTransient), errors.Is(err, ErrConfiguration):
		return false
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
