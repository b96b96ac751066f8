package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema marks malformed or unexpected metadata (keys, dates, flags).
	ErrSchema = errors.New("schema error")
	// ErrStructure marks a missing, ambiguous, or unresolved artifact.
	ErrStructure = errors.New("structural error")
	// ErrDuplicate marks data that already exists in the catalog.
	ErrDuplicate     = errors.New("duplicate error")
	ErrMigration     = errors.New("migration error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes scope context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, scope, operation, message string, err error) error {
	detail := buildDetail(scope, operation, message)
	if marker == nil {
		marker = ErrStructure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the marker carried by err, or "error" when
// err carries none of the known markers.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrStructure):
		return "structure"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrMigration):
		return "migration"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func buildDetail(scope, operation, message string) string {
	parts := make([]string, 0, 3)
	if scope = strings.TrimSpace(scope); scope != "" {
		parts = append(parts, scope)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "catalog failure"
	}
	return strings.Join(parts, ": ")
}
