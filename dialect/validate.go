package dialect

import (
	"fmt"
	"regexp"
	"strings"
)

var fieldNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateFieldName applies the common shape check (non-empty, identifier
// characters, optional length cap) shared by every dialect, then checks the
// dialect-specific reserved-word set.
func validateFieldName(name string, maxLen int, reserved map[string]struct{}) error {
	if name == "" {
		return fmt.Errorf("%w: field name cannot be empty", ErrInvalidIdentifier)
	}

	if maxLen > 0 && len(name) > maxLen {
		return fmt.Errorf("%w: field name exceeds %d characters", ErrInvalidIdentifier, maxLen)
	}

	if !fieldNameRE.MatchString(name) {
		return fmt.Errorf("%w: field name contains invalid characters", ErrInvalidIdentifier)
	}

	if _, ok := reserved[strings.ToLower(name)]; ok {
		return fmt.Errorf("%w: field name is a reserved SQL keyword", ErrInvalidIdentifier)
	}

	return nil
}

func reservedSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	return set
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
