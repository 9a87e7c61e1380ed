package errors

import (
	"regexp"
	"unicode"
)

// maxIdentifierLength bounds workflow, variable and input names.
const maxIdentifierLength = 128

// identifierRegex matches names usable as workflow or variable identifiers.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s is a syntactically valid identifier.
func IsIdentifier(s string) bool {
	return identifierRegex.MatchString(s)
}

// ValidateIdentifier validates a workflow or variable name.
//
// The validation rules are:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
//   - Must match [A-Za-z_][A-Za-z0-9_]*
//
// Uniqueness is not checked here; callers own the namespace.
func ValidateIdentifier(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}

	if len(name) > maxIdentifierLength {
		return New(ErrCodeInvalidName, "%s name too long (max %d characters)", kind, maxIdentifierLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s name contains invalid control characters", kind)
		}
	}

	if !IsIdentifier(name) {
		return New(ErrCodeInvalidName, "%s name %q must start with a letter or underscore and contain only letters, digits and underscores", kind, name)
	}

	return nil
}
