package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidatePositive checks that an option is a finite number greater than zero.
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return New(ErrCodeInvalidConfig, "%s must be a positive number, got %v", name, v)
	}
	return nil
}

// ValidateNonNegative checks that an option is a finite number not below zero.
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return New(ErrCodeInvalidConfig, "%s must not be negative, got %v", name, v)
	}
	return nil
}

// ValidateFraction checks that an option lies in (0, 1].
func ValidateFraction(name string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v > 1 {
		return New(ErrCodeInvalidConfig, "%s must be in (0, 1], got %v", name, v)
	}
	return nil
}

// ValidateMinInt checks that an integer option is at least lo.
func ValidateMinInt(name string, v, lo int) error {
	if v < lo {
		return New(ErrCodeInvalidConfig, "%s must be at least %d, got %d", name, lo, v)
	}
	return nil
}

// ValidatePath validates a user supplied output path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateURL checks that a connection string uses one of the given schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %s", strings.Join(schemes, ", "))
}
