package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = errors.New("validation failed")

const MaxPathLength = 1024

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ResolveWithinRoot joins rel onto root and rejects results that escape root.
// Absolute inputs are accepted only when they already sit below root.
func ResolveWithinRoot(root, rel, fieldName string) (string, error) {
	if err := ValidateStringNotEmpty(rel, fieldName); err != nil {
		return "", err
	}
	if err := ValidateStringMaxLength(rel, MaxPathLength, fieldName); err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	target := rel
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)

	within, err := filepath.Rel(absRoot, target)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s must stay inside the input root", ErrValidationFailed, fieldName)
	}
	return target, nil
}
