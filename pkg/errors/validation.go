package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// designerNameRe restricts designer names to what survives both a cell name
// and an opt_in test label.
var designerNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateDesignerName checks that a designer name can be embedded in the top
// cell name and in the automated test label.
func ValidateDesignerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "designer name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "designer name too long (max 64 characters)")
	}
	if !designerNameRe.MatchString(name) {
		return New(ErrCodeInvalidInput, "designer name %q may only contain letters, digits, '_' and '-'", name)
	}
	return nil
}

// ValidateOutputName validates a base file name for exported artifacts.
// It must be a plain name without directories or an extension-only name.
func ValidateOutputName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "output name cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidPath, "output name too long (max 255 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output name contains control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidPath, "output name cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidPath, "output name cannot start with a dot")
	}
	return nil
}
