package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePath validates a resource path relative to an image root.
// It prevents path traversal and rejects control characters.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
//
// A leading slash is tolerated because project documents usually reference
// images as site-absolute paths ("/images/a.jpg"); callers strip it before
// joining with a root directory.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// projectIDRegex matches IDs usable as DOM ids and URL path segments.
var projectIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateProjectID validates a project identifier.
func ValidateProjectID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDocument, "project id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidDocument, "project id too long (max 128 characters)")
	}
	if !projectIDRegex.MatchString(id) {
		return New(ErrCodeInvalidDocument, "invalid project id: %q", id)
	}
	return nil
}
