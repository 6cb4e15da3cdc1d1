package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxPathLength bounds image source paths accepted from catalogs and requests.
const maxPathLength = 500

// ValidateImagePath validates an image source path from a catalog or URL.
// It prevents path traversal so the server never reads outside its image root.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateImagePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "image path cannot be empty")
	}

	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "image path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "image path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "image path must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "image path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "image path cannot contain backslashes")
	}

	return nil
}

// ValidateDimensions checks that a natural image size is usable for layout.
// Zero, negative, NaN and infinite values are rejected.
func ValidateDimensions(width, height float64) error {
	if !finitePositive(width) || !finitePositive(height) {
		return New(ErrCodeInvalidDimensions, "image dimensions must be positive (got %gx%g)", width, height)
	}
	return nil
}

// ValidateTag validates a tag filter value.
func ValidateTag(tag string) error {
	if len(tag) > 64 {
		return New(ErrCodeInvalidInput, "tag too long (max 64 characters)")
	}
	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return New(ErrCodeInvalidInput, "tag contains invalid characters: %q", tag)
		}
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
