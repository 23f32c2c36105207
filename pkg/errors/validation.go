package errors

import (
	"strings"
	"unicode"
)

// HashLength is the length of a hex-encoded snapshot hash (SHA-256).
const HashLength = 64

// ValidateSnapshotHash validates a content hash used to address a snapshot.
// Hashes reach the filesystem and Redis keys, so anything other than
// lowercase hex of the exact length is rejected.
func ValidateSnapshotHash(hash string) error {
	if hash == "" {
		return New(ErrCodeInvalidInput, "snapshot hash cannot be empty")
	}
	if len(hash) != HashLength {
		return New(ErrCodeInvalidInput, "snapshot hash must be %d characters, got %d", HashLength, len(hash))
	}
	for _, r := range hash {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return New(ErrCodeInvalidInput, "snapshot hash contains invalid character %q", r)
		}
	}
	return nil
}

// ValidateEntityID validates a node or edge ID supplied from outside the
// document, such as an HTTP path segment or a CLI flag.
//
// The rules are conservative:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 256 characters
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "id too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "id contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates a connection URL against the allowed schemes.
// With no schemes given, http and https are accepted.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}

	// Simple scheme validation without full URL parsing
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "URL must use one of the schemes: %s", strings.Join(schemes, ", "))
}
