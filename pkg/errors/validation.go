package errors

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// emailRegex is deliberately loose: something, an @, something, a dot,
// something. The mailing-list provider does the real validation.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks an already normalised email address.
func ValidateEmail(email string) error {
	if email == "" {
		return New(ErrCodeInvalidEmail, "email is required")
	}
	if len(email) > 254 {
		return New(ErrCodeInvalidEmail, "email address too long (max 254 characters)")
	}
	if !emailRegex.MatchString(email) {
		return New(ErrCodeInvalidEmail, "invalid email address")
	}
	return nil
}

// MaxTrends is the most trend keywords a single generation request may carry.
const MaxTrends = 10

// ValidateTrends trims each keyword, drops empty ones and returns the rest.
// At least one keyword must remain.
func ValidateTrends(trends []string) ([]string, error) {
	var out []string
	for _, t := range trends {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > 100 {
			return nil, New(ErrCodeInvalidTrends, "trend too long (max 100 characters): %.20q", t)
		}
		for _, r := range t {
			if unicode.IsControl(r) {
				return nil, New(ErrCodeInvalidTrends, "trend contains invalid control characters")
			}
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, New(ErrCodeInvalidTrends, "at least one trend is required")
	}
	if len(out) > MaxTrends {
		return nil, New(ErrCodeInvalidTrends, "too many trends (max %d)", MaxTrends)
	}
	return out, nil
}

// ValidateMemeID checks that id is a UUID.
func ValidateMemeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "meme id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return New(ErrCodeInvalidInput, "invalid meme id: %q", id)
	}
	return nil
}

// ValidateToken checks a confirmation token: non-empty, at most 256
// characters, letters, digits and "-_." only.
func ValidateToken(token string) error {
	if token == "" {
		return New(ErrCodeInvalidToken, "confirmation token is required")
	}
	if len(token) > 256 {
		return New(ErrCodeInvalidToken, "confirmation token too long")
	}
	for _, r := range token {
		if !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_.", r))) {
			return New(ErrCodeInvalidToken, "confirmation token contains invalid characters")
		}
	}
	return nil
}

// ValidatePath validates a file path within the media directory for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
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
