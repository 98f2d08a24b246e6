package errors

import (
	"strings"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane.Doe@Example.COM \n"); got != "jane.doe@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "a@b.co", false},
		{"plus", "jane+memes@example.com", false},
		{"subdomain", "x@mail.example.org", false},

		{"empty", "", true},
		{"no at", "example.com", true},
		{"no dot", "jane@example", true},
		{"space", "jane doe@example.com", true},
		{"double at", "a@b@c.com", true},
		{"too long", strings.Repeat("a", 250) + "@b.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidEmail) {
				t.Errorf("ValidateEmail(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateTrends(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    int
		wantErr bool
	}{
		{"single", []string{"ai"}, 1, false},
		{"trims and drops blanks", []string{" ai ", "", "  ", "crypto"}, 2, false},

		{"nil", nil, 0, true},
		{"only blanks", []string{"", " "}, 0, true},
		{"too long", []string{strings.Repeat("x", 101)}, 0, true},
		{"control char", []string{"ai\x01"}, 0, true},
		{"too many", strings.Split("a b c d e f g h i j k", " "), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateTrends(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTrends(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidTrends) {
				t.Errorf("wrong error code: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ValidateTrends(%q) = %q, want %d trends", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateMemeID(t *testing.T) {
	if err := ValidateMemeID("6f1c2a8e-6a4b-4f0e-9d43-2c1b9b1a7e55"); err != nil {
		t.Errorf("valid uuid rejected: %v", err)
	}
	for _, bad := range []string{"", "123", "../etc/passwd"} {
		if err := ValidateMemeID(bad); err == nil {
			t.Errorf("ValidateMemeID(%q) should fail", bad)
		}
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"hex", "a1b2c3", false},
		{"with dashes", "abc-def_ghi.jkl", false},

		{"empty", "", true},
		{"slash", "abc/def", true},
		{"space", "abc def", true},
		{"unicode", "tökén", true},
		{"too long", strings.Repeat("a", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToken(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateToken(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/path", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"javascript", "javascript:alert(1)", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "abc.png", false},
		{"valid nested", "2026/10/abc.png", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidEmail,
		ErrCodeInvalidTrends,
		ErrCodeInvalidSort,
		ErrCodeInvalidLimit,
		ErrCodeInvalidVote,
		ErrCodeInvalidTemplate,
		ErrCodeInvalidPath,
		ErrCodeInvalidToken,
		ErrCodeInvalidImageSize,
		ErrCodeNotFound,
		ErrCodeMemeNotFound,
		ErrCodeNoArticles,
		ErrCodeFileNotFound,
		ErrCodeMemberNotFound,
		ErrCodeAlreadyExists,
		ErrCodeNotConfigured,
		ErrCodeUpstreamInvalid,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeRateLimited,
		ErrCodeUnauthorized,
		ErrCodeForbidden,
		ErrCodeInternal,
		ErrCodeStorage,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
