package errors

import "testing"

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "headline", false},
		{"with dashes", "block-1", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"control char", "a\nb", true},
		{"too long", string(make([]byte, maxIDLength+1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("block", tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSpec) {
				t.Errorf("ValidateID(%q) code = %v, want %v", tt.id, GetCode(err), ErrCodeInvalidSpec)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		color   string
		wantErr bool
	}{
		{"", false},
		{"#fff", false},
		{"#1E3A8A", false},
		{"#1e3a8aff", false},
		{"1E3A8A", true},
		{"#12", true},
		{"red", true},
		{"#gggggg", true},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			err := ValidateColor(tt.color)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.color, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"https", "https://cdn.example.com/logo.png", false},
		{"http", "http://localhost/logo.png", false},
		{"data url", "data:image/png;base64,AAAA", false},
		{"builtin", "builtin:cross.svg", false},
		{"relative path", "assets/logo.png", false},
		{"absolute path", "/tmp/logo.png", false},
		{"empty", "", true},
		{"ftp", "ftp://example.com/logo.png", true},
		{"traversal", "../../etc/passwd", true},
		{"null byte", "logo\x00.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource(tt.src)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSource(%q) error = %v, wantErr %v", tt.src, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://fonts.googleapis.com/css2", false},
		{"http://localhost:8080", false},
		{"", true},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidSpec,
		ErrCodeInvalidColor,
		ErrCodeInvalidSource,
		ErrCodeInvalidConfig,
		ErrCodeNotFound,
		ErrCodeTemplateNotFound,
		ErrCodeFontNotFound,
		ErrCodeResourceLoad,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeLayoutImpossible,
		ErrCodeComposite,
		ErrCodeInternal,
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
