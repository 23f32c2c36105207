package errors

import (
	"strings"
	"testing"
)

func TestValidateSnapshotHash(t *testing.T) {
	valid := strings.Repeat("ab12", 16)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", valid, false},
		{"empty", "", true},
		{"too short", valid[:10], true},
		{"too long", valid + "0", true},
		{"uppercase", strings.ToUpper(valid), true},
		{"path traversal", "../" + valid[3:], true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSnapshotHash(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSnapshotHash(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateEntityID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "svc-orders", false},
		{"with slash", "route/v1", false},
		{"unicode", "dienst-ö", false},
		{"empty", "", true},
		{"too long", strings.Repeat("x", 300), true},
		{"newline", "a\nb", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntityID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		schemes []string
		wantErr bool
	}{
		{"https default", "https://example.com", nil, false},
		{"http default", "http://localhost:8080", nil, false},
		{"ftp rejected", "ftp://example.com", nil, true},
		{"redis", "redis://localhost:6379/0", []string{"redis", "rediss"}, false},
		{"mongo srv", "mongodb+srv://cluster.example.net", []string{"mongodb", "mongodb+srv"}, false},
		{"wrong scheme", "http://localhost:6379", []string{"redis"}, true},
		{"empty", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url, tt.schemes...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
