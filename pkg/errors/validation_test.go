package errors

import (
	"testing"
)

func TestValidateDesignerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "LukasChrostowski", false},
		{"valid with digits", "Student42", false},
		{"underscore", "Lukas_C", false},
		{"dash", "lukas-c", false},
		{"leading digit", "1Lukas", false},

		{"empty", "", true},
		{"too long", "A" + string(make([]byte, 80)), true},
		{"leading dash", "-Lukas", true},
		{"space", "Lukas C", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDesignerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDesignerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "EBeam_LukasChrostowski_MZI", false},
		{"valid with dash", "mzi-1310", false},

		{"empty", "", true},
		{"separator", "out/mzi", true},
		{"backslash", `out\mzi`, true},
		{"hidden", ".mzi", true},
		{"control char", "mzi\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateOutputName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}
