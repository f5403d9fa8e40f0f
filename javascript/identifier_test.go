package javascript

import (
	"testing"
)

func TestEscapeReservedWord(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"class", "class_"},
		{"default", "default_"},
		{"await", "await_"},
		{"new", "new_"},
		{"type", "type"},
		{"uri", "uri"},
		{"_private", "_private"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeReservedWord(tt.input)
			if got != tt.want {
				t.Errorf("escapeReservedWord(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNeedsQuoting(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"123abc", true},
		{"my-field", true},
		{"my field", true},
		{"class", false},
		{"myField", false},
		{"$mlProxy", false},
		{"_field", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := needsQuoting(tt.input)
			if got != tt.want {
				t.Errorf("needsQuoting(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "_"},
		{"uri", "uri"},
		{"content-type", "content_type"},
		{"1st", "_1st"},
		{"default", "default_"},
		{"arguments", "arguments_"},
		{"eval", "eval_"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeIdentifier(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
