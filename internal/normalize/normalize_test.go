package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Effective Java", "effective java"},
		{"  EFFECTIVE  ", "effective"},
		{"", ""},
		{"Cafe\u0301", "caf\u00e9"}, // decomposed accent composes
		{"nul\x00byte", "nulbyte"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Text(tt.input)
			if result != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestBlank(t *testing.T) {
	if !Blank("  \t") {
		t.Error("expected whitespace to be blank")
	}
	if Blank(" x ") {
		t.Error("expected text not to be blank")
	}
}

func TestCompare(t *testing.T) {
	if Compare("alpha", "Beta") >= 0 {
		t.Error("expected alpha < Beta ignoring case")
	}
	if Compare("Java", "java") == 0 {
		t.Error("expected distinct raw strings to stay distinct")
	}
	if Compare("Java", "Java") != 0 {
		t.Error("expected equal strings to compare equal")
	}
}
