package sanitizer

import "testing"

func TestTrimAndCollapse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Jane Doe", "Jane Doe"},
		{"leading and trailing", "  Jane Doe  ", "Jane Doe"},
		{"internal runs", "Jane \t\n  Doe", "Jane Doe"},
		{"only whitespace", "   \t ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndCollapse(tt.input); got != tt.want {
				t.Errorf("TrimAndCollapse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane.Doe@Example.COM "); got != "jane.doe@example.com" {
		t.Errorf("NormalizeEmail = %q, want jane.doe@example.com", got)
	}
}

func TestNormalizePromoCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"save10", "SAVE10"},
		{" save 10 ", "SAVE10"},
		{"FLAT100", "FLAT100"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePromoCode(tt.input); got != tt.want {
			t.Errorf("NormalizePromoCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already e164", "+12125550123", "+12125550123"},
		{"e164 with spaces", " +1 212 555 0123 ", "+12125550123"},
		{"us national", "(212) 555-0123", "+12125550123"},
		{"garbage", "not-a-phone", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
