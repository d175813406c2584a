package controllers

import "testing"

func TestNormalizeImportMethod(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain venmo",
			input:    "Venmo",
			expected: "venmo",
		},
		{
			name:     "bank label with zelle",
			input:    "Chase Zelle Transfer",
			expected: "zelle",
		},
		{
			name:     "british spelling",
			input:    "Cheque #1042",
			expected: "check",
		},
		{
			name:     "credit card",
			input:    "Credit Card",
			expected: "card",
		},
		{
			name:     "cash",
			input:    "  cash ",
			expected: "cash",
		},
		{
			name:     "unknown label",
			input:    "Wire",
			expected: "other",
		},
		{
			name:     "empty",
			input:    "",
			expected: "other",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeImportMethod(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "currency with thousands",
			input:    "$1,250.00",
			expected: "1250.00",
		},
		{
			name:     "quoted value",
			input:    "\"85.50\"",
			expected: "85.50",
		},
		{
			name:     "plain",
			input:    "40",
			expected: "40",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanNumber(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestParseImportDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "iso date",
			input:    "2026-03-05",
			expected: "2026-03-05",
		},
		{
			name:     "us slashes",
			input:    "3/5/2026",
			expected: "2026-03-05",
		},
		{
			name:     "two digit year",
			input:    "3/5/26",
			expected: "2026-03-05",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := parseImportDate(tc.input)
			if got == nil {
				t.Fatalf("expected a date, got nil")
			}
			if got.Format("2006-01-02") != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got.Format("2006-01-02"))
			}
		})
	}
}

func TestParseImportDateInvalid(t *testing.T) {
	if got := parseImportDate("not a date"); got != nil {
		t.Fatalf("expected nil for invalid input, got %v", got)
	}
	if got := parseImportDate(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
