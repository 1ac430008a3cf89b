package model

import "testing"

func TestInferColumnType(t *testing.T) {
	t.Parallel()

	missing := NewMissingSet(DefaultMissingTokens)
	tests := []struct {
		name     string
		values   []string
		expected ColumnType
	}{
		{name: "empty", values: nil, expected: ColumnTypeText},
		{name: "all missing", values: []string{"", "NA", " "}, expected: ColumnTypeText},
		{name: "integers", values: []string{"1", "-2", " 3 "}, expected: ColumnTypeInteger},
		{name: "integers with missing", values: []string{"1", "", "N/A"}, expected: ColumnTypeInteger},
		{name: "reals", values: []string{"1", "2.5"}, expected: ColumnTypeReal},
		{name: "text wins", values: []string{"1", "two"}, expected: ColumnTypeText},
		{name: "infinity spelled out is text", values: []string{"Inf", "1"}, expected: ColumnTypeText},
		{name: "dates are text", values: []string{"2024-01-02"}, expected: ColumnTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := InferColumnType(tt.values, missing); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	missing := NewMissingSet([]string{"-99"})

	if v := ParseValue("-99", ColumnTypeInteger, missing); !v.IsMissing() {
		t.Errorf("expected custom token to be missing, got %v", v)
	}
	if v := ParseValue(" 7 ", ColumnTypeInteger, missing); !v.Equal(NumberValue(7)) {
		t.Errorf("expected number 7, got %v", v)
	}
	if v := ParseValue("7", ColumnTypeText, missing); !v.Equal(TextValue("7")) {
		t.Errorf("expected text 7 in a text column, got %v", v)
	}
	if v := ParseValue("NA", ColumnTypeText, missing); v.IsMissing() {
		t.Error("expected NA to be an answer when it is not a missing token")
	}
}
