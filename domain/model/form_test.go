package model

import "testing"

func TestIsSkippedType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fieldType string
		expected  bool
	}{
		{"calculate", true},
		{"note", true},
		{"start", true},
		{"end", true},
		{"deviceid", true},
		{"", true},
		{"begin group", true},
		{"end repeat", true},
		{"hidden string", true},
		{"text", false},
		{"integer", false},
		{"select_one yes_no", false},
		{"ending", false},
	}

	for _, tt := range tests {
		t.Run(tt.fieldType, func(t *testing.T) {
			t.Parallel()

			if got := IsSkippedType(tt.fieldType); got != tt.expected {
				t.Errorf("IsSkippedType(%q) = %v, want %v", tt.fieldType, got, tt.expected)
			}
		})
	}
}

func TestFormField_FullName(t *testing.T) {
	t.Parallel()

	f := FormField{Type: "integer", Name: "age", Path: []string{"household", "member"}}
	if got := f.FullName(':'); got != "household:member:age" {
		t.Errorf("unexpected full name %s", got)
	}
	if got := f.FullName('-'); got != "household-member-age" {
		t.Errorf("unexpected full name %s", got)
	}
	if got := (FormField{Name: "age"}).FullName(':'); got != "age" {
		t.Errorf("unexpected full name %s", got)
	}
}

func TestLeafName(t *testing.T) {
	t.Parallel()

	if got := LeafName("household:member:age", ':'); got != "age" {
		t.Errorf("expected age, got %s", got)
	}
	if got := LeafName("age", ':'); got != "age" {
		t.Errorf("expected age, got %s", got)
	}
	if got := LeafName("a-b", ':'); got != "a-b" {
		t.Errorf("expected separator mismatch to keep the name, got %s", got)
	}
}
