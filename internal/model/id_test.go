package model

import "testing"

func TestIsValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"33333333-3333-3333-3333-333333333333", true},
		{"6BA7B810-9DAD-11D1-80B4-00C04FD430C8", true},
		{"urn:uuid:33333333-3333-3333-3333-333333333333", false},
		{"{33333333-3333-3333-3333-333333333333}", false},
		{"33333333333333333333333333333333", false},
		{"33333333-3333-3333-3333-33333333333z", false},
		{"", false},
		{"bogus", false},
	}
	for _, tt := range tests {
		if got := IsValidID(tt.id); got != tt.want {
			t.Errorf("IsValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
