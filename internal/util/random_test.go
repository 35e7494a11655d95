package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomHex(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"event id length", 16, 16},
		{"short", 4, 4},
		{"zero", 0, 0},
		{"negative", -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateRandomHex(tt.length)
			if len(got) != tt.want {
				t.Errorf("GenerateRandomHex(%d) has length %d, want %d", tt.length, len(got), tt.want)
			}
			for _, c := range got {
				if !strings.ContainsRune("0123456789abcdef", c) {
					t.Errorf("GenerateRandomHex(%d) contains non-hex character %q", tt.length, c)
				}
			}
		})
	}
}

func TestGenerateEventIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateEventID()
		if len(id) != 16 {
			t.Fatalf("event id %q has length %d, want 16", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate event id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}
