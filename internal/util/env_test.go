package util

import "testing"

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("RUNDOWN_TEST_KEY", "set")
	if got := GetEnvDefault("RUNDOWN_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("expected env value, got %q", got)
	}
	if got := GetEnvDefault("RUNDOWN_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"No", true, false},
		{"off", true, false},
		{"", true, true},
		{"garbage", false, false},
		{"garbage", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("RUNDOWN_TEST_BOOL", tt.value)
			}
			if got := ParseBoolEnv("RUNDOWN_TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
			}
		})
	}
}
