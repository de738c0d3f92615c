package config

import (
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("CONFIG_TEST_SET", "custom")

	if got := getEnvOrDefault("CONFIG_TEST_SET", "fallback"); got != "custom" {
		t.Errorf("getEnvOrDefault(set) = %q, want %q", got, "custom")
	}
	if got := getEnvOrDefault("CONFIG_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnvOrDefault(unset) = %q, want %q", got, "fallback")
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid int", "42", 42},
		{"invalid int", "not-a-number", 7},
		{"empty", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("CONFIG_TEST_INT", tt.value)
			}
			if got := getEnvAsIntOrDefault("CONFIG_TEST_INT", 7); got != tt.want {
				t.Errorf("getEnvAsIntOrDefault(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvAsFloatOrDefault(t *testing.T) {
	t.Setenv("CONFIG_TEST_FLOAT", "72.5")
	if got := getEnvAsFloatOrDefault("CONFIG_TEST_FLOAT", 60); got != 72.5 {
		t.Errorf("getEnvAsFloatOrDefault = %g, want 72.5", got)
	}
	if got := getEnvAsFloatOrDefault("CONFIG_TEST_FLOAT_UNSET", 60); got != 60 {
		t.Errorf("getEnvAsFloatOrDefault(unset) = %g, want 60", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" http://localhost:5173 , http://localhost:3000 ,, ")
	want := []string{"http://localhost:5173", "http://localhost:3000"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
