package utils_test

import (
	"testing"
	"time"

	"todo-gpt/backend/internal/utils"

	"github.com/gofrs/uuid"
)

func TestIsValidUUID(t *testing.T) {
	validUUID := uuid.Must(uuid.NewV4()).String()
	if !utils.IsValidUUID(validUUID) {
		t.Errorf("Expected valid UUID %s to return true", validUUID)
	}

	for _, invalid := range []string{"invalid-uuid", "", "123-456-789", "not-a-uuid-at-all"} {
		if utils.IsValidUUID(invalid) {
			t.Errorf("Expected invalid UUID %s to return false", invalid)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "test_value")
	if result := utils.GetEnv("TEST_ENV_VAR", "default"); result != "test_value" {
		t.Errorf("Expected test_value, got %s", result)
	}

	if result := utils.GetEnv("NON_EXISTING_ENV_VAR", "default_value"); result != "default_value" {
		t.Errorf("Expected default_value, got %s", result)
	}

	t.Setenv("TEST_EMPTY_VAR", "")
	if result := utils.GetEnv("TEST_EMPTY_VAR", "fallback"); result != "fallback" {
		t.Errorf("Expected fallback for empty variable, got %s", result)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"42", 42},
		{"not_an_integer", 10},
		{"", 10},
	}

	for _, test := range tests {
		t.Setenv("TEST_INT_VAR", test.value)
		if result := utils.GetEnvAsInt("TEST_INT_VAR", 10); result != test.expected {
			t.Errorf("GetEnvAsInt with %q = %d, expected %d", test.value, result, test.expected)
		}
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"30s", 30 * time.Second},
		{"invalid_duration", time.Minute},
		{"", time.Minute},
	}

	for _, test := range tests {
		t.Setenv("TEST_DURATION_VAR", test.value)
		if result := utils.GetEnvAsDuration("TEST_DURATION_VAR", time.Minute); result != test.expected {
			t.Errorf("GetEnvAsDuration with %q = %v, expected %v", test.value, result, test.expected)
		}
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL_VAR", "true")
	if !utils.GetEnvAsBool("TEST_BOOL_VAR", false) {
		t.Error("Expected true")
	}

	t.Setenv("TEST_BOOL_VAR", "maybe")
	if !utils.GetEnvAsBool("TEST_BOOL_VAR", true) {
		t.Error("Expected default for unparseable bool")
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("TEST_SLICE_VAR", " http://a.test, ,http://b.test ")

	result := utils.GetEnvAsSlice("TEST_SLICE_VAR", nil)
	if len(result) != 2 || result[0] != "http://a.test" || result[1] != "http://b.test" {
		t.Errorf("Expected two trimmed origins, got %v", result)
	}

	t.Setenv("TEST_SLICE_VAR", " , ")
	if result := utils.GetEnvAsSlice("TEST_SLICE_VAR", []string{"x"}); len(result) != 1 || result[0] != "x" {
		t.Errorf("Expected defaults for blank list, got %v", result)
	}
}
