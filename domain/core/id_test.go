package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseReportID tests report ID parsing
func TestParseReportID(t *testing.T) {
	valid := NewReportID().String()

	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, test := range tests {
		result, err := ParseReportID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError {
			if err != nil {
				t.Errorf("Unexpected error for input '%s': %v", test.input, err)
			}
			if result.String() != test.input {
				t.Errorf("Expected %s, got %s", test.input, result)
			}
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	if !IsColumnNotFound(NewColumnNotFoundError("age")) {
		t.Error("expected column-not-found to match")
	}
	if !IsPreconditionError(NewNoModeError("age")) {
		t.Error("expected no-mode to be a precondition error")
	}
	if !IsPreconditionError(NewInsufficientDataError("mahalanobis", "singular covariance")) {
		t.Error("expected insufficient data to be a precondition error")
	}
	if !IsSelectorError(NewInvalidDetectorError("magic")) {
		t.Error("expected invalid detector to be a selector error")
	}
	if IsSelectorError(NewNotNumericError("name", "string")) {
		t.Error("not-numeric must not be a selector error")
	}
	if !errors.Is(NewUnsupportedConstantError("age", "numeric", "string"), ErrUnsupportedConstant) {
		t.Error("expected wrapped unsupported constant sentinel")
	}
}
