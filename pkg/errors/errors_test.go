package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		exitCode int
	}{
		{"nil", nil, http.StatusInternalServerError, 0},
		{"missing resource", MissingResource("vocabulary file", "outputs/v.txt"), http.StatusServiceUnavailable, 3},
		{"wrapped missing resource", fmt.Errorf("loading: %w", MissingResource("dir", "x")), http.StatusServiceUnavailable, 3},
		{"invalid input", InvalidInput("k must be >= 1, got %d", 0), http.StatusBadRequest, 2},
		{"bare malformed", fmt.Errorf("line 3: %w", ErrMalformedLine), http.StatusBadRequest, 1},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err != nil {
				if got := HTTPStatusCode(tt.err); got != tt.status {
					t.Errorf("HTTPStatusCode = %d, want %d", got, tt.status)
				}
			}
			if got := ExitCode(tt.err); got != tt.exitCode {
				t.Errorf("ExitCode = %d, want %d", got, tt.exitCode)
			}
		})
	}
}

func TestMissingResourceMessageNamesPath(t *testing.T) {
	err := MissingResource("document list", "Collection/Collection")
	want := "missing resource: document list not found: Collection/Collection"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !Is(err, ErrMissingResource) {
		t.Error("expected errors.Is ErrMissingResource")
	}
}
