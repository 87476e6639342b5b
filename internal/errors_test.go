package internal

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestCategorizeError_DiskSpace(t *testing.T) {
	err := errors.New("write failed: no space left on device")
	procErr := CategorizeError("/test/file.jpg", err)

	if procErr.Category != ErrorCategoryIO {
		t.Errorf("Expected IO category, got %s", procErr.Category)
	}
	if procErr.Severity != ErrorSeverityCritical {
		t.Errorf("Expected critical severity, got %s", procErr.Severity)
	}
	if !strings.Contains(procErr.Suggestion, "disk space") {
		t.Errorf("Expected disk space suggestion, got: %s", procErr.Suggestion)
	}
}

func TestCategorizeError_Permission(t *testing.T) {
	err := errors.New("open /library/file.jpg: permission denied")
	procErr := CategorizeError("/test/file.jpg", err)

	if procErr.Category != ErrorCategoryIO {
		t.Errorf("Expected IO category, got %s", procErr.Category)
	}
	if procErr.Severity != ErrorSeverityError {
		t.Errorf("Expected error severity, got %s", procErr.Severity)
	}
}

func TestCategorizeError_Sentinels(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		category ErrorCategory
		severity ErrorSeverity
	}{
		{"ambiguous", fmt.Errorf("IMG_1: %w", ErrAmbiguousPair), ErrorCategoryAmbiguous, ErrorSeverityWarning},
		{"conversion", fmt.Errorf("IMG_1.heic: %w", ErrConversionUnavailable), ErrorCategoryConversion, ErrorSeverityError},
		{"metadata", fmt.Errorf("IMG_1.jpg: %w", ErrMetadataWriteUnavailable), ErrorCategoryMetadata, ErrorSeverityError},
		{"conflict", fmt.Errorf("notes.txt: %w", ErrDestinationExists), ErrorCategoryConflict, ErrorSeverityError},
		{"output", fmt.Errorf("/out: %w", ErrOutputUnwritable), ErrorCategoryIO, ErrorSeverityCritical},
		{"io wrapper", &IOError{Op: "read", Path: "/x", Err: errors.New("boom")}, ErrorCategoryIO, ErrorSeverityError},
		{"unknown", errors.New("boom"), ErrorCategoryUnknown, ErrorSeverityError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			procErr := CategorizeError("/test/file", tc.err)
			if procErr.Category != tc.category {
				t.Errorf("Expected %s category, got %s", tc.category, procErr.Category)
			}
			if procErr.Severity != tc.severity {
				t.Errorf("Expected %s severity, got %s", tc.severity, procErr.Severity)
			}
			if !errors.Is(procErr, tc.err) {
				t.Errorf("Expected ProcessError to unwrap to the original error")
			}
		})
	}
}

func TestCategorizeError_Nil(t *testing.T) {
	if CategorizeError("/x", nil) != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestIOError_Unwrap(t *testing.T) {
	err := ioErr("open", "/missing", os.ErrNotExist)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected IOError to unwrap to os.ErrNotExist, got %v", err)
	}
	if ioErr("open", "/x", nil) != nil {
		t.Error("Expected nil IOError for nil cause")
	}
}

func TestErrorStats_ShouldAbort_Critical(t *testing.T) {
	stats := NewErrorStats()

	stats.Add(&ProcessError{
		FilePath: "/test/file.jpg",
		Category: ErrorCategoryIO,
		Severity: ErrorSeverityCritical,
	})

	shouldAbort, reason := stats.ShouldAbort()
	if !shouldAbort {
		t.Error("Expected abort on critical error")
	}
	if !strings.Contains(reason, "Critical") {
		t.Errorf("Expected 'Critical' in reason, got: %s", reason)
	}
}

func TestErrorStats_NoAbortOnPairErrors(t *testing.T) {
	stats := NewErrorStats()

	for i := 0; i < 20; i++ {
		stats.Add(&ProcessError{
			FilePath: "/test/file.jpg",
			Category: ErrorCategoryMetadata,
			Severity: ErrorSeverityError,
		})
	}

	if shouldAbort, _ := stats.ShouldAbort(); shouldAbort {
		t.Error("Expected per-pair errors to never abort the batch")
	}
	if len(stats.LastErrors) != 5 {
		t.Errorf("Expected last 5 errors kept, got %d", len(stats.LastErrors))
	}
}

func TestErrorStats_GenerateReport(t *testing.T) {
	stats := NewErrorStats()

	stats.Add(&ProcessError{
		FilePath:    "/test/file1.jpg",
		Category:    ErrorCategoryIO,
		Severity:    ErrorSeverityError,
		OriginalErr: errors.New("I/O error"),
		Suggestion:  "Check disk health",
	})

	stats.Add(&ProcessError{
		FilePath:    "/test/file2.heic",
		Category:    ErrorCategoryConversion,
		Severity:    ErrorSeverityError,
		OriginalErr: ErrConversionUnavailable,
		Suggestion:  "Install ffmpeg",
	})

	report := stats.GenerateReport()

	for _, want := range []string{"Run encountered", "Error categories", "Recent errors", "Suggested next steps", "file1.jpg", "Check disk health", "ffmpeg"} {
		if !strings.Contains(report, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}

func TestErrorStats_ByCategory(t *testing.T) {
	stats := NewErrorStats()

	stats.Add(&ProcessError{Category: ErrorCategoryIO, Severity: ErrorSeverityError, OriginalErr: errors.New("test")})
	stats.Add(&ProcessError{Category: ErrorCategoryIO, Severity: ErrorSeverityError, OriginalErr: errors.New("test")})
	stats.Add(&ProcessError{Category: ErrorCategoryMetadata, Severity: ErrorSeverityError, OriginalErr: errors.New("test")})

	if stats.ByCategory[ErrorCategoryIO] != 2 {
		t.Errorf("Expected 2 IO errors, got %d", stats.ByCategory[ErrorCategoryIO])
	}
	if stats.ByCategory[ErrorCategoryMetadata] != 1 {
		t.Errorf("Expected 1 metadata error, got %d", stats.ByCategory[ErrorCategoryMetadata])
	}
}
