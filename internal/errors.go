package internal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrAmbiguousPair            = errors.New("ambiguous pair: several candidates share the top priority")
	ErrConversionUnavailable    = errors.New("conversion unavailable: no converter produced JPEG data")
	ErrMetadataWriteUnavailable = errors.New("metadata write unavailable: no exiftool backend could run")
	ErrDestinationExists        = errors.New("destination exists with different content")
	ErrOutputUnwritable         = errors.New("output directory is not writable")
)

// IOError is a read/write/copy failure scoped to one file
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func ioErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// ErrorCategory represents the type of error encountered
type ErrorCategory string

const (
	ErrorCategoryAmbiguous  ErrorCategory = "ambiguous_pair"         // Same-tier candidates
	ErrorCategoryConversion ErrorCategory = "conversion_unavailable" // No converter produced a JPEG
	ErrorCategoryMetadata   ErrorCategory = "metadata_write"         // exiftool missing or failed
	ErrorCategoryIO         ErrorCategory = "io_error"               // File system, permissions, disk space
	ErrorCategoryConflict   ErrorCategory = "destination_exists"     // Copy would overwrite other content
	ErrorCategoryUnknown    ErrorCategory = "unknown_error"
)

// ErrorSeverity indicates how critical the error is
type ErrorSeverity string

const (
	ErrorSeverityCritical ErrorSeverity = "critical" // Output root unusable (disk full, read-only)
	ErrorSeverityError    ErrorSeverity = "error"    // One pair or file failed
	ErrorSeverityWarning  ErrorSeverity = "warning"  // Skipped by policy, nothing lost
)

// ProcessError represents a categorized error for one pair or file
type ProcessError struct {
	FilePath    string
	Category    ErrorCategory
	Severity    ErrorSeverity
	OriginalErr error
	Suggestion  string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("[%s/%s] %s: %v", e.Severity, e.Category, e.FilePath, e.OriginalErr)
}

func (e *ProcessError) Unwrap() error { return e.OriginalErr }

// CategorizeError maps an error to a category, severity and suggestion.
// Sentinels win over message heuristics.
func CategorizeError(filePath string, err error) *ProcessError {
	if err == nil {
		return nil
	}

	procErr := &ProcessError{
		FilePath:    filePath,
		OriginalErr: err,
	}

	switch {
	case errors.Is(err, ErrAmbiguousPair):
		procErr.Category = ErrorCategoryAmbiguous
		procErr.Severity = ErrorSeverityWarning
		procErr.Suggestion = "Rename or remove the duplicate candidates so one file per kind remains"
		return procErr

	case errors.Is(err, ErrConversionUnavailable):
		procErr.Category = ErrorCategoryConversion
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Install sips (macOS) or ffmpeg to convert HEIC/PNG stills to JPEG"
		return procErr

	case errors.Is(err, ErrMetadataWriteUnavailable):
		procErr.Category = ErrorCategoryMetadata
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Install exiftool and make sure it is on PATH (or set exiftool_path)"
		return procErr

	case errors.Is(err, ErrDestinationExists):
		procErr.Category = ErrorCategoryConflict
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Remove the existing file or rerun with --on-conflict skip"
		return procErr

	case errors.Is(err, ErrOutputUnwritable):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "Choose an output directory you can write to"
		return procErr
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "no space left"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "Free up disk space on the destination drive and retry"

	case strings.Contains(errStr, "read-only file system"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityCritical
		procErr.Suggestion = "Destination filesystem is read-only - check mount options"

	case strings.Contains(errStr, "permission denied"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Check file permissions on both source and destination directories"

	case strings.Contains(errStr, "no such file"):
		procErr.Category = ErrorCategoryIO
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "Source file disappeared during the run - check if the drive disconnected"

	case strings.Contains(errStr, "exiftool") || strings.Contains(errStr, "metadata"):
		procErr.Category = ErrorCategoryMetadata
		procErr.Severity = ErrorSeverityError
		procErr.Suggestion = "exiftool rejected the file - run it by hand on the photo to see why"

	default:
		var ioe *IOError
		if errors.As(err, &ioe) {
			procErr.Category = ErrorCategoryIO
			procErr.Severity = ErrorSeverityError
			procErr.Suggestion = "I/O error - check the source and destination paths"
		} else {
			procErr.Category = ErrorCategoryUnknown
			procErr.Severity = ErrorSeverityError
			procErr.Suggestion = "Unexpected error - check logs for details"
		}
	}

	return procErr
}

// ErrorStats tracks error statistics during a run
type ErrorStats struct {
	Total      int
	Critical   int
	Errors     int
	Warnings   int
	ByCategory map[ErrorCategory]int
	LastErrors []*ProcessError // Last 5 errors for quick diagnosis
}

func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		ByCategory: make(map[ErrorCategory]int),
		LastErrors: make([]*ProcessError, 0, 5),
	}
}

func (s *ErrorStats) Add(err *ProcessError) {
	s.Total++
	s.ByCategory[err.Category]++

	switch err.Severity {
	case ErrorSeverityCritical:
		s.Critical++
	case ErrorSeverityError:
		s.Errors++
	case ErrorSeverityWarning:
		s.Warnings++
	}

	if len(s.LastErrors) >= 5 {
		s.LastErrors = s.LastErrors[1:]
	}
	s.LastErrors = append(s.LastErrors, err)
}

// ShouldAbort returns true once the output root can no longer take writes.
// Everything else is per pair and the batch keeps going.
func (s *ErrorStats) ShouldAbort() (bool, string) {
	if s.Critical > 0 {
		return true, "Critical output error detected - aborting to prevent data loss"
	}
	return false, ""
}

// GenerateReport creates a human-readable error report
func (s *ErrorStats) GenerateReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("\nRun encountered %d problems:\n\n", s.Total))

	if s.Critical > 0 {
		report.WriteString(fmt.Sprintf("  Critical: %d (output unusable)\n", s.Critical))
	}
	if s.Errors > 0 {
		report.WriteString(fmt.Sprintf("  Errors:   %d (pair or file failed)\n", s.Errors))
	}
	if s.Warnings > 0 {
		report.WriteString(fmt.Sprintf("  Warnings: %d (skipped by policy)\n", s.Warnings))
	}

	report.WriteString("\nError categories:\n")
	cats := make([]string, 0, len(s.ByCategory))
	for cat := range s.ByCategory {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)
	for _, cat := range cats {
		report.WriteString(fmt.Sprintf("  - %s: %d\n", cat, s.ByCategory[ErrorCategory(cat)]))
	}

	report.WriteString("\nRecent errors:\n")
	for i, err := range s.LastErrors {
		report.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, err.FilePath))
		report.WriteString(fmt.Sprintf("   Category: %s | Severity: %s\n", err.Category, err.Severity))
		report.WriteString(fmt.Sprintf("   Error: %v\n", err.OriginalErr))
		if err.Suggestion != "" {
			report.WriteString(fmt.Sprintf("   Suggestion: %s\n", err.Suggestion))
		}
	}

	report.WriteString("\n")
	report.WriteString(s.generateSuggestions())

	return report.String()
}

func (s *ErrorStats) generateSuggestions() string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggested next steps:\n")

	if s.ByCategory[ErrorCategoryMetadata] > 0 {
		suggestions.WriteString("  - Check that `exiftool -ver` works in this shell\n")
	}
	if s.ByCategory[ErrorCategoryConversion] > 0 {
		suggestions.WriteString("  - Install ffmpeg (or use macOS sips) for HEIC stills\n")
	}
	if s.ByCategory[ErrorCategoryIO] > 0 {
		suggestions.WriteString("  - Check disk space and permissions\n")
	}
	if s.ByCategory[ErrorCategoryConflict] > 0 {
		suggestions.WriteString("  - Clean the output directory or rerun with --on-conflict skip\n")
	}
	if s.ByCategory[ErrorCategoryAmbiguous] > 0 {
		suggestions.WriteString("  - Run `motionmux scan --details` to see tied candidates\n")
	}

	suggestions.WriteString("  - Check the run manifest for the full event log\n")

	return suggestions.String()
}
