package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Session is one migration run's manifest: an append-only JSONL event log
// under <manifest_dir>/<session id>/manifest.jsonl.
type Session struct {
	ID           string   // 2025-01-15-103045-<run id prefix>
	RunID        string   // Full run UUID, shared with the run report
	Dir          string   // Full path to session directory
	ManifestFile *os.File // Open file handle for manifest.jsonl
	InputDir     string
	OutputDir    string
	stats        SessionStats
}

// SessionStats tracks counts written to the manifest
type SessionStats struct {
	TotalScanned int
	Muxed        int
	Copied       int
	Skipped      int
	Errors       int
}

// ManifestEvent represents a single event in the manifest log
type ManifestEvent struct {
	Event  string `json:"event"`
	Ts     string `json:"ts"`
	Stem   string `json:"stem,omitempty"`
	Src    string `json:"src,omitempty"`
	Video  string `json:"video,omitempty"`
	Dest   string `json:"dest,omitempty"`
	Size   int64  `json:"size,omitempty"`
	Offset int64  `json:"video_offset,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`

	ErrorCategory   string `json:"error_category,omitempty"`
	ErrorSeverity   string `json:"error_severity,omitempty"`
	ErrorSuggestion string `json:"error_suggestion,omitempty"`

	// Run start/end fields
	RunID        string `json:"run_id,omitempty"`
	InputDir     string `json:"input_dir,omitempty"`
	OutputDir    string `json:"output_dir,omitempty"`
	TotalFiles   int    `json:"total_files,omitempty"`
	TotalPairs   int    `json:"total_pairs,omitempty"`
	Muxed        int    `json:"muxed,omitempty"`
	Copied       int    `json:"copied,omitempty"`
	SkippedCount int    `json:"skipped,omitempty"`
	ErrorCount   int    `json:"errors,omitempty"`
	Canceled     bool   `json:"canceled,omitempty"`
}

// NewSession creates the session directory and opens its manifest
func NewSession(manifestRoot, runID, inputDir, outputDir string) (*Session, error) {
	sessionID := time.Now().Format("2006-01-02-150405")
	if len(runID) >= 8 {
		sessionID += "-" + runID[:8]
	}
	sessionDir := filepath.Join(manifestRoot, sessionID)

	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	manifestPath := filepath.Join(sessionDir, "manifest.jsonl")
	manifestFile, err := os.OpenFile(manifestPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest file: %w", err)
	}

	return &Session{
		ID:           sessionID,
		RunID:        runID,
		Dir:          sessionDir,
		ManifestFile: manifestFile,
		InputDir:     inputDir,
		OutputDir:    outputDir,
	}, nil
}

func (s *Session) LogRunStart(totalFiles, totalPairs int) error {
	s.stats.TotalScanned = totalFiles
	return s.writeEvent(ManifestEvent{
		Event:      "run_start",
		RunID:      s.RunID,
		InputDir:   s.InputDir,
		OutputDir:  s.OutputDir,
		TotalFiles: totalFiles,
		TotalPairs: totalPairs,
	})
}

func (s *Session) LogMuxed(p Pair, res MuxResult) error {
	s.stats.Muxed++
	return s.writeEvent(ManifestEvent{
		Event:  "muxed",
		Stem:   p.Stem,
		Src:    p.Image.Path,
		Video:  p.Video.Path,
		Dest:   res.OutputPath,
		Size:   res.ByteLength,
		Offset: res.VideoOffset,
	})
}

func (s *Session) LogCopied(src, dest string, reason string) error {
	s.stats.Copied++
	return s.writeEvent(ManifestEvent{
		Event:  "copied",
		Src:    src,
		Dest:   dest,
		Reason: reason,
	})
}

func (s *Session) LogSkipped(src, reason string) error {
	s.stats.Skipped++
	return s.writeEvent(ManifestEvent{
		Event:  "skipped",
		Src:    src,
		Reason: reason,
	})
}

// LogError logs a categorized error with full details
func (s *Session) LogError(src string, procErr *ProcessError) error {
	s.stats.Errors++
	return s.writeEvent(ManifestEvent{
		Event:           "error",
		Src:             src,
		Error:           procErr.OriginalErr.Error(),
		ErrorCategory:   string(procErr.Category),
		ErrorSeverity:   string(procErr.Severity),
		ErrorSuggestion: procErr.Suggestion,
	})
}

func (s *Session) LogRunEnd(canceled bool) error {
	return s.writeEvent(ManifestEvent{
		Event:        "run_end",
		RunID:        s.RunID,
		TotalFiles:   s.stats.TotalScanned,
		Muxed:        s.stats.Muxed,
		Copied:       s.stats.Copied,
		SkippedCount: s.stats.Skipped,
		ErrorCount:   s.stats.Errors,
		Canceled:     canceled,
	})
}

// GetStats returns the current session statistics
func (s *Session) GetStats() SessionStats {
	return s.stats
}

// Close closes the manifest file
func (s *Session) Close() error {
	if s.ManifestFile != nil {
		err := s.ManifestFile.Close()
		s.ManifestFile = nil
		return err
	}
	return nil
}

// writeEvent writes a manifest event as a JSON line and syncs it
func (s *Session) writeEvent(event ManifestEvent) error {
	event.Ts = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := s.ManifestFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to manifest: %w", err)
	}

	return s.ManifestFile.Sync()
}
