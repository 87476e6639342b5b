package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeWriter records tag writes instead of running exiftool
type fakeWriter struct {
	calls []map[string]int64
	paths []string
	err   error
}

func (w *fakeWriter) WriteTags(ctx context.Context, path string, tags map[string]int64) error {
	w.paths = append(w.paths, path)
	w.calls = append(w.calls, tags)
	return w.err
}

var videoFixture = []byte("\x00\x00\x00\x14ftypqt  \x00\x00\x00\x00qt  fake movie payload")

func TestMux_Layout(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "IMG_1.jpg")
	still := jpegFixture(t)
	w := &fakeWriter{}
	m := &Muxer{Writer: w}

	res, err := m.Mux(context.Background(), still, videoFixture, dest)
	if err != nil {
		t.Fatalf("Mux failed: %v", err)
	}

	out, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, still) {
		t.Error("Expected output to start with the JPEG")
	}
	if !bytes.HasSuffix(out, videoFixture) {
		t.Error("Expected output to end with the video bytes")
	}
	if res.ByteLength != int64(len(out)) {
		t.Errorf("Expected byte length %d, got %d", len(out), res.ByteLength)
	}
	if res.VideoOffset != int64(len(videoFixture)) {
		t.Errorf("Expected video offset %d, got %d", len(videoFixture), res.VideoOffset)
	}
	if res.OutputPath != dest {
		t.Errorf("Expected output path %s, got %s", dest, res.OutputPath)
	}

	if len(w.calls) != 1 {
		t.Fatalf("Expected one metadata write, got %d", len(w.calls))
	}
	tags := w.calls[0]
	want := map[string]int64{
		TagMicroVideo:                        1,
		TagMicroVideoVersion:                 1,
		TagMicroVideoOffset:                  int64(len(videoFixture)),
		TagMicroVideoPresentationTimestampUs: DefaultPresentationTimestampUs,
	}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("Expected %s=%d, got %d", k, v, tags[k])
		}
	}
	if !strings.HasSuffix(w.paths[0], ".jpg") {
		t.Errorf("Expected tags written to a .jpg scratch file, got %s", w.paths[0])
	}
	if w.paths[0] == dest {
		t.Error("Expected tags written before the file reaches its final name")
	}

	info, _ := os.Stat(dest)
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestMux_PresentationTimestamp(t *testing.T) {
	w := &fakeWriter{}
	m := &Muxer{Writer: w, PresentationTimestampUs: 250000}
	if _, err := m.Mux(context.Background(), jpegFixture(t), videoFixture, filepath.Join(t.TempDir(), "a.jpg")); err != nil {
		t.Fatalf("Mux failed: %v", err)
	}
	if got := w.calls[0][TagMicroVideoPresentationTimestampUs]; got != 250000 {
		t.Errorf("Expected 250000, got %d", got)
	}
}

func TestMux_WriterFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "IMG_1.jpg")
	m := &Muxer{Writer: &fakeWriter{err: ErrMetadataWriteUnavailable}}

	_, err := m.Mux(context.Background(), jpegFixture(t), videoFixture, dest)
	if !errors.Is(err, ErrMetadataWriteUnavailable) {
		t.Fatalf("Expected ErrMetadataWriteUnavailable, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no files left behind, got %d", len(entries))
	}
}

func TestMux_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "IMG_1.jpg")
	writeFile(t, dest, []byte("old contents"))

	m := &Muxer{Writer: &fakeWriter{}}
	if _, err := m.Mux(context.Background(), jpegFixture(t), videoFixture, dest); err != nil {
		t.Fatalf("Mux failed: %v", err)
	}
	out, _ := os.ReadFile(dest)
	if bytes.Equal(out, []byte("old contents")) {
		t.Error("Expected existing output replaced")
	}
}

func TestMux_RejectsNonJPEG(t *testing.T) {
	dir := t.TempDir()
	w := &fakeWriter{}
	m := &Muxer{Writer: w}

	if _, err := m.Mux(context.Background(), pngFixture(t), videoFixture, filepath.Join(dir, "a.jpg")); err == nil {
		t.Error("Expected error for PNG still")
	}
	if len(w.calls) != 0 {
		t.Error("Expected no metadata write for rejected still")
	}
}

func TestMux_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "IMG_1.jpg")
	still := jpegFixture(t)
	m := &Muxer{Writer: &fakeWriter{}}

	m.Mux(context.Background(), still, videoFixture, dest)
	first, _ := os.ReadFile(dest)
	m.Mux(context.Background(), still, videoFixture, dest)
	second, _ := os.ReadFile(dest)

	if !bytes.Equal(first, second) {
		t.Error("Expected identical output for identical inputs")
	}
}
