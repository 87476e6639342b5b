package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRunReport_Failed(t *testing.T) {
	r := NewRunReport("/in", "/out")
	r.AddSkipped("/in/IMG_1.png", "IMG_1", "alternate of pair IMG_1")
	r.AddFailure("IMG_3", CategorizeError("IMG_3", ErrAmbiguousPair))
	r.AddFailure("IMG_4", CategorizeError("/in/IMG_4.heic", ErrConversionUnavailable))

	if r.Failed() != 1 {
		t.Errorf("Expected 1 failure, got %d", r.Failed())
	}
	if len(r.Skipped) != 3 {
		t.Errorf("Expected 3 skipped items, got %d", len(r.Skipped))
	}
	if r.Errors.Total != 2 {
		t.Errorf("Expected 2 recorded errors, got %d", r.Errors.Total)
	}
	if r.RunID == "" {
		t.Error("Expected a run id")
	}
}

func TestDisplayReport(t *testing.T) {
	r := NewRunReport("/in", "/out")
	r.AddMuxed(Pair{Stem: "IMG_1", Image: Classify("/in/IMG_1.heic"), Video: Classify("/in/IMG_1.mov")},
		MuxResult{OutputPath: "/out/IMG_1.jpg", ByteLength: 2048, VideoOffset: 1024})
	r.AddCopied("/in/notes.txt", "/out/notes.txt", true)
	r.AddFailure("IMG_4", CategorizeError("/in/IMG_4.heic", errors.New("exiftool crashed")))

	var buf bytes.Buffer
	if err := DisplayReport(&buf, r, FormatTable); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Motion Photos: 1 (2.0 kB)", "1 already present", "Failed:        1", "IMG_4.heic", "Suggested next steps"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in report, got:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := DisplayReport(&buf, r, FormatJSON); err != nil {
		t.Fatal(err)
	}
	var decoded RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON: %v", err)
	}
	if decoded.RunID != r.RunID || len(decoded.Muxed) != 1 {
		t.Errorf("Unexpected JSON report: %+v", decoded)
	}
}
