package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// isolateConfig points config and cache lookups at a temp dir
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(resetFlags)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags undoes flag values left behind by an earlier Execute
func resetFlags() {
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				sv.Replace(nil)
			} else {
				f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
}

func createInput(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "input")
	for name, content := range files {
		path := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(path), 0755)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestScan_JSON(t *testing.T) {
	isolateConfig(t)
	input := createInput(t, map[string]string{
		"IMG_1.heic": "still",
		"IMG_1.mov":  "video",
		"IMG_2.jpg":  "still",
		"notes.txt":  "text",
	})

	out, err := runCLI(t, "", "scan", input, "--format", "json")
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}

	var summary map[string]interface{}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("Expected JSON output, got %v:\n%s", err, out)
	}
	if summary["total_files"].(float64) != 4 {
		t.Errorf("Expected 4 files, got %v", summary["total_files"])
	}
	if summary["resolved_pairs"].(float64) != 1 {
		t.Errorf("Expected 1 pair, got %v", summary["resolved_pairs"])
	}
	if summary["unsupported_files"].(float64) != 1 {
		t.Errorf("Expected 1 unsupported file, got %v", summary["unsupported_files"])
	}
}

func TestScan_MissingFolder(t *testing.T) {
	isolateConfig(t)
	if _, err := runCLI(t, "", "scan", filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing folder")
	}
}

func TestMigrate_CopiesUnpaired(t *testing.T) {
	home := isolateConfig(t)
	input := createInput(t, map[string]string{
		"IMG_2.jpg": "still",
		"clip.mp4":  "video",
		"notes.txt": "text",
	})
	output := filepath.Join(t.TempDir(), "output")

	out, err := runCLI(t, "", "migrate", input, output, "--yes")
	if err != nil {
		t.Fatalf("migrate failed: %v\n%s", err, out)
	}

	for _, name := range []string{"IMG_2.jpg", "clip.mp4", "notes.txt"} {
		src, _ := os.ReadFile(filepath.Join(input, name))
		dst, err := os.ReadFile(filepath.Join(output, name))
		if err != nil {
			t.Errorf("Expected %s in output: %v", name, err)
			continue
		}
		if !bytes.Equal(src, dst) {
			t.Errorf("Expected %s copied byte for byte", name)
		}
	}

	if !strings.Contains(out, "Copied:        3") {
		t.Errorf("Expected run report, got:\n%s", out)
	}

	runs, err := os.ReadDir(filepath.Join(home, "cache", "motionmux", "runs"))
	if err != nil || len(runs) != 1 {
		t.Errorf("Expected one run manifest, got %d (%v)", len(runs), err)
	}
}

func TestMigrate_Abort(t *testing.T) {
	isolateConfig(t)
	input := createInput(t, map[string]string{"IMG_2.jpg": "still"})
	output := filepath.Join(t.TempDir(), "output")

	out, err := runCLI(t, "2\n3\n", "migrate", input, output, "--yes=false")
	if err != nil {
		t.Fatalf("migrate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Aborted, nothing written.") {
		t.Errorf("Expected abort message, got:\n%s", out)
	}
	if !strings.Contains(out, "Images without video (1)") {
		t.Errorf("Expected listing before abort, got:\n%s", out)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("Expected no output folder after abort")
	}
}

func TestMigrate_PathChecks(t *testing.T) {
	isolateConfig(t)
	input := createInput(t, map[string]string{"IMG_2.jpg": "still"})

	testCases := []struct {
		name string
		args []string
	}{
		{"missing output", []string{"migrate", input, "--yes"}},
		{"output equals input", []string{"migrate", input, input, "--yes"}},
		{"output inside recursive input", []string{"migrate", input, filepath.Join(input, "out"), "--yes", "--recurse"}},
		{"bad conflict policy", []string{"migrate", input, input + "-out", "--yes", "--on-conflict", "rename"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runCLI(t, "", tc.args...); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestMigrate_DryRun(t *testing.T) {
	isolateConfig(t)
	input := createInput(t, map[string]string{
		"IMG_1.heic": "still",
		"IMG_1.mov":  "video",
	})
	output := filepath.Join(t.TempDir(), "output")

	out, err := runCLI(t, "", "migrate", input, output, "--dry-run", "--details")
	if err != nil {
		t.Fatalf("migrate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "IMG_1.heic + IMG_1.mov") {
		t.Errorf("Expected pair details, got:\n%s", out)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("Expected dry run to write nothing")
	}
}
