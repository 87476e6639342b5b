package internal

import (
	"sort"
	"testing"

	"github.com/spf13/afero"
)

func TestFsLister(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMemFile(t, fs, "/in/IMG_1.jpg", "x")
	writeMemFile(t, fs, "/in/IMG_1.mov", "x")
	writeMemFile(t, fs, "/in/sub/IMG_2.jpg", "x")
	writeMemFile(t, fs, "/in/sub/deeper/notes.txt", "x")

	testCases := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{"top level only", false, []string{"/in/IMG_1.jpg", "/in/IMG_1.mov"}},
		{"recursive", true, []string{"/in/IMG_1.jpg", "/in/IMG_1.mov", "/in/sub/IMG_2.jpg", "/in/sub/deeper/notes.txt"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FsLister{Fs: fs}.List("/in", tc.recursive)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			sort.Strings(got)
			if len(got) != len(tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Expected %v, got %v", tc.want, got)
					break
				}
			}
		})
	}
}

func TestFsLister_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMemFile(t, fs, "/file.txt", "x")

	if _, err := (FsLister{Fs: fs}).List("/missing", false); err == nil {
		t.Error("Expected error for missing root")
	}
	if _, err := (FsLister{Fs: fs}).List("/file.txt", false); err == nil {
		t.Error("Expected error for non-directory root")
	}
}

func TestScanFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMemFile(t, fs, "/in/IMG_1.HEIC", "x")
	writeMemFile(t, fs, "/in/notes.txt", "x")

	files, err := ScanFiles(FsLister{Fs: fs}, "/in", false)
	if err != nil {
		t.Fatalf("ScanFiles failed: %v", err)
	}
	kinds := map[Kind]int{}
	for _, f := range files {
		kinds[f.Kind]++
	}
	if kinds[KindImage] != 1 || kinds[KindOther] != 1 {
		t.Errorf("Expected one image and one other, got %v", kinds)
	}
}
