package internal

import (
	"path/filepath"
	"strings"
)

// Kind is the semantic kind of a scanned file
type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "other"
	}
}

// Extension → kind table. Anything not listed is KindOther.
var kindByExtension = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".heic": KindImage,
	".png":  KindImage,
	".mov":  KindVideo,
	".mp4":  KindVideo,
}

// SourceFile is one scanned entry. Extension is lowercased and keeps its leading dot.
type SourceFile struct {
	Path      string `json:"path"`
	Stem      string `json:"stem"`
	Extension string `json:"extension"`
	Kind      Kind   `json:"-"`
}

// Name returns the file name without directories
func (f SourceFile) Name() string {
	return filepath.Base(f.Path)
}

// IsJPEG reports whether the file already holds JPEG data by extension
func (f SourceFile) IsJPEG() bool {
	return f.Extension == ".jpg" || f.Extension == ".jpeg"
}

// Classify inspects only the path; it never opens the file and never fails.
func Classify(path string) SourceFile {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return SourceFile{
		Path:      path,
		Stem:      strings.TrimSuffix(base, ext),
		Extension: strings.ToLower(ext),
		Kind:      kindByExtension[strings.ToLower(ext)],
	}
}

// ClassifyAll classifies every path, keeping input order
func ClassifyAll(paths []string) []SourceFile {
	files := make([]SourceFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, Classify(p))
	}
	return files
}
