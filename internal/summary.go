package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ClassificationSummary is what the user sees before deciding to proceed
type ClassificationSummary struct {
	Root               string         `json:"root"`
	TotalFiles         int            `json:"total_files"`
	Extensions         map[string]int `json:"extensions"`
	PairableBasenames  int            `json:"pairable_basenames"`
	ResolvedPairs      int            `json:"resolved_pairs"`
	ImagesWithoutVideo int            `json:"images_without_video"`
	VideosWithoutImage int            `json:"videos_without_image"`
	AmbiguousBasenames int            `json:"ambiguous_basenames"`
	Unsupported        int            `json:"unsupported_files"`
	Ambiguous          []Ambiguity    `json:"ambiguous,omitempty"`
}

// Summarize counts a scan. It touches no file.
func Summarize(root string, files []SourceFile, res Resolution) ClassificationSummary {
	s := ClassificationSummary{
		Root:               root,
		TotalFiles:         len(files),
		Extensions:         make(map[string]int),
		PairableBasenames:  res.PairableBasenames(),
		ResolvedPairs:      len(res.Pairs),
		ImagesWithoutVideo: len(res.ImagesWithoutVideo),
		VideosWithoutImage: len(res.VideosWithoutImage),
		AmbiguousBasenames: len(res.Ambiguous),
		Unsupported:        len(res.Others),
		Ambiguous:          res.Ambiguous,
	}
	for _, f := range files {
		s.Extensions[f.Extension]++
	}
	return s
}

// DisplaySummary prints the summary as a table or JSON
func DisplaySummary(w io.Writer, s ClassificationSummary, format string) error {
	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	}

	bold := color.New(color.Bold)
	warn := color.New(color.FgYellow)

	bold.Fprintf(w, "=== Motion Photo scan: %s ===\n\n", s.Root)
	fmt.Fprintf(w, "📊 Found %d files\n", s.TotalFiles)
	displayExtensionList(w, s.Extensions)

	fmt.Fprintf(w, "\n🔗 Pairing:\n")
	fmt.Fprintf(w, "  - Pairable basenames:   %d\n", s.PairableBasenames)
	color.New(color.FgGreen).Fprintf(w, "  - Resolved pairs:       %d\n", s.ResolvedPairs)
	fmt.Fprintf(w, "  - Images without video: %d\n", s.ImagesWithoutVideo)
	fmt.Fprintf(w, "  - Videos without image: %d\n", s.VideosWithoutImage)
	if s.AmbiguousBasenames > 0 {
		warn.Fprintf(w, "  - Ambiguous basenames:  %d\n", s.AmbiguousBasenames)
		for _, a := range s.Ambiguous {
			fmt.Fprintf(w, "      %s: %s\n", a.Stem, strings.Join(fileNames(a.Candidates()), ", "))
		}
	} else {
		fmt.Fprintf(w, "  - Ambiguous basenames:  0\n")
	}
	fmt.Fprintf(w, "  - Unsupported files:    %d\n", s.Unsupported)

	return nil
}

// DisplayDetails lists every group the resolver produced
func DisplayDetails(w io.Writer, res Resolution) {
	fmt.Fprintf(w, "\n🎞️  Pairs (%d):\n", len(res.Pairs))
	for _, p := range res.Pairs {
		fmt.Fprintf(w, "  - %s: %s + %s → %s\n", p.Stem, p.Image.Name(), p.Video.Name(), p.OutputName())
		alts := append(append([]SourceFile{}, p.AlternateImages...), p.AlternateVideos...)
		if len(alts) > 0 {
			fmt.Fprintf(w, "      alternates: %s\n", strings.Join(fileNames(alts), ", "))
		}
	}

	displayFileGroup(w, "📷 Images without video", res.ImagesWithoutVideo)
	displayFileGroup(w, "🎬 Videos without image", res.VideosWithoutImage)

	if len(res.Ambiguous) > 0 {
		fmt.Fprintf(w, "\n⚠️  Ambiguous (%d):\n", len(res.Ambiguous))
		for _, a := range res.Ambiguous {
			fmt.Fprintf(w, "  - %s: tied %s\n", a.Stem, strings.Join(fileNames(a.Candidates()), ", "))
		}
	}

	displayFileGroup(w, "❓ Unsupported", res.Others)
}

func displayFileGroup(w io.Writer, title string, files []SourceFile) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  - %s\n", f.Path)
	}
}

// displayExtensionList shows extensions by count, most common first
func displayExtensionList(w io.Writer, extensions map[string]int) {
	type extCount struct {
		ext   string
		count int
	}
	var extList []extCount
	for ext, count := range extensions {
		extList = append(extList, extCount{ext, count})
	}

	sort.Slice(extList, func(i, j int) bool {
		if extList[i].count != extList[j].count {
			return extList[i].count > extList[j].count
		}
		return extList[i].ext < extList[j].ext
	})

	for _, ext := range extList {
		// Remove dot and uppercase for display
		extName := strings.ToUpper(strings.TrimPrefix(ext.ext, "."))
		if extName == "" {
			extName = "(no extension)"
		}
		fmt.Fprintf(w, "    - %s: %d\n", extName, ext.count)
	}
}

func fileNames(files []SourceFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name())
	}
	return names
}
