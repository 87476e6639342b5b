package internal

import (
	"sort"
	"strings"
)

// Priority tiers, lower is preferred. .jpg and .jpeg share the jpeg tier.
var imageTiers = map[string]int{
	".jpg":  0,
	".jpeg": 0,
	".heic": 1,
	".png":  2,
}

var videoTiers = map[string]int{
	".mov": 0,
	".mp4": 1,
}

// BasenameGroup collects the image and video candidates sharing a stem.
// Stems are compared case-insensitively; Stem keeps the first spelling seen.
type BasenameGroup struct {
	Stem   string
	Images []SourceFile
	Videos []SourceFile
}

// Pair is a resolved image+video couple. Alternates are informational only.
type Pair struct {
	Stem            string       `json:"stem"`
	Image           SourceFile   `json:"image"`
	Video           SourceFile   `json:"video"`
	AlternateImages []SourceFile `json:"alternate_images,omitempty"`
	AlternateVideos []SourceFile `json:"alternate_videos,omitempty"`
}

// OutputName is the Motion Photo file name, always <stem>.jpg
func (p Pair) OutputName() string {
	return p.Stem + ".jpg"
}

// Ambiguity describes a basename that could not be paired because more than one
// candidate shares the winning tier.
type Ambiguity struct {
	Stem       string       `json:"stem"`
	TiedImages []SourceFile `json:"tied_images,omitempty"`
	TiedVideos []SourceFile `json:"tied_videos,omitempty"`
	Files      []SourceFile `json:"files"`
}

// Candidates returns the tied files of both kinds
func (a Ambiguity) Candidates() []SourceFile {
	out := make([]SourceFile, 0, len(a.TiedImages)+len(a.TiedVideos))
	out = append(out, a.TiedImages...)
	return append(out, a.TiedVideos...)
}

// Resolution is the output of Resolve. Every list keeps scan order.
type Resolution struct {
	Pairs              []Pair       `json:"pairs"`
	ImagesWithoutVideo []SourceFile `json:"images_without_video"`
	VideosWithoutImage []SourceFile `json:"videos_without_image"`
	Ambiguous          []Ambiguity  `json:"ambiguous"`
	Others             []SourceFile `json:"others"`
}

// PairableBasenames counts basenames that had both an image and a video
// candidate, whether or not they resolved.
func (r Resolution) PairableBasenames() int {
	return len(r.Pairs) + len(r.Ambiguous)
}

// Resolve groups files by stem and picks the preferred image and video per group.
func Resolve(files []SourceFile) Resolution {
	var res Resolution
	var order []string
	groups := make(map[string]*BasenameGroup)

	for _, f := range files {
		if f.Kind == KindOther {
			res.Others = append(res.Others, f)
			continue
		}
		key := strings.ToLower(f.Stem)
		g, ok := groups[key]
		if !ok {
			g = &BasenameGroup{Stem: f.Stem}
			groups[key] = g
			order = append(order, key)
		}
		if f.Kind == KindImage {
			g.Images = append(g.Images, f)
		} else {
			g.Videos = append(g.Videos, f)
		}
	}

	for _, key := range order {
		g := groups[key]
		switch {
		case len(g.Images) > 0 && len(g.Videos) > 0:
			img, imgAlts, imgTied := choose(g.Images, imageTiers)
			vid, vidAlts, vidTied := choose(g.Videos, videoTiers)
			if len(imgTied) > 1 || len(vidTied) > 1 {
				a := Ambiguity{Stem: g.Stem}
				if len(imgTied) > 1 {
					a.TiedImages = imgTied
				}
				if len(vidTied) > 1 {
					a.TiedVideos = vidTied
				}
				a.Files = append(append(a.Files, g.Images...), g.Videos...)
				res.Ambiguous = append(res.Ambiguous, a)
				continue
			}
			res.Pairs = append(res.Pairs, Pair{
				Stem:            g.Stem,
				Image:           img,
				Video:           vid,
				AlternateImages: imgAlts,
				AlternateVideos: vidAlts,
			})
		case len(g.Images) > 0:
			res.ImagesWithoutVideo = append(res.ImagesWithoutVideo, g.Images...)
		default:
			res.VideosWithoutImage = append(res.VideosWithoutImage, g.Videos...)
		}
	}

	return res
}

// choose returns the preferred candidate, the lower-tier alternates, and every
// candidate in the winning tier. A winning tier with more than one member has
// no defined tie-break; callers treat it as ambiguous.
func choose(candidates []SourceFile, tiers map[string]int) (SourceFile, []SourceFile, []SourceFile) {
	sorted := make([]SourceFile, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return tiers[sorted[i].Extension] < tiers[sorted[j].Extension]
	})

	top := tiers[sorted[0].Extension]
	var tied []SourceFile
	var alternates []SourceFile
	for _, c := range sorted {
		if tiers[c.Extension] == top {
			tied = append(tied, c)
		} else {
			alternates = append(alternates, c)
		}
	}
	return sorted[0], alternates, tied
}
