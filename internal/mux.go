package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// XMP tags read by Google Photos and Android galleries
const (
	TagMicroVideo                        = "XMP-GCamera:MicroVideo"
	TagMicroVideoVersion                 = "XMP-GCamera:MicroVideoVersion"
	TagMicroVideoOffset                  = "XMP-GCamera:MicroVideoOffset"
	TagMicroVideoPresentationTimestampUs = "XMP-GCamera:MicroVideoPresentationTimestampUs"

	DefaultPresentationTimestampUs = 1500000
)

// MotionPhotoTags are the values written before the video is appended.
// VideoOffset counts bytes from the end of the file.
type MotionPhotoTags struct {
	VideoOffset             int64
	PresentationTimestampUs int64
}

func (t MotionPhotoTags) Fields() map[string]int64 {
	return map[string]int64{
		TagMicroVideo:                        1,
		TagMicroVideoVersion:                 1,
		TagMicroVideoOffset:                  t.VideoOffset,
		TagMicroVideoPresentationTimestampUs: t.PresentationTimestampUs,
	}
}

type MuxResult struct {
	OutputPath  string `json:"output_path"`
	ByteLength  int64  `json:"byte_length"`
	VideoOffset int64  `json:"video_offset"`
}

// Muxer builds Motion Photos: tagged JPEG followed by the raw video bytes
type Muxer struct {
	Writer                  MetadataWriter
	PresentationTimestampUs int64
	Log                     *zap.Logger
}

// Mux writes dest atomically. On any failure dest is left untouched and the
// scratch file is removed.
func (m *Muxer) Mux(ctx context.Context, jpegBytes, videoBytes []byte, dest string) (MuxResult, error) {
	if mt := mimetype.Detect(jpegBytes); !mt.Is("image/jpeg") {
		return MuxResult{}, fmt.Errorf("mux %s: still is %s, not image/jpeg", dest, mt.String())
	}
	if mt := mimetype.Detect(videoBytes); !strings.HasPrefix(mt.String(), "video/") {
		m.logger().Warn("video payload not recognised, appending anyway",
			zap.String("dest", dest), zap.String("mime", mt.String()))
	}
	if err := ctx.Err(); err != nil {
		return MuxResult{}, err
	}

	dir := filepath.Dir(dest)
	stem := strings.TrimSuffix(filepath.Base(dest), filepath.Ext(dest))
	// exiftool picks its writer from the extension, so the scratch file keeps .jpg
	tmp, err := os.CreateTemp(dir, "."+stem+".*.jpg")
	if err != nil {
		return MuxResult{}, ioErr("create", dir, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(jpegBytes); err != nil {
		tmp.Close()
		return MuxResult{}, ioErr("write", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return MuxResult{}, ioErr("close", tmpPath, err)
	}

	pts := m.PresentationTimestampUs
	if pts == 0 {
		pts = DefaultPresentationTimestampUs
	}
	tags := MotionPhotoTags{VideoOffset: int64(len(videoBytes)), PresentationTimestampUs: pts}
	if err := m.Writer.WriteTags(ctx, tmpPath, tags.Fields()); err != nil {
		return MuxResult{}, err
	}

	n, err := appendVideo(tmpPath, videoBytes)
	if err != nil {
		return MuxResult{}, err
	}

	// CreateTemp makes 0600 files
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return MuxResult{}, ioErr("chmod", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return MuxResult{}, ioErr("rename", dest, err)
	}
	committed = true

	m.logger().Debug("muxed",
		zap.String("dest", dest),
		zap.Int64("bytes", n),
		zap.Int64("video_offset", tags.VideoOffset))

	return MuxResult{OutputPath: dest, ByteLength: n, VideoOffset: tags.VideoOffset}, nil
}

// appendVideo adds the video to the tagged JPEG and returns the final size
func appendVideo(path string, video []byte) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, ioErr("open", path, err)
	}
	if _, err := f.Write(video); err != nil {
		f.Close()
		return 0, ioErr("append", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return 0, ioErr("sync", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, ioErr("stat", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, ioErr("close", path, err)
	}
	return info.Size(), nil
}

func (m *Muxer) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}
