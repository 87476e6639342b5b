package internal

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// CaptureTime returns the EXIF DateTimeOriginal of an image, falling back to
// the file modification time when the file has no usable EXIF (HEIC, PNG).
func CaptureTime(path string) (time.Time, error) {
	if t, err := getExifDateOriginal(path); err == nil && !t.IsZero() {
		return t, nil
	}
	return getFileModTime(path)
}

// getExifDateOriginal extracts the DateTimeOriginal from EXIF metadata.
// EXIF carries no zone, so the camera's wall clock is read as local time.
func getExifDateOriginal(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, err
	}

	dateStr, err := tag.StringVal()
	if err != nil {
		return time.Time{}, err
	}

	return time.ParseInLocation("2006:01:02 15:04:05", dateStr, time.Local)
}

// getFileModTime fallback to file modification time
func getFileModTime(path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}
