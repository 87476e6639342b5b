package internal

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CopyOutcome tells what CopyVerbatim did with a file
type CopyOutcome int

const (
	CopyDone CopyOutcome = iota
	CopyAlreadyPresent
	CopySkippedConflict
)

func (o CopyOutcome) String() string {
	switch o {
	case CopyDone:
		return "copied"
	case CopyAlreadyPresent:
		return "already present"
	case CopySkippedConflict:
		return "skipped (conflict)"
	default:
		return "unknown"
	}
}

// fileHash computes SHA256 hash of a file content
func fileHash(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// CopyVerbatim copies src to dest byte for byte and never overwrites.
// An identical dest counts as already present; a different one is resolved
// by onConflict (ConflictFail or ConflictSkip).
func CopyVerbatim(fs afero.Fs, src, dest, onConflict string) (CopyOutcome, error) {
	if _, err := fs.Stat(dest); err == nil {
		srcHash, err := fileHash(fs, src)
		if err != nil {
			return CopyDone, ioErr("hash", src, err)
		}
		destHash, err := fileHash(fs, dest)
		if err != nil {
			return CopyDone, ioErr("hash", dest, err)
		}
		if srcHash == destHash {
			return CopyAlreadyPresent, nil
		}
		if onConflict == ConflictSkip {
			return CopySkippedConflict, nil
		}
		return CopyDone, fmt.Errorf("%s: %w", dest, ErrDestinationExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return CopyDone, ioErr("stat", dest, err)
	}

	if err := copyFileAtomic(fs, src, dest); err != nil {
		return CopyDone, fmt.Errorf("failed to copy file %s to %s: %w", src, dest, err)
	}
	return CopyDone, nil
}

// copyFileAtomic copies a file atomically (copy temp → rename) and keeps the
// source mode and modification time.
func copyFileAtomic(fs afero.Fs, src, dest string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return ioErr("stat", src, err)
	}

	in, err := fs.Open(src)
	if err != nil {
		return ioErr("open", src, err)
	}
	defer in.Close()

	out, err := afero.TempFile(fs, filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return ioErr("create", dest, err)
	}
	tmp := out.Name()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		fs.Remove(tmp)
		return ioErr("write", tmp, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		fs.Remove(tmp)
		return ioErr("sync", tmp, err)
	}
	if err := out.Close(); err != nil {
		fs.Remove(tmp)
		return ioErr("close", tmp, err)
	}

	_ = fs.Chmod(tmp, info.Mode().Perm())
	_ = fs.Chtimes(tmp, info.ModTime(), info.ModTime())

	if err := fs.Rename(tmp, dest); err != nil {
		fs.Remove(tmp)
		return ioErr("rename", dest, err)
	}
	return nil
}
