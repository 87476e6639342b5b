package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Lister enumerates candidate files under a root
type Lister interface {
	List(root string, recursive bool) ([]string, error)
}

// FsLister walks an afero filesystem. Non-recursive listing stays in root.
type FsLister struct {
	Fs afero.Fs
}

func (l FsLister) List(root string, recursive bool) ([]string, error) {
	info, err := l.Fs.Stat(root)
	if err != nil {
		return nil, ioErr("scan", root, err)
	}
	if !info.IsDir() {
		return nil, ioErr("scan", root, errors.New("not a directory"))
	}

	var files []string
	err = afero.Walk(l.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		// Sockets, devices and symlinks are not ours to copy
		if !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning files: %w", ioErr("scan", root, err))
	}
	return files, nil
}

// ScanFiles lists and classifies every file under root
func ScanFiles(l Lister, root string, recursive bool) ([]SourceFile, error) {
	paths, err := l.List(root, recursive)
	if err != nil {
		return nil, err
	}
	return ClassifyAll(paths), nil
}
