// Package fileutil holds the file helpers shared by the releasekit commands.
package fileutil

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// Exists reports whether path exists. Errors other than "not exist" are
// returned to the caller.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// AtomicWriteFile replaces path with data through a synced temporary file,
// so readers never observe a partial file. An existing file keeps its
// permission bits; new files get perm.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}

// File is one entry of a WriteFiles batch.
type File struct {
	Path string
	Data []byte
}

type previous struct {
	data    []byte
	existed bool
}

// WriteFiles replaces every file of the batch. All contents are staged in
// temporary files before the first rename. When a rename fails, the files
// already replaced get their previous contents back.
func WriteFiles(files []File, perm os.FileMode) error {
	pending := make([]*renameio.PendingFile, 0, len(files))
	defer func() {
		for _, p := range pending {
			_ = p.Cleanup()
		}
	}()

	prev := make([]previous, len(files))
	for i, f := range files {
		info, err := os.Stat(f.Path)
		switch {
		case err == nil && info.Mode().IsRegular():
			data, err := os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("reading %q: %w", f.Path, err)
			}
			prev[i] = previous{data: data, existed: true}
		case err != nil && !os.IsNotExist(err):
			return fmt.Errorf("stat %q: %w", f.Path, err)
		}

		p, err := renameio.NewPendingFile(f.Path,
			renameio.WithPermissions(perm), renameio.WithExistingPermissions())
		if err != nil {
			return fmt.Errorf("staging %q: %w", f.Path, err)
		}
		pending = append(pending, p)
		if _, err := p.Write(f.Data); err != nil {
			return fmt.Errorf("writing %q: %w", f.Path, err)
		}
	}

	for i, p := range pending {
		if err := p.CloseAtomicallyReplace(); err != nil {
			err = fmt.Errorf("replacing %q: %w", files[i].Path, err)
			return stderrors.Join(err, restore(files[:i], prev[:i], perm))
		}
	}
	return nil
}

func restore(files []File, prev []previous, perm os.FileMode) error {
	var errs []error
	for i, f := range files {
		var err error
		if prev[i].existed {
			err = AtomicWriteFile(f.Path, prev[i].data, perm)
		} else {
			err = os.Remove(f.Path)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restoring %q: %w", f.Path, err))
		}
	}
	return stderrors.Join(errs...)
}
