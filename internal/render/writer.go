package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// rename is swapped in tests to fail a commit halfway.
var rename = os.Rename

// Write writes every artifact to dir, creating it if needed. Files are staged
// next to their destination first; if any staged write fails no destination
// file is touched. Previous outputs are kept aside while the staged files are
// moved into place and restored if a later move fails.
func (a *Artifacts) Write(dir string) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	staged := make([]string, 0, len(a.Files))

	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, file := range a.Files {
		tmp, err := stage(dir, file)
		if err != nil {
			cleanup()
			return fmt.Errorf("writing file %s: %w", file.Filename, err)
		}

		staged = append(staged, tmp)
	}

	done := make([]commit, 0, len(a.Files))

	for i, file := range a.Files {
		c, err := replace(staged[i], filepath.Join(dir, file.Filename))
		if err != nil {
			rollback(done)
			cleanup()

			return fmt.Errorf("writing file %s: %w", file.Filename, err)
		}

		done = append(done, c)
	}

	for _, c := range done {
		if c.backup != "" {
			_ = os.Remove(c.backup)
		}
	}

	return nil
}

// commit records one staged file moved into place. backup is empty when the
// destination did not exist before.
type commit struct {
	dest   string
	backup string
}

func replace(tmp, dest string) (commit, error) {
	c := commit{dest: dest}

	_, err := os.Lstat(dest)

	switch {
	case err == nil:
		c.backup = tmp + ".prev"
		if err := rename(dest, c.backup); err != nil {
			return commit{}, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return commit{}, err
	}

	if err := rename(tmp, dest); err != nil {
		if c.backup != "" {
			_ = rename(c.backup, dest)
		}

		return commit{}, err
	}

	return c, nil
}

// rollback undoes commits newest first.
func rollback(done []commit) {
	for i := len(done) - 1; i >= 0; i-- {
		c := done[i]
		if c.backup == "" {
			_ = os.Remove(c.dest)
			continue
		}

		_ = rename(c.backup, c.dest)
	}
}

func stage(dir string, file GeneratedFile) (string, error) {
	f, err := os.CreateTemp(filepath.Join(dir, filepath.Dir(file.Filename)), "."+filepath.Base(file.Filename)+".*.tmp")
	if err != nil {
		return "", err
	}

	_, err = f.Write(file.Content)
	err = errors.Join(err, f.Chmod(filePerm), f.Close())

	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
