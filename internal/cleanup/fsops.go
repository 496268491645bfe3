package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

// All paths below are relative to an *os.Root opened on the base path, so
// no operation can resolve through a symlink to somewhere outside of it.

// ensureArchiveDir creates the archive directory when it is missing and
// reports whether it did.
func ensureArchiveDir(root *os.Root) (bool, error) {
	info, err := root.Lstat(ArchiveDirName)
	switch {
	case err == nil:
		if !info.IsDir() {
			return false, fmt.Errorf("%w: %s", ErrArchiveNotDir, ArchiveDirName)
		}
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := root.Mkdir(ArchiveDirName, 0755); err != nil {
			return false, fmt.Errorf("failed to create archive directory: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("failed to stat archive directory: %w", err)
	}
}

// moveToArchive renames name to archive/name. An existing destination is
// an error, rename(2) would silently replace a file.
func moveToArchive(root *os.Root, name string) error {
	dest := path.Join(ArchiveDirName, name)

	if _, err := root.Lstat(dest); err == nil {
		return fmt.Errorf("%w: %s", ErrArchiveConflict, dest)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return root.Rename(name, dest)
}

// removeSecure removes a file, symlink or directory tree. Symlinks are
// removed themselves and never followed. Directory trees are only removed
// when the base path is not world-writable or carries the sticky bit;
// inside the tree, directories get owner rwx back before their contents are
// removed.
func removeSecure(root *os.Root, name string) error {
	info, err := root.Lstat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		return root.Remove(name)
	}

	if err := checkParentMode(root); err != nil {
		return err
	}
	if err := unlockTree(root, name); err != nil {
		return fmt.Errorf("failed to prepare tree for removal: %w", err)
	}
	return root.RemoveAll(name)
}

func checkParentMode(root *os.Root) error {
	info, err := root.Stat(".")
	if err != nil {
		return err
	}
	mode := info.Mode()
	if mode.Perm()&0o002 != 0 && mode&fs.ModeSticky == 0 {
		return fmt.Errorf("%w: %s (mode %o)", ErrInsecureBasePath, root.Name(), mode.Perm())
	}
	return nil
}

// unlockTree walks the tree below name without following symlinks and
// makes every directory readable, writable and searchable by its owner.
func unlockTree(root *os.Root, name string) error {
	return fs.WalkDir(root.FS(), name, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if perm := info.Mode().Perm(); perm&0o700 != 0o700 {
			return root.Chmod(p, perm|0o700)
		}
		return nil
	})
}
