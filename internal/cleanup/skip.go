package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/aatumaykin/housekeeper/internal/glob"
)

// Skip applies the skip predicate to e. Checks run in order and stop at the
// first hit: built-in names, ignore patterns, then age. An entry is too
// young when its modification time is after now minus the minimum age.
func (c *Cleaner) Skip(e Entry, patterns []*glob.Pattern, now time.Time) Decision {
	d := Decision{Entry: e}

	if defaultIgnores[e.Name] {
		d.Reason = ReasonDefaultIgnore
	} else if p := glob.MatchAny(patterns, e.Name); p != nil {
		d.Reason = ReasonPattern
		d.Pattern = p.String()
	} else if e.ModTime.After(now.Add(-c.minAge)) {
		d.Reason = ReasonTooYoung
	}

	d.Skip = d.Reason != ReasonNone
	return d
}

// plan lists the base path and decides on every entry against one clock
// reading.
func (c *Cleaner) plan(root *os.Root, now time.Time) ([]Decision, error) {
	patterns, err := loadIgnores(root)
	if err != nil {
		return nil, err
	}

	entries, err := listEntries(root)
	if err != nil {
		return nil, err
	}

	decisions := make([]Decision, 0, len(entries))
	for _, e := range entries {
		decisions = append(decisions, c.Skip(e, patterns, now))
	}
	return decisions, nil
}

// listEntries returns the immediate children of root sorted by name.
// Metadata comes from lstat, symlinks are described, not followed.
func listEntries(root *os.Root) ([]Entry, error) {
	dirEntries, err := fs.ReadDir(root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root.Name(), err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", de.Name(), err)
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
	}
	return entries, nil
}

// loadIgnores reads the ignore file. A missing file yields no patterns; an
// unreadable or malformed one fails the pass.
func loadIgnores(root *os.Root) ([]*glob.Pattern, error) {
	data, err := root.ReadFile(IgnoreFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrIgnoreFile, err)
	}

	patterns, err := glob.ParseList(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIgnoreFile, err)
	}
	return patterns, nil
}
