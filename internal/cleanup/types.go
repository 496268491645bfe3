package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

const (
	// IgnoreFileName is the per-directory list of protected name patterns.
	IgnoreFileName = ".housekeeper_ignore"

	// ArchiveDirName is the subdirectory that receives archived entries.
	ArchiveDirName = "archive"
)

// defaultIgnores are never acted on, whatever the ignore file says.
var defaultIgnores = map[string]bool{
	".":            true,
	"..":           true,
	ArchiveDirName: true,
}

var (
	// ErrInvalidBasePath means the managed directory is missing or is not a directory.
	ErrInvalidBasePath = errors.New("base path is not an existing directory")

	// ErrInvalidMinAge is returned for a negative or overflowing minimum age.
	ErrInvalidMinAge = errors.New("minimum age out of range")

	// ErrIgnoreFile wraps failures to read or parse the ignore file.
	ErrIgnoreFile = errors.New("cannot load ignore file")

	// ErrArchiveConflict means archive/<name> already exists.
	ErrArchiveConflict = errors.New("archive destination already exists")

	// ErrArchiveNotDir means the archive name is taken by something that is not a directory.
	ErrArchiveNotDir = errors.New("archive path exists and is not a directory")

	// ErrInsecureBasePath means the base directory is world-writable without the sticky bit.
	ErrInsecureBasePath = errors.New("base path is world-writable and not sticky")
)

// Mode selects what happens to eligible entries.
type Mode string

const (
	ModeArchive Mode = "archive"
	ModeDelete  Mode = "delete"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeArchive, ModeDelete:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode: %q (expected: archive, delete)", s)
	}
}

// Reason explains why an entry was skipped.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonDefaultIgnore Reason = "default_ignore"
	ReasonPattern       Reason = "ignore_pattern"
	ReasonTooYoung      Reason = "too_young"
)

// Entry is a point-in-time view of one child of the base path.
type Entry struct {
	Name    string
	ModTime time.Time
	Mode    fs.FileMode
}

// IsDir reports whether the entry is a directory (symlinks are not).
func (e Entry) IsDir() bool {
	return e.Mode.IsDir()
}

// Decision is the outcome of the skip predicate for one entry.
type Decision struct {
	Entry   Entry
	Skip    bool
	Reason  Reason
	Pattern string // matching ignore pattern when Reason is ReasonPattern
}

// Stats holds statistics about a single pass.
type Stats struct {
	Examined       int           // Entries listed in the base path
	Acted          int           // Entries moved or removed
	SkippedDefault int           // Skipped because of the built-in names
	SkippedPattern int           // Skipped because of the ignore file
	SkippedAge     int           // Skipped because they are too young
	ArchiveCreated bool          // The archive directory was created by this pass
	Duration       time.Duration // Time taken for the pass
}

// Skipped returns the total number of skipped entries.
func (s Stats) Skipped() int {
	return s.SkippedDefault + s.SkippedPattern + s.SkippedAge
}

func (s *Stats) countSkip(reason Reason) {
	switch reason {
	case ReasonDefaultIgnore:
		s.SkippedDefault++
	case ReasonPattern:
		s.SkippedPattern++
	case ReasonTooYoung:
		s.SkippedAge++
	}
}
