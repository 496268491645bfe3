// Package cleanup implements age-based housekeeping of a single directory.
//
// A Cleaner looks at the immediate children of its base path and either
// moves the old ones into an "archive" subdirectory or removes them for
// good. Entries are protected by a fixed set of names (".", "..",
// "archive"), by glob patterns listed in the .housekeeper_ignore file of
// the base path, and by being younger than the configured minimum age.
// The ignore file is read again on every pass.
//
// A pass is synchronous and single-threaded. It stops at the first entry
// that cannot be moved or removed; entries handled before that stay
// handled. Two passes over the same directory must not run at the same
// time, see the ipc package for a cross-process lock.
package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aatumaykin/housekeeper/internal/logger"
	"github.com/google/uuid"
)

// Cleaner is the immutable configuration of one managed directory.
type Cleaner struct {
	basePath    string
	archivePath string
	minAge      time.Duration
	now         func() time.Time
	logger      *logger.Logger
	metrics     *Metrics
	optErr      error
}

// MaxMinAgeSeconds is the largest minimum age, in seconds, that fits in a
// time.Duration.
const MaxMinAgeSeconds = math.MaxInt64 / int64(time.Second)

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithMinAge sets the minimum age an entry must reach before it is acted on.
func WithMinAge(d time.Duration) Option {
	return func(c *Cleaner) {
		c.minAge = d
	}
}

// WithMinAgeSeconds is WithMinAge in whole seconds. Values outside
// 0..MaxMinAgeSeconds make New fail with ErrInvalidMinAge.
func WithMinAgeSeconds(seconds int64) Option {
	return func(c *Cleaner) {
		if seconds < 0 || seconds > MaxMinAgeSeconds {
			c.optErr = fmt.Errorf("%w: %d seconds (allowed 0..%d)", ErrInvalidMinAge, seconds, MaxMinAgeSeconds)
			return
		}
		c.minAge = time.Duration(seconds) * time.Second
	}
}

// WithClock replaces time.Now. The clock is read once per pass.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		c.now = now
	}
}

// WithLogger sets the logger for pass summaries and per-entry debug lines.
func WithLogger(log *logger.Logger) Option {
	return func(c *Cleaner) {
		c.logger = log
	}
}

// WithMetrics records every pass in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Cleaner) {
		c.metrics = m
	}
}

// New creates a Cleaner for basePath. basePath must be an existing
// directory. Nothing is created on disk.
func New(basePath string, opts ...Option) (*Cleaner, error) {
	c := &Cleaner{
		basePath:    basePath,
		archivePath: filepath.Join(basePath, ArchiveDirName) + string(filepath.Separator),
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.optErr != nil {
		return nil, c.optErr
	}
	if c.minAge < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMinAge, c.minAge)
	}

	if err := checkBasePath(basePath); err != nil {
		return nil, err
	}

	return c, nil
}

// BasePath returns the managed directory.
func (c *Cleaner) BasePath() string {
	return c.basePath
}

// ArchivePath returns the archive directory, with a trailing separator.
func (c *Cleaner) ArchivePath() string {
	return c.archivePath
}

// MinAge returns the configured minimum age.
func (c *Cleaner) MinAge() time.Duration {
	return c.minAge
}

// Archive moves every eligible entry into the archive directory, creating
// that directory first when it is missing.
func (c *Cleaner) Archive() (Stats, error) {
	return c.run(ModeArchive)
}

// Delete permanently removes every eligible entry. The base path itself is
// never removed.
func (c *Cleaner) Delete() (Stats, error) {
	return c.run(ModeDelete)
}

// Run dispatches to Archive or Delete.
func (c *Cleaner) Run(mode Mode) (Stats, error) {
	switch mode {
	case ModeArchive, ModeDelete:
		return c.run(mode)
	default:
		return Stats{}, fmt.Errorf("invalid mode: %q", mode)
	}
}

// Plan evaluates the skip predicate for every entry without touching
// anything. Decisions are sorted by name.
func (c *Cleaner) Plan() ([]Decision, error) {
	root, err := c.openRoot()
	if err != nil {
		return nil, err
	}
	defer root.Close()

	return c.plan(root, c.now())
}

func (c *Cleaner) run(mode Mode) (stats Stats, err error) {
	began := time.Now()
	now := c.now()
	log := c.logger.With(
		logger.Field{Key: "run_id", Value: uuid.NewString()},
		logger.Field{Key: "base_path", Value: c.basePath},
		logger.Field{Key: "mode", Value: string(mode)},
	)

	defer func() {
		stats.Duration = time.Since(began)
		c.metrics.ObservePass(mode, stats, err)
		if err != nil {
			log.Error("housekeeping pass failed", err,
				logger.Field{Key: "acted", Value: stats.Acted})
			return
		}
		log.Info("housekeeping pass completed",
			logger.Field{Key: "examined", Value: stats.Examined},
			logger.Field{Key: "acted", Value: stats.Acted},
			logger.Field{Key: "skipped", Value: stats.Skipped()},
			logger.Field{Key: "duration_ms", Value: stats.Duration.Milliseconds()})
	}()

	root, err := c.openRoot()
	if err != nil {
		return stats, err
	}
	defer root.Close()

	var act func(*os.Root, string) error
	switch mode {
	case ModeArchive:
		created, err := ensureArchiveDir(root)
		if err != nil {
			return stats, err
		}
		if created {
			stats.ArchiveCreated = true
			log.Debug("created archive directory",
				logger.Field{Key: "path", Value: c.archivePath})
		}
		act = moveToArchive
	case ModeDelete:
		act = removeSecure
	}

	decisions, err := c.plan(root, now)
	if err != nil {
		return stats, err
	}

	for _, d := range decisions {
		stats.Examined++
		if d.Skip {
			stats.countSkip(d.Reason)
			log.Debug("skipped entry",
				logger.Field{Key: "name", Value: d.Entry.Name},
				logger.Field{Key: "reason", Value: string(d.Reason)})
			continue
		}

		if err := act(root, d.Entry.Name); err != nil {
			return stats, fmt.Errorf("%s %q: %w", mode, d.Entry.Name, err)
		}
		stats.Acted++
		log.Debug("processed entry",
			logger.Field{Key: "name", Value: d.Entry.Name},
			logger.Field{Key: "mod_time", Value: d.Entry.ModTime})
	}

	return stats, nil
}

func (c *Cleaner) openRoot() (*os.Root, error) {
	root, err := os.OpenRoot(c.basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidBasePath, c.basePath)
		}
		return nil, fmt.Errorf("failed to open %s: %w", c.basePath, err)
	}
	return root, nil
}

func checkBasePath(basePath string) error {
	info, err := os.Stat(basePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInvalidBasePath, basePath)
		}
		return fmt.Errorf("failed to stat %s: %w", basePath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidBasePath, basePath)
	}
	return nil
}
