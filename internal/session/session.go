// Package session holds the browse cursor over a discovered dataset and the
// operations a curator performs on the pair under it.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/food3d/curator/internal/diagnostics"
	"github.com/food3d/curator/internal/discover"
	"github.com/food3d/curator/internal/images"
	"github.com/food3d/curator/internal/record"
	"github.com/food3d/curator/internal/trash"
)

var (
	// ErrEmptyClass is returned when the current class has no pairs
	ErrEmptyClass = errors.New("current class has no record pairs")
	// ErrNoClasses is returned when the dataset root has no class directories
	ErrNoClasses = errors.New("dataset has no classes")
)

// Options configures where deleted pairs and snapshots go
type Options struct {
	TrashDir    string
	SnapshotDir string
	// SnapshotMaxWidth downscales snapshots wider than this; 0 keeps full size
	SnapshotMaxWidth int
}

// Cursor is a position in the index
type Cursor struct {
	Class int
	Pair  int
}

// Frame is a loaded pair ready for display
type Frame struct {
	Pair      discover.Pair
	ClassName string
	RGB       *record.RGB
	// Depth is in metres
	Depth  *record.Depth
	Report diagnostics.Report
}

// Session owns the index and the cursor. It is not safe for concurrent use.
type Session struct {
	index  *discover.Index
	bin    *trash.Bin
	opts   Options
	cursor Cursor
}

// New starts a session at the first pair of the first class. The index is
// modified in place when pairs are deleted.
func New(index *discover.Index, opts Options) (*Session, error) {
	if index == nil || index.Len() == 0 {
		return nil, ErrNoClasses
	}

	slog.Info("Browse session started", "classes", index.Len(), "pairs", index.TotalPairs())
	return &Session{
		index: index,
		bin:   trash.New(opts.TrashDir),
		opts:  opts,
	}, nil
}

// Cursor returns the current position
func (s *Session) Cursor() Cursor {
	return s.cursor
}

// ClassCount returns the number of classes
func (s *Session) ClassCount() int {
	return s.index.Len()
}

// ClassName returns the name of the current class
func (s *Session) ClassName() string {
	return s.class().Name()
}

// PairCount returns the number of pairs left in the current class
func (s *Session) PairCount() int {
	return len(s.class().Pairs)
}

// Exhausted reports whether every class has been emptied
func (s *Session) Exhausted() bool {
	return s.index.TotalPairs() == 0
}

func (s *Session) class() *discover.Class {
	return s.index.Class(s.cursor.Class)
}

// NextImage moves to the next pair, wrapping to the first
func (s *Session) NextImage() error {
	return s.stepImage(1)
}

// PreviousImage moves to the previous pair, wrapping to the last
func (s *Session) PreviousImage() error {
	return s.stepImage(-1)
}

func (s *Session) stepImage(delta int) error {
	n := s.PairCount()
	if n == 0 {
		return ErrEmptyClass
	}
	s.cursor.Pair = mod(s.cursor.Pair+delta, n)
	return nil
}

// NextClass moves to the first pair of the next class, wrapping around
func (s *Session) NextClass() {
	s.stepClass(1)
}

// PreviousClass moves to the first pair of the previous class, wrapping around
func (s *Session) PreviousClass() {
	s.stepClass(-1)
}

func (s *Session) stepClass(delta int) {
	s.cursor.Class = mod(s.cursor.Class+delta, s.index.Len())
	s.cursor.Pair = 0
	slog.Debug("Changed class", "class", s.ClassName(), "pairs", s.PairCount())
}

// CurrentPair returns the pair under the cursor
func (s *Session) CurrentPair() (discover.Pair, error) {
	c := s.class()
	if len(c.Pairs) == 0 {
		return discover.Pair{}, fmt.Errorf("%w: %s", ErrEmptyClass, c.Name())
	}
	return c.Pairs[s.cursor.Pair], nil
}

// Current loads the pair under the cursor with its diagnostics
func (s *Session) Current() (*Frame, error) {
	pair, err := s.CurrentPair()
	if err != nil {
		return nil, err
	}

	rgb, depth, err := record.LoadPair(pair)
	if err != nil {
		return nil, err
	}

	return &Frame{
		Pair:      pair,
		ClassName: s.ClassName(),
		RGB:       rgb,
		Depth:     depth,
		Report:    diagnostics.Compute(rgb, depth),
	}, nil
}

// DeleteCurrent moves both files of the current pair to the trash and
// drops the pair from the index. The index is untouched if either move
// fails. When the class becomes empty the cursor advances to the next
// class that still has pairs.
func (s *Session) DeleteCurrent() (discover.Pair, error) {
	pair, err := s.CurrentPair()
	if err != nil {
		return discover.Pair{}, err
	}

	c := s.class()
	if _, err := s.bin.Move(c.Name(), pair.RGBPath, pair.DepthPath); err != nil {
		slog.Error("Failed to delete record pair", "id", pair.ID(), "error", err)
		return discover.Pair{}, err
	}

	i := s.cursor.Pair
	c.Pairs = append(c.Pairs[:i], c.Pairs[i+1:]...)
	slog.Info("Moved record pair to trash", "class", c.Name(), "id", pair.ID(), "remaining", len(c.Pairs))

	if n := len(c.Pairs); n > 0 {
		s.cursor.Pair = i % n
		return pair, nil
	}

	s.cursor.Pair = 0
	s.advanceToNonEmpty()
	return pair, nil
}

// advanceToNonEmpty searches forward, with wraparound, for a class with
// pairs. The cursor stays put when there is none.
func (s *Session) advanceToNonEmpty() {
	n := s.index.Len()
	for step := 1; step < n; step++ {
		next := mod(s.cursor.Class+step, n)
		if len(s.index.Class(next).Pairs) > 0 {
			slog.Info("Class emptied, moving on", "from", s.ClassName(), "to", s.index.Class(next).Name())
			s.cursor = Cursor{Class: next}
			return
		}
	}
	slog.Warn("Every class is empty")
}

// Snapshot writes the current RGB frame to SnapshotDir/<class>.jpg,
// replacing an earlier snapshot of the same class.
func (s *Session) Snapshot() (string, error) {
	pair, err := s.CurrentPair()
	if err != nil {
		return "", err
	}

	rgb, err := record.LoadRGB(pair.RGBPath)
	if err != nil {
		return "", err
	}

	path, err := images.SaveJPEG(s.opts.SnapshotDir, s.ClassName()+".jpg", rgb, s.opts.SnapshotMaxWidth)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	slog.Info("Saved snapshot", "class", s.ClassName(), "path", path)
	return path, nil
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
