package trash

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
)

// renameFunc is swapped in tests to simulate failing moves
var renameFunc = os.Rename

// ErrPartialMove matches any PartialMoveError via errors.Is
var ErrPartialMove = errors.New("record pair was not moved to trash")

// ErrOccupied is returned when the trash already holds a file of the same name
var ErrOccupied = errors.New("trash already holds a file with this name")

// CrossDeviceError marks a rename that failed because source and trash
// live on different file systems. Files are never copied across devices.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot move %s to %s across file systems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// PartialMoveError reports a pair whose files could not all be moved.
// Moved lists files that reached the trash and were then restored;
// RollbackErr is set when restoring them failed too.
type PartialMoveError struct {
	Failed      string
	Moved       []string
	Err         error
	RollbackErr error
}

func (e *PartialMoveError) Error() string {
	msg := fmt.Sprintf("failed to move %s to trash: %v", e.Failed, e.Err)
	if e.RollbackErr != nil {
		msg += fmt.Sprintf(" (rollback failed: %v)", e.RollbackErr)
	}
	return msg
}

func (e *PartialMoveError) Unwrap() []error {
	return []error{ErrPartialMove, e.Err}
}

// Bin moves record files into Root/<class>/
type Bin struct {
	Root string
}

// New creates a trash bin rooted at dir
func New(dir string) *Bin {
	return &Bin{Root: dir}
}

// Dir returns the trash directory for a class
func (b *Bin) Dir(class string) string {
	return filepath.Join(b.Root, class)
}

// Move moves every file into the class trash directory. Either all files
// are moved or none are: on failure the already-moved files are restored.
// A name already present in the trash fails the whole move with ErrOccupied.
func (b *Bin) Move(class string, files ...string) ([]string, error) {
	dir := b.Dir(class)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &PartialMoveError{Failed: dir, Err: err}
	}

	dsts := make([]string, 0, len(files))
	for _, src := range files {
		dst := filepath.Join(dir, filepath.Base(src))
		if _, err := os.Lstat(dst); err == nil {
			return nil, &PartialMoveError{Failed: src, Err: fmt.Errorf("%w: %s", ErrOccupied, dst)}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, &PartialMoveError{Failed: src, Err: err}
		}
		dsts = append(dsts, dst)
	}

	type move struct{ src, dst string }
	done := make([]move, 0, len(files))

	for n, src := range files {
		dst := dsts[n]
		if err := rename(src, dst); err != nil {
			pm := &PartialMoveError{Failed: src, Err: err}
			for i := len(done) - 1; i >= 0; i-- {
				m := done[i]
				pm.Moved = append(pm.Moved, m.src)
				if rerr := rename(m.dst, m.src); rerr != nil {
					slog.Error("Failed to restore file from trash", "file", m.src, "error", rerr)
					pm.RollbackErr = errors.Join(pm.RollbackErr, rerr)
				}
			}
			return nil, pm
		}
		done = append(done, move{src: src, dst: dst})
	}

	return dsts, nil
}

func rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

func isEXDEV(err error) bool {
	var le *os.LinkError
	if errors.As(err, &le) {
		return errors.Is(le.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}
