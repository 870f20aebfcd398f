package mirror

import (
	"errors"
	"fmt"
)

// ErrNotAMirror means a directory sits at a mirror path but is not a git
// working tree of its own
var ErrNotAMirror = errors.New("not a git mirror")

// SyncError reports which step of a sync failed
type SyncError struct {
	Repository string
	Step       Operation
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync of %s failed at %s: %v", e.Repository, e.Step, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
