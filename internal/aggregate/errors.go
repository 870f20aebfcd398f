package aggregate

import (
	"errors"
	"fmt"
)

var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrBinaryContent      = errors.New("file is not valid text")
)

// NoMatchesMessage is reported when patterns resolve to zero files
const NoMatchesMessage = "No files matched the specified patterns"

// ReadError reports a matched file that could not be read as text
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
