package api

import (
	"errors"
	"net/http"

	"repo-clipboard/internal/aggregate"
	"repo-clipboard/internal/catalog"
	"repo-clipboard/internal/git/mirror"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrRepositoryNotFound),
		errors.Is(err, catalog.ErrPatternNotFound),
		errors.Is(err, aggregate.ErrRepositoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrRepositoryExists),
		errors.Is(err, catalog.ErrInvalidRepository),
		errors.Is(err, catalog.ErrInvalidPattern),
		errors.Is(err, mirror.ErrInvalidName),
		errors.Is(err, mirror.ErrInvalidBranch),
		errors.Is(err, mirror.ErrInvalidURL):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// detailFor renders the user-facing message for err
func detailFor(err error, name string) string {
	switch {
	case errors.Is(err, catalog.ErrRepositoryNotFound), errors.Is(err, aggregate.ErrRepositoryNotFound):
		return "Repository " + name + " not found"
	case errors.Is(err, catalog.ErrRepositoryExists):
		return "Repository " + name + " already exists"
	default:
		return err.Error()
	}
}
