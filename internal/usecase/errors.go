package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrNoLiveSource          = errors.New("no live source succeeded")
	ErrStoreWrite            = errors.New("datastore write failed")
)
