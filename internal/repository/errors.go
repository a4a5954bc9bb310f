package repository

import "errors"

// ErrNotFound is returned when a queried row does not exist. Missing actors
// and subject entities are tolerated by the pipeline, so callers check for
// this instead of treating pgx.ErrNoRows as fatal.
var ErrNotFound = errors.New("not found")
