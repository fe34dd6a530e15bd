package cache

import "github.com/pkg/errors"

// Returned errors wrap these. Use errors.Cause to compare.
var (
	ErrNoTag        = errors.New("no such tag")
	ErrExhausted    = errors.New("no tag has spare capacity")
	ErrNotFound     = errors.New("no such entry")
	ErrNotBound     = errors.New("entry is not bound")
	ErrAlreadyBound = errors.New("entry was bound already")
)
