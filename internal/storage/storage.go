package storage

import "errors"

var (
	ErrStateNotFound = errors.New("timeline state not found")
)
