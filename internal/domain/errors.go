package domain

import "errors"

// ErrUserNotFound is returned by user stores when no user matches.
var ErrUserNotFound = errors.New("user not found")
