package slaballoc

import "errors"

// ErrInvalidSize is returned by Allocate for a negative size.
var ErrInvalidSize = errors.New("slaballoc: size must not be negative")
