package threadcache

import "errors"

// ErrOversize is returned when a request exceeds sizeclass.MaxBytes; the
// caller is expected to route such requests around the cache tiers
// entirely, the same way the source allocator falls back to a bare
// malloc for oversized requests.
var ErrOversize = errors.New("threadcache: request exceeds the largest cached size class")
