package texcache

import "errors"

// ErrClosed is returned by loads on a closed cache.
var ErrClosed = errors.New("texcache: cache closed")
