package scannererrors

import "errors"

var (
	ErrNilEngine   = errors.New("scanner service dependencies engine cannot be nil")
	ErrNilRegistry = errors.New("scanner service dependencies registry cannot be nil")
	ErrCtxDone     = errors.New("scanner service ctx done")
)
