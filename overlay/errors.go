package overlay

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrFormat          = errors.New("overlay format error")
	ErrConfiguration   = errors.New("overlay configuration error")
)
