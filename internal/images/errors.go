package images

import "errors"

var (
	ErrPull    = errors.New("image pull failed")
	ErrArchive = errors.New("image archive failed")
)
