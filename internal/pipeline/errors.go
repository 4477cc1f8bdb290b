package pipeline

import "errors"

var (
	ErrInvalidPipeline = errors.New("invalid pipeline")
)
