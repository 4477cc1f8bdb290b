package recipes

import "errors"

var (
	ErrInvalidSource     = errors.New("invalid source directory")
	ErrInvalidRecipePath = errors.New("invalid recipe path")
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrEmptyOutput       = errors.New("tool produced no output")
	ErrInvalidPDF        = errors.New("output is not a PDF")
	ErrNoHeading         = errors.New("markdown output has no heading")
	ErrBook              = errors.New("invalid book manifest")
)
