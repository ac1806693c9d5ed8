package config

import "errors"

var (
	// ErrNilPointer indicates a nil config pointer was passed to Load
	ErrNilPointer = errors.New("config.nil_pointer")

	// ErrParsingConfig indicates environment parsing failed
	ErrParsingConfig = errors.New("config.parsing_failed")
)
