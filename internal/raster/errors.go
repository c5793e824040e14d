package raster

import "errors"

// Error classes shared by every stage. Callers match them with errors.Is;
// concrete errors wrap one of these with the failing image or parameter.
var (
	// ErrInput marks a source image that is missing, unreadable or not decodable.
	ErrInput = errors.New("input error")
	// ErrDegenerate marks a grid whose samples are all equal.
	ErrDegenerate = errors.New("degenerate image")
	// ErrParameter marks a configuration value rejected before processing.
	ErrParameter = errors.New("invalid parameter")
	// ErrEncoding marks a bitmap that could not be encoded or written.
	ErrEncoding = errors.New("encoding error")
)
