package embedding

import "errors"

var (
	// ErrModelUnavailable means the embedding model could not be reached or
	// loaded. Fatal at startup; never raised mid-query once construction
	// succeeds.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrEmptyInput means there was nothing to embed.
	ErrEmptyInput = errors.New("empty input text")
)
