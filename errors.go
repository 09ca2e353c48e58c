package petstore

import "errors"

var (
	ErrInvalidDocument = errors.New("petstore: document is missing a required field")
	ErrInvalidQuery    = errors.New("petstore: malformed query")
	ErrNotFound        = errors.New("petstore: document not found")
	ErrParse           = errors.New("petstore: stored value is not a valid document")
	ErrStoreCommand    = errors.New("petstore: store command failed")
)
