package normalize

import "errors"

var (
	ErrInvalidDecayPolicy = errors.New("invalid decay policy")
	ErrStoreRequired      = errors.New("evidence store is required")
)
