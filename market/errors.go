package market

import "errors"

var (
	// ErrUnknownItem is returned when a name is not in the store.
	ErrUnknownItem = errors.New("unknown item")

	// ErrDuplicateItem is returned when a name is seeded twice.
	ErrDuplicateItem = errors.New("duplicate item")

	// ErrInvalidSeed is returned for an empty name or a price that is not a
	// positive finite number.
	ErrInvalidSeed = errors.New("invalid seed")
)
