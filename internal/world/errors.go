package world

import "errors"

var (
	ErrUnknownDirection   = errors.New("unknown direction")
	ErrUnknownPrototype   = errors.New("unknown prototype")
	ErrDuplicatePrototype = errors.New("duplicate prototype")
	ErrNoSeed             = errors.New("forward catalog is empty, no seed prototype")
	ErrEmptyTable         = errors.New("weighted table is empty")
	ErrNoJunction         = errors.New("no junction prototype")
	ErrAlreadySeeded      = errors.New("streamer already seeded")
)
