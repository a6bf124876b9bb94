package spectrum

import "errors"

var (
	ErrEmptyInput      = errors.New("spectrum: empty input")
	ErrInvalidShape    = errors.New("spectrum: invalid shape")
	ErrNotIncreasing   = errors.New("spectrum: frequency axis not strictly increasing")
	ErrEmptyBoundaries = errors.New("spectrum: step interval list is empty")
	ErrSizeOverflow    = errors.New("spectrum: chunk sizes exceed the length of the data")
	ErrInvalidWindow   = errors.New("spectrum: invalid smoothing window")
	ErrClipTooLarge    = errors.New("spectrum: clip amount consumes the spectrum")
)
