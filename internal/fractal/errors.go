package fractal

import (
	"errors"
	"strconv"
)

// Load-time errors. Entries failing with one of these are dropped from the
// catalog.
var (
	// ErrUnknownVariant indicates a class id outside the variant table.
	ErrUnknownVariant = errors.New("fractal: unknown kernel variant")

	// ErrUnknownPalette indicates a palette id outside the palette table.
	ErrUnknownPalette = errors.New("fractal: unknown palette")

	// ErrMissingShaders indicates a shader-based fractal whose fragment
	// shader could not be loaded.
	ErrMissingShaders = errors.New("fractal: missing shader pair")

	// ErrDuplicateName indicates a second entry with an already loaded name.
	ErrDuplicateName = errors.New("fractal: duplicate name")

	// ErrNoName indicates an entry without a name.
	ErrNoName = errors.New("fractal: entry has no name")

	// ErrNotSequence indicates catalog metadata that is not a list of entries.
	ErrNotSequence = errors.New("fractal: catalog is not a sequence")
)

// EntryError wraps a load error with the catalog entry it belongs to.
type EntryError struct {
	Name    string
	Index   int
	Wrapped error
}

func (e *EntryError) Error() string {
	if e.Name == "" {
		return "entry " + strconv.Itoa(e.Index) + ": " + e.Wrapped.Error()
	}
	return e.Name + ": " + e.Wrapped.Error()
}

func (e *EntryError) Unwrap() error {
	return e.Wrapped
}
