package domain

import (
	"errors"
	"fmt"
)

// Capture errors. Surfaced to the user as "could not bookmark this selection".
var (
	// ErrCapture is the family every capture failure wraps.
	ErrCapture = errors.New("capture failed")

	// ErrEmptySelection indicates a collapsed selection or one that is blank after trimming.
	ErrEmptySelection = fmt.Errorf("%w: empty selection", ErrCapture)

	// ErrNoContainer indicates that no ancestor of the selection is a message container.
	ErrNoContainer = fmt.Errorf("%w: no enclosing container", ErrCapture)

	// ErrTextNotFound indicates the selected text is absent from the flattened container.
	// Streaming re-renders can race a capture and trigger it.
	ErrTextNotFound = fmt.Errorf("%w: selected text not found in container", ErrCapture)
)

// Resolve errors. Reported collectively as ErrNotFound.
var (
	ErrNotFound       = errors.New("bookmark target no longer exists")
	ErrContainerGone  = fmt.Errorf("%w: container gone", ErrNotFound)
	ErrTargetTextGone = fmt.Errorf("%w: text not found", ErrNotFound)
)

// Tree errors. A rejected gesture produces no batch.
var (
	ErrTree             = errors.New("tree operation rejected")
	ErrWouldCreateCycle = fmt.Errorf("%w: would create cycle", ErrTree)
	ErrSelfDrop         = fmt.Errorf("%w: record dropped onto itself", ErrTree)
	ErrUnknownRecord    = fmt.Errorf("%w: unknown record", ErrTree)
)

// Validation errors.
var (
	ErrInvalidRecord   = errors.New("invalid bookmark record")
	ErrInvalidSettings = errors.New("invalid settings")
)
