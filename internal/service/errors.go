package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks input the service refuses before touching storage.
	ErrInvalidRequest = errors.New("invalid request")

	errMissingRepository = errors.New("bookmark repository is required")
	errMissingSessions   = errors.New("session store is required")
	errMissingSettings   = errors.New("settings store is required")
	errMissingIDProvider = errors.New("id provider is required")
)

// Error carries a stable machine-readable code next to the cause.
// errors.Is and errors.As see through it.
type Error struct {
	code string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Code() string {
	return e.code
}

const (
	opNew            = "service.new"
	opList           = "bookmarks.list"
	opAdd            = "bookmarks.add"
	opCreateFolder   = "bookmarks.create_folder"
	opCapture        = "bookmarks.capture"
	opUpdate         = "bookmarks.update"
	opUpdateMany     = "bookmarks.update_many"
	opMove           = "bookmarks.move"
	opDelete         = "bookmarks.delete"
	opDeleteSession  = "bookmarks.delete_session"
	opDeleteAll      = "bookmarks.delete_all"
	opResolve        = "bookmarks.resolve"
	opSearch         = "bookmarks.search"
	opNormalize      = "bookmarks.normalize"
	opImport         = "bookmarks.import"
	opSessions       = "sessions.list"
	opGetMeta        = "sessions.get_meta"
	opSaveMeta       = "sessions.save_meta"
	opPrune          = "sessions.prune"
	opGetSettings    = "settings.get"
	opUpdateSettings = "settings.update"
)

func newError(operation, reason string, cause error) error {
	return &Error{code: operation + "." + reason, err: cause}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
