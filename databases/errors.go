package databases

import (
	"errors"

	"github.com/aalemi-dev/sqlguard/database"
)

var (
	// ErrUnknownBackend is returned for a Backend outside the declared set.
	ErrUnknownBackend = database.ErrUnknownBackend

	// ErrObjectDisposed is returned by Registry.Get after Close.
	ErrObjectDisposed = database.ErrObjectDisposed

	// ErrInvalidSettings is returned when settings are missing or malformed.
	// It is a startup error: nothing is deferred to the first execution.
	ErrInvalidSettings = errors.New("invalid database settings")
)
