package ledger

import "errors"

// Pipeline errors. Unsupported and empty files abort an import; invalid rows
// and duplicates are counted and never abort; persistence failures are
// surfaced to the caller, which decides whether to continue in memory.
var (
	ErrUnsupportedFormat      = errors.New("unsupported file format")
	ErrEmptyFile              = errors.New("empty file: no data rows")
	ErrRowInvalid             = errors.New("row invalid")
	ErrDuplicateEntry         = errors.New("duplicate entry")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
