// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned for a row or column index outside the model.
	ErrOutOfRange = errors.New("index out of range")

	// ErrReadOnly is returned when editing a result that has no target
	// table or no row identifiers.
	ErrReadOnly = errors.New("result is read-only")

	// ErrEmptyValue is returned for a filter condition with no value.
	ErrEmptyValue = errors.New("filter value is empty")

	// ErrUnknownRow is returned for a row identifier the model does not hold.
	ErrUnknownRow = errors.New("unknown row identifier")

	// ErrNoTable is returned when a table name is required but missing.
	ErrNoTable = errors.New("no table name")

	// ErrRowIDs is returned when a writer commits a batch but reports the
	// wrong number of inserted row ids. The changes are saved; a reload
	// shows any inserted rows the model could not keep.
	ErrRowIDs = errors.New("writer returned wrong number of row ids")
)

// QueryError reports a failed query with the engine's error code and message.
type QueryError struct {
	Code    int
	Message string
	SQL     string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("query failed (%d): %s", e.Code, e.Message)
	}
	return "query failed: " + e.Message
}

func (e *QueryError) Unwrap() error { return e.Err }

// WriteError is returned by a Writer when a statement in the batch fails.
// Index is the position of the failing statement in the batch.
type WriteError struct {
	Index int
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("statement %d: %v", e.Index, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CommitError reports which generated statement failed during Save.
// Row is the model row index the statement was built from.
type CommitError struct {
	Index     int
	Row       int
	RowID     int64
	Statement Statement
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit: %s of row %d (statement %d) failed: %v",
		e.Statement.Kind, e.Row, e.Index, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

func outOfRange(what string, i, n int) error {
	return fmt.Errorf("%s %d of %d: %w", what, i, n, ErrOutOfRange)
}
