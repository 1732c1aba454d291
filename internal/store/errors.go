package store

import (
	"errors"
	"fmt"
)

// ErrPersistence matches every error returned by a mutating store operation
var ErrPersistence = errors.New("persistence error")

// PersistenceError reports a failed write: storage unavailable or a
// constraint violation
type PersistenceError struct {
	Op    string
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func persistErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Table: table, Err: err}
}
