package common

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var ErrUnsupported = errors.New("not supported by this store")

// ErrorClass is how a store failure is handled by the loader.
type ErrorClass int

const (
	ClassOther ErrorClass = iota
	ClassDuplicate
	ClassConstraint
	ClassConnection
)

func (c ErrorClass) String() string {
	switch c {
	case ClassDuplicate:
		return "duplicate key"
	case ClassConstraint:
		return "constraint violation"
	case ClassConnection:
		return "connection"
	}
	return "unknown"
}

type ConnectError struct {
	Store    string
	Provider string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot reach %s store (%s) after %d attempt(s): %v", e.Store, e.Provider, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SchemaError means DDL failed part way; the store is left in an indeterminate state.
type SchemaError struct {
	Store     string
	Statement string
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema apply failed on %s store at %q: %v", e.Store, truncate(e.Statement, 120), e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

type InsertError struct {
	Store string
	Kind  string
	Batch int
	Class ErrorClass
	Err   error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert into %s failed (store %s, batch %d, %s): %v", e.Kind, e.Store, e.Batch, e.Class, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// IsConnectionError recognises transport failures independent of the driver.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var ie *InsertError
	if errors.As(err, &ie) {
		return ie.Class == ClassConnection
	}
	var ce *ConnectError
	if errors.As(err, &ce) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
