package podrm

import (
	"fmt"

	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite"
)

var (
	// ErrColumnOutOfRange is returned when a column index is outside of the row
	ErrColumnOutOfRange = errors.New("column index out of range")
	// ErrStaleRow is returned when a Row or Entry is used after its Result moved on
	ErrStaleRow = errors.New("row is no longer current")
	// ErrConnectionClosed is returned on use of a closed Connection or one of its results
	ErrConnectionClosed   = errors.New("connection is closed")
	ErrArgumentCount      = errors.New("argument count does not match statement parameters")
	ErrMultipleStatements = errors.New("more than one statement in query")
	// ErrKindMismatch is returned when a value's active variant differs from
	// the requested or declared one
	ErrKindMismatch = errors.New("value kind mismatch")

	// ErrForeignKeyViolation matches engine failures caused by a foreign key
	// constraint, see StatementError.Is
	ErrForeignKeyViolation = errors.New("foreign key constraint violated")
	// ErrNotFound is returned when erase or update addressed no row
	ErrNotFound = errors.New("no row with identifier")
	// ErrDecode is returned when find produced a row that does not fit the entity
	ErrDecode = errors.New("cannot decode row into entity")

	ErrInvalidDescription = errors.New("invalid entity description")
	ErrDuplicateEntity    = errors.New("entity already registered")
	ErrUnknownEntity      = errors.New("entity not registered")
	ErrInvalidConfig      = errors.New("invalid config")
)

// StatementError is an engine rejection of a statement.
type StatementError struct {
	SQL  string
	Code sqlite.ResultCode
	Err  error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %q: %v", e.SQL, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

func (e *StatementError) Is(target error) bool {
	return target == ErrForeignKeyViolation && e.Code == sqlite.ResultConstraintForeignKey
}

func statementError(sql string, err error) error {
	if err == nil {
		return nil
	}

	return &StatementError{
		SQL:  sql,
		Code: sqlite.ErrCode(err),
		Err:  err,
	}
}
