package podrm

import (
	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite"
)

// Result is a cursor over the rows of a compiled statement. It owns the
// statement until it is exhausted or closed.
type Result struct {
	conn    *Connection
	sql     string
	stmt    *sqlite.Stmt
	columns []string

	hasRow bool
	// generation changes on every cursor move, invalidating older Rows
	generation uint64
}

func (r *Result) ColumnCount() int {
	return len(r.columns)
}

func (r *Result) ColumnNames() []string {
	return append([]string(nil), r.columns...)
}

// NextRow advances the cursor. It returns false once the statement is
// exhausted; the statement is released at that point and later calls keep
// returning false.
func (r *Result) NextRow() (bool, error) {
	if r.conn.conn == nil {
		return false, ErrConnectionClosed
	}
	if r.stmt == nil {
		return false, nil
	}

	hasRow, err := r.stmt.Step()
	if err != nil {
		r.finalize()
		return false, statementError(r.sql, err)
	}
	if !hasRow {
		r.finalize()
		return false, nil
	}

	r.hasRow = true
	r.generation++
	return true, nil
}

// Row returns the current row, if any.
func (r *Result) Row() (Row, bool) {
	if !r.hasRow || r.stmt == nil {
		return Row{}, false
	}

	return Row{
		result:      r,
		generation:  r.generation,
		columnCount: len(r.columns),
	}, true
}

// Close releases the statement. It is safe to call on an exhausted Result.
func (r *Result) Close() error {
	r.finalize()
	return nil
}

func (r *Result) finalize() {
	if r.stmt != nil {
		_ = r.stmt.Finalize()
		r.stmt = nil
	}
	r.hasRow = false
	r.generation++
	delete(r.conn.results, r)
}

// Row is a view of the current row of a Result. It is valid until the
// Result moves.
type Row struct {
	result      *Result
	generation  uint64
	columnCount int
}

func (row Row) ColumnCount() int {
	return row.columnCount
}

func (row Row) check(column int) error {
	if column < 0 || column >= row.columnCount {
		return errors.Wrapf(ErrColumnOutOfRange, "column %d of %d", column, row.columnCount)
	}

	r := row.result
	if r == nil {
		return ErrStaleRow
	}
	if r.conn.conn == nil {
		return ErrConnectionClosed
	}
	if r.stmt == nil || !r.hasRow || r.generation != row.generation {
		return ErrStaleRow
	}

	return nil
}

// Get returns an accessor for the 0-based column.
func (row Row) Get(column int) (Entry, error) {
	if err := row.check(column); err != nil {
		return Entry{}, err
	}

	return Entry{row: row, column: column}, nil
}

// Values reads every column in order.
func (row Row) Values() ([]Value, error) {
	values := make([]Value, row.columnCount)
	for i := range values {
		entry, err := row.Get(i)
		if err != nil {
			return nil, err
		}

		values[i], err = entry.Value()
		if err != nil {
			return nil, err
		}
	}

	return values, nil
}

// Entry is a single column of a Row.
type Entry struct {
	row    Row
	column int
}

func (e Entry) Column() int {
	return e.column
}

func (e Entry) stmt() (*sqlite.Stmt, error) {
	if err := e.row.check(e.column); err != nil {
		return nil, err
	}
	return e.row.result.stmt, nil
}

func (e Entry) Text() (string, error) {
	stmt, err := e.stmt()
	if err != nil {
		return "", err
	}
	return stmt.ColumnText(e.column), nil
}

func (e Entry) Bigint() (int64, error) {
	stmt, err := e.stmt()
	if err != nil {
		return 0, err
	}
	return stmt.ColumnInt64(e.column), nil
}

// Boolean reads the column as an integer, non-zero being true.
func (e Entry) Boolean() (bool, error) {
	i, err := e.Bigint()
	return i != 0, err
}

func (e Entry) Float() (float64, error) {
	stmt, err := e.stmt()
	if err != nil {
		return 0, err
	}
	return stmt.ColumnFloat(e.column), nil
}

// Blob returns a copy of the column bytes.
func (e Entry) Blob() ([]byte, error) {
	stmt, err := e.stmt()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, stmt.ColumnLen(e.column))
	stmt.ColumnBytes(e.column, buf)
	return buf, nil
}

func (e Entry) IsNull() (bool, error) {
	stmt, err := e.stmt()
	if err != nil {
		return false, err
	}
	return stmt.ColumnType(e.column) == sqlite.TypeNull, nil
}

// Value returns the column as the variant matching its stored type.
func (e Entry) Value() (Value, error) {
	stmt, err := e.stmt()
	if err != nil {
		return Value{}, err
	}

	switch stmt.ColumnType(e.column) {
	case sqlite.TypeInteger:
		return Int(stmt.ColumnInt64(e.column)), nil
	case sqlite.TypeFloat:
		return Float(stmt.ColumnFloat(e.column)), nil
	case sqlite.TypeText:
		return Text(stmt.ColumnText(e.column)), nil
	case sqlite.TypeBlob:
		b, err := e.Blob()
		return Blob(b), err
	}

	return Null(), nil
}
