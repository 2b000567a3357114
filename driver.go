package podrm

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DriverName is the name the database/sql driver is registered under.
const DriverName = "podrm"

// memoryPrefix selects an in-memory database in a data source name, as in
// "memory:library". Any other name is a file path.
const memoryPrefix = "memory:"

type Rows struct {
	result *Result
}

func (r *Rows) Columns() []string {
	return r.result.ColumnNames()
}

func (r *Rows) Close() error {
	return r.result.Close()
}

func (r *Rows) Next(dest []driver.Value) error {
	ok, err := r.result.NextRow()
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}

	row, _ := r.result.Row()
	values, err := row.Values()
	if err != nil {
		return err
	}

	for i, v := range values {
		if i >= len(dest) {
			break
		}
		dest[i] = driverValue(v)
	}

	return nil
}

func driverValue(v Value) driver.Value {
	switch v.Kind() {
	case BlobKind:
		return v.b
	case FloatKind:
		return v.f
	case IntKind:
		return v.i
	case TextKind:
		return v.s
	}

	return nil
}

func fromDriverValue(v driver.Value) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case bool:
		return Bool(t), nil
	case []byte:
		return Blob(append([]byte(nil), t...)), nil
	case string:
		return Text(t), nil
	case time.Time:
		return Text(t.Format(time.RFC3339Nano)), nil
	}

	return Value{}, errors.Wrapf(ErrKindMismatch, "unsupported argument type %T", v)
}

func fromDriverValues(args []driver.Value) ([]Value, error) {
	values := make([]Value, len(args))
	for i, arg := range args {
		v, err := fromDriverValue(arg)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	return values, nil
}

type execResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r execResult) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

func (r execResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

type Conn struct {
	conn *Connection
}

func (dc *Conn) Query(query string, args []driver.Value) (driver.Rows, error) {
	values, err := fromDriverValues(args)
	if err != nil {
		return nil, err
	}

	result, err := dc.conn.Query(query, values...)
	if err != nil {
		return nil, err
	}

	return &Rows{result: result}, nil
}

func (dc *Conn) Exec(query string, args []driver.Value) (driver.Result, error) {
	values, err := fromDriverValues(args)
	if err != nil {
		return nil, err
	}

	if err := dc.conn.Execute(query, values...); err != nil {
		return nil, err
	}

	return execResult{
		lastInsertID: dc.conn.LastInsertRowID(),
		rowsAffected: int64(dc.conn.Changes()),
	}, nil
}

func (dc *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{conn: dc, query: query}, nil
}

func (dc *Conn) Begin() (driver.Tx, error) {
	if err := dc.conn.Execute("BEGIN;"); err != nil {
		return nil, err
	}

	return &Tx{conn: dc.conn}, nil
}

func (dc *Conn) Close() error {
	return dc.conn.Close()
}

// Stmt defers compilation to execution time, where the argument count is
// checked against the statement parameters.
type Stmt struct {
	conn  *Conn
	query string
}

func (s *Stmt) Close() error {
	return nil
}

func (s *Stmt) NumInput() int {
	return -1
}

func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.conn.Exec(s.query, args)
}

func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.conn.Query(s.query, args)
}

type Tx struct {
	conn *Connection
}

func (tx *Tx) Commit() error {
	return tx.conn.Execute("COMMIT;")
}

func (tx *Tx) Rollback() error {
	return tx.conn.Execute("ROLLBACK;")
}

// Driver opens podrm connections for database/sql. A name starting with
// "memory:" opens a private in-memory database, anything else is a file.
type Driver struct {
	Options []Option
}

func (d *Driver) Open(name string) (driver.Conn, error) {
	var conn *Connection
	var err error
	if strings.HasPrefix(name, memoryPrefix) {
		conn, err = InMemory(strings.TrimPrefix(name, memoryPrefix), d.Options...)
	} else {
		conn, err = InFile(name, d.Options...)
	}
	if err != nil {
		return nil, err
	}

	return &Conn{conn: conn}, nil
}

func init() {
	sql.Register(DriverName, &Driver{})
}
