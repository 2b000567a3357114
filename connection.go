package podrm

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite"
)

// Option configures a Connection at construction time
type Option func(*Connection)

// WithLogger sets the logger statements and operations are logged to.
func WithLogger(logger log.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithMetrics records every CRUD operation issued through the connection.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Connection) {
		c.metrics = metrics
	}
}

// Connection owns one handle to an SQLite database. It is not safe for
// concurrent use.
type Connection struct {
	conn    *sqlite.Conn
	logger  log.Logger
	metrics *Metrics

	// results that still hold a compiled statement
	results map[*Result]struct{}
}

// FromRaw takes ownership of an already open handle and enables foreign
// key enforcement on it.
func FromRaw(conn *sqlite.Conn, opts ...Option) (*Connection, error) {
	if conn == nil {
		return nil, errors.New("raw sqlite handle is nil")
	}

	c := &Connection{
		conn:    conn,
		logger:  log.NewNopLogger(),
		results: map[*Result]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Execute("PRAGMA foreign_keys = ON;"); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "enabling foreign keys")
	}

	return c, nil
}

// InMemory opens a new private in-memory database. The name only labels
// the database; nothing is written to disk.
func InMemory(name string, opts ...Option) (*Connection, error) {
	uri := fmt.Sprintf("file:%s?mode=memory", url.PathEscape(name))
	conn, err := sqlite.OpenConn(uri, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenURI, sqlite.OpenMemory)
	if err != nil {
		return nil, errors.Wrapf(err, "opening in-memory database %q", name)
	}

	return FromRaw(conn, opts...)
}

// InFile opens the database file at path, creating it if needed.
func InFile(path string, opts ...Option) (*Connection, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database file %q", path)
	}

	return FromRaw(conn, opts...)
}

// Raw returns the underlying handle. It stays owned by the Connection.
func (c *Connection) Raw() *sqlite.Conn {
	return c.conn
}

func (c *Connection) prepare(query string, args []Value) (*sqlite.Stmt, error) {
	if c.conn == nil {
		return nil, ErrConnectionClosed
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty statement")
	}

	level.Debug(c.logger).Log("msg", "preparing statement", "sql", query, "args", len(args))

	stmt, trailing, err := c.conn.PrepareTransient(query)
	if err != nil {
		return nil, statementError(query, err)
	}
	if stmt == nil {
		return nil, errors.Errorf("no statement in %q", query)
	}

	// Only whitespace and comments may follow the statement
	if rest := query[len(query)-trailing:]; !blank(rest) {
		_ = stmt.Finalize()
		return nil, errors.Wrapf(ErrMultipleStatements, "trailing %q", rest)
	}

	if n := stmt.BindParamCount(); n != len(args) {
		_ = stmt.Finalize()
		return nil, errors.Wrapf(ErrArgumentCount, "statement %q takes %d, got %d", query, n, len(args))
	}

	for i, arg := range args {
		arg.bind(stmt, i+1)
	}

	return stmt, nil
}

// Execute runs a statement that is not expected to produce rows. Any rows
// it does produce are discarded.
func (c *Connection) Execute(query string, args ...Value) error {
	stmt, err := c.prepare(query, args)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return statementError(query, err)
		}
		if !hasRow {
			return nil
		}
	}
}

// Query compiles and binds a statement. The returned Result has no current
// row until NextRow is called.
func (c *Connection) Query(query string, args ...Value) (*Result, error) {
	stmt, err := c.prepare(query, args)
	if err != nil {
		return nil, err
	}

	columns := make([]string, stmt.ColumnCount())
	for i := range columns {
		columns[i] = stmt.ColumnName(i)
	}

	r := &Result{
		conn:    c,
		sql:     query,
		stmt:    stmt,
		columns: columns,
	}
	c.results[r] = struct{}{}
	return r, nil
}

// Changes is the number of rows modified by the last completed
// INSERT, UPDATE or DELETE.
func (c *Connection) Changes() int {
	if c.conn == nil {
		return 0
	}
	return c.conn.Changes()
}

func (c *Connection) LastInsertRowID() int64 {
	if c.conn == nil {
		return 0
	}
	return c.conn.LastInsertRowID()
}

// Close finalizes every live Result and closes the handle. Closing twice
// is a no-op.
func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}

	for r := range c.results {
		r.finalize()
	}

	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		level.Warn(c.logger).Log("msg", "closing connection", "err", err)
		return errors.Wrap(err, "closing connection")
	}

	return nil
}

func blank(source string) bool {
	tokens, err := lex(source)
	return err == nil && len(tokens) == 0
}
