package podrm

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()

	db, err := sql.Open(DriverName, name)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestDriver(t *testing.T) {
	db := openTestDB(t, memoryPrefix+t.Name())

	_, err := db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER, avatar BLOB);`)
	require.NoError(t, err)

	res, err := db.Exec(`INSERT INTO users (name, age, avatar) VALUES (?, ?, ?);`, "Terry", 45, []byte{1})
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.Exec(`INSERT INTO users (name, age, avatar) VALUES (?, ?, ?);`, "Anette", 57, nil)
	require.NoError(t, err)

	rows, err := db.Query(`SELECT name, age, avatar FROM users ORDER BY id;`)
	require.NoError(t, err)
	defer rows.Close()

	columns, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "avatar"}, columns)

	var names []string
	var ages []int
	var avatars [][]byte
	for rows.Next() {
		var name string
		var age int
		var avatar []byte
		require.NoError(t, rows.Scan(&name, &age, &avatar))
		names = append(names, name)
		ages = append(ages, age)
		avatars = append(avatars, avatar)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{"Terry", "Anette"}, names)
	assert.Equal(t, []int{45, 57}, ages)
	assert.Equal(t, [][]byte{{1}, nil}, avatars)
}

func TestDriver_transactions(t *testing.T) {
	db := openTestDB(t, memoryPrefix+t.Name())

	_, err := db.Exec(`CREATE TABLE t (i INTEGER);`)
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Exec(`INSERT INTO t VALUES (?);`, 1)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	tx, err = db.Begin()
	require.NoError(t, err)
	_, err = tx.Exec(`INSERT INTO t VALUES (?);`, 2)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var count, sum int
	require.NoError(t, db.QueryRow(`SELECT count(*), sum(i) FROM t;`).Scan(&count, &sum))
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, sum)
}

func TestDriver_errors(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "driver.db"))

	_, err := db.Exec(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE b (a INTEGER REFERENCES a (id));`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO b VALUES (?);`, 1)
	assert.True(t, errors.Is(err, ErrForeignKeyViolation))

	_, err = db.Exec(`INSERT INTO a VALUES (?);`)
	assert.True(t, errors.Is(err, ErrArgumentCount))
}

type testUser struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func TestDriver_sqlx(t *testing.T) {
	db := sqlx.NewDb(openTestDB(t, memoryPrefix+t.Name()), DriverName)

	_, err := db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);`)
	require.NoError(t, err)

	for _, u := range []testUser{{1, "Terry"}, {2, "Anette"}} {
		_, err = db.NamedExec(`INSERT INTO users (id, name) VALUES (:id, :name);`, u)
		require.NoError(t, err)
	}

	var u testUser
	require.NoError(t, sqlx.Get(db, &u, `SELECT id, name FROM users WHERE id = ?;`, 2))
	assert.Equal(t, testUser{2, "Anette"}, u)

	var users []testUser
	require.NoError(t, db.Select(&users, `SELECT id, name FROM users ORDER BY id;`))
	assert.Equal(t, []testUser{{1, "Terry"}, {2, "Anette"}}, users)
}
