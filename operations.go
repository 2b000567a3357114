package podrm

import (
	"time"

	"github.com/pkg/errors"
)

const tableExistsQuery = "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?;"

func createTable(conn *Connection, d *EntityDescription) error {
	if err := conn.Execute(createTableStatement(d).GenerateCode()); err != nil {
		return errors.Wrapf(err, "creating table %s", d.Table)
	}
	return nil
}

func exists(conn *Connection, d *EntityDescription) (bool, error) {
	result, err := conn.Query(tableExistsQuery, Text(d.Table))
	if err != nil {
		return false, errors.Wrapf(err, "looking up table %s", d.Table)
	}
	defer result.Close()

	return result.NextRow()
}

func checkKey(d *EntityDescription, key Value) error {
	if err := key.checkColumn(d.IDColumn()); err != nil {
		return errors.Wrapf(err, "key of %s", d.Table)
	}
	return nil
}

// decodeRow reads a row of a select built by selectStatement.
func decodeRow(d *EntityDescription, row Row) ([]Value, error) {
	if row.ColumnCount() != len(d.Columns) {
		return nil, errors.Wrapf(ErrDecode, "%s: %d columns for %d", d.Table, row.ColumnCount(), len(d.Columns))
	}

	values, err := row.Values()
	if err != nil {
		return nil, err
	}

	for i, col := range d.Columns {
		if err := values[i].checkColumn(col); err != nil {
			return nil, errors.Wrapf(ErrDecode, "%s: %v", d.Table, err)
		}
	}

	return values, nil
}

// CreateTable creates the entity's table unless it already exists.
func CreateTable[E any](conn *Connection, entity *Entity[E]) error {
	start := time.Now()
	err := createTable(conn, entity.Description)
	conn.record(entity.Description.Table, "create_table", start, outcome(err))
	return err
}

// Exists reports whether the entity's table is in the schema.
func Exists[E any](conn *Connection, entity *Entity[E]) (bool, error) {
	start := time.Now()
	ok, err := exists(conn, entity.Description)
	conn.record(entity.Description.Table, "exists", start, outcome(err))
	return ok, err
}

// Persist inserts record. With Auto identifiers the assigned identifier is
// written back into record. A codec that rejects the identifier is caught
// before the insert; a write-back that fails only for the assigned value
// leaves the row stored.
func Persist[E any](conn *Connection, entity *Entity[E], record *E) (err error) {
	start := time.Now()
	d := entity.Description
	defer func() {
		conn.record(d.Table, "persist", start, outcome(err))
	}()

	auto := d.IDMode == Auto
	values, err := entity.encode(record, auto)
	if err != nil {
		return err
	}

	// Reject codecs that cannot take the identifier back before inserting
	if auto {
		trial := *record
		withID := append([]Value(nil), values...)
		withID[d.ID] = Int(0)
		if err := entity.Codec.Decode(withID, &trial); err != nil {
			return errors.Wrapf(err, "writing back identifier of %s", d.Table)
		}
	}

	args := values
	if auto {
		args = append(append([]Value{}, values[:d.ID]...), values[d.ID+1:]...)
	}

	if err := conn.Execute(insertStatement(d).GenerateCode(), args...); err != nil {
		return errors.Wrapf(err, "persisting %s", d.Table)
	}

	if !auto {
		return nil
	}

	values[d.ID] = Int(conn.LastInsertRowID())
	if err := entity.Codec.Decode(values, record); err != nil {
		return errors.Wrapf(err, "writing back identifier of %s", d.Table)
	}

	return nil
}

// Find loads the entity whose identifier equals key. A missing row is
// reported by found, not by err.
func Find[E any](conn *Connection, entity *Entity[E], key Value) (record E, found bool, err error) {
	start := time.Now()
	d := entity.Description
	defer func() {
		status := outcome(err)
		if err == nil && !found {
			status = statusNotFound
		}
		conn.record(d.Table, "find", start, status)
	}()

	if err := checkKey(d, key); err != nil {
		return record, false, err
	}

	result, err := conn.Query(selectStatement(d).GenerateCode(), key)
	if err != nil {
		return record, false, errors.Wrapf(err, "finding %s", d.Table)
	}
	defer result.Close()

	ok, err := result.NextRow()
	if err != nil {
		return record, false, errors.Wrapf(err, "finding %s", d.Table)
	}
	if !ok {
		return record, false, nil
	}

	row, _ := result.Row()
	values, err := decodeRow(d, row)
	if err != nil {
		return record, false, err
	}

	if err := entity.Codec.Decode(values, &record); err != nil {
		return record, false, errors.Wrapf(ErrDecode, "%s: %v", d.Table, err)
	}

	return record, true, nil
}

// Erase deletes the entity whose identifier equals key. It fails when no
// such entity exists or another entity still references it.
func Erase[E any](conn *Connection, entity *Entity[E], key Value) (err error) {
	start := time.Now()
	d := entity.Description
	defer func() {
		conn.record(d.Table, "erase", start, outcome(err))
	}()

	if err := checkKey(d, key); err != nil {
		return err
	}

	if err := conn.Execute(deleteStatement(d).GenerateCode(), key); err != nil {
		return errors.Wrapf(err, "erasing %s %s", d.Table, key)
	}

	if conn.Changes() == 0 {
		return errors.Wrapf(ErrNotFound, "erasing %s %s", d.Table, key)
	}

	return nil
}

// Update overwrites every non-identifier column of the stored entity with
// the identifier of record.
func Update[E any](conn *Connection, entity *Entity[E], record *E) (err error) {
	start := time.Now()
	d := entity.Description
	defer func() {
		conn.record(d.Table, "update", start, outcome(err))
	}()

	values, err := entity.encode(record, false)
	if err != nil {
		return err
	}

	key := values[d.ID]
	args := append(append([]Value{}, values[:d.ID]...), values[d.ID+1:]...)
	args = append(args, key)

	if err := conn.Execute(updateStatement(d).GenerateCode(), args...); err != nil {
		return errors.Wrapf(err, "updating %s %s", d.Table, key)
	}

	if conn.Changes() == 0 {
		return errors.Wrapf(ErrNotFound, "updating %s %s", d.Table, key)
	}

	return nil
}
