package podrm

import (
	"fmt"
	"strings"
)

// quote renders name as a double-quoted identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quote(name)
	}
	return quoted
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type columnDefinition struct {
	name          string
	datatype      string
	primaryKey    bool
	autoIncrement bool
	notNull       bool
}

type foreignKeyDefinition struct {
	column     string
	table      string
	references string
}

type CreateTableStatement struct {
	name        string
	ifNotExists bool
	cols        []*columnDefinition
	foreignKeys []*foreignKeyDefinition
}

func (cts CreateTableStatement) GenerateCode() string {
	defs := []string{}
	for _, col := range cts.cols {
		modifiers := ""
		if col.primaryKey {
			modifiers += " PRIMARY KEY"
		}
		if col.autoIncrement {
			modifiers += " AUTOINCREMENT"
		}
		if col.notNull {
			modifiers += " NOT NULL"
		}
		defs = append(defs, fmt.Sprintf("\t%s %s%s", quote(col.name), col.datatype, modifiers))
	}

	for _, fk := range cts.foreignKeys {
		defs = append(defs, fmt.Sprintf("\tFOREIGN KEY (%s) REFERENCES %s (%s)", quote(fk.column), quote(fk.table), quote(fk.references)))
	}

	ifNotExists := ""
	if cts.ifNotExists {
		ifNotExists = " IF NOT EXISTS"
	}

	return fmt.Sprintf("CREATE TABLE%s %s (\n%s\n);", ifNotExists, quote(cts.name), strings.Join(defs, ",\n"))
}

// SelectStatement selects cols of the rows whose where column equals the
// single parameter.
type SelectStatement struct {
	table string
	cols  []string
	where string
}

func (ss SelectStatement) GenerateCode() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?;", strings.Join(quoteAll(ss.cols), ", "), quote(ss.table), quote(ss.where))
}

type InsertStatement struct {
	table string
	cols  []string
}

func (is InsertStatement) GenerateCode() string {
	if len(is.cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES;", quote(is.table))
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);", quote(is.table), strings.Join(quoteAll(is.cols), ", "), placeholders(len(is.cols)))
}

// UpdateStatement sets cols, in order, then binds the where column last.
type UpdateStatement struct {
	table string
	cols  []string
	where string
}

func (us UpdateStatement) GenerateCode() string {
	sets := []string{}
	for _, col := range us.cols {
		sets = append(sets, quote(col)+" = ?")
	}

	// Nothing to set still has to address the row
	if len(sets) == 0 {
		sets = append(sets, quote(us.where)+" = "+quote(us.where))
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?;", quote(us.table), strings.Join(sets, ", "), quote(us.where))
}

type DeleteStatement struct {
	table string
	where string
}

func (ds DeleteStatement) GenerateCode() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?;", quote(ds.table), quote(ds.where))
}

type AstKind uint

const (
	CreateTableKind AstKind = iota
	SelectKind
	InsertKind
	UpdateKind
	DeleteKind
)

func (k AstKind) String() string {
	switch k {
	case CreateTableKind:
		return "create table"
	case SelectKind:
		return "select"
	case InsertKind:
		return "insert"
	case UpdateKind:
		return "update"
	case DeleteKind:
		return "delete"
	default:
		return "?unknown?"
	}
}

type Statement struct {
	CreateTableStatement *CreateTableStatement
	SelectStatement      *SelectStatement
	InsertStatement      *InsertStatement
	UpdateStatement      *UpdateStatement
	DeleteStatement      *DeleteStatement
	Kind                 AstKind
}

func (s Statement) GenerateCode() string {
	switch s.Kind {
	case CreateTableKind:
		return s.CreateTableStatement.GenerateCode()
	case SelectKind:
		return s.SelectStatement.GenerateCode()
	case InsertKind:
		return s.InsertStatement.GenerateCode()
	case UpdateKind:
		return s.UpdateStatement.GenerateCode()
	case DeleteKind:
		return s.DeleteStatement.GenerateCode()
	}

	return "?unknown?"
}

func columnNames(d *EntityDescription) []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// nonIDColumns lists every column but the identifier, in declared order.
func nonIDColumns(d *EntityDescription) []string {
	names := []string{}
	for i, col := range d.Columns {
		if i != d.ID {
			names = append(names, col.Name)
		}
	}
	return names
}

func createTableStatement(d *EntityDescription) *CreateTableStatement {
	cts := &CreateTableStatement{
		name:        d.Table,
		ifNotExists: true,
	}

	for i, col := range d.Columns {
		isID := i == d.ID
		cts.cols = append(cts.cols, &columnDefinition{
			name:          col.Name,
			datatype:      col.Kind.datatype(),
			primaryKey:    isID,
			autoIncrement: isID && d.IDMode == Auto,
			notNull:       !col.Nullable,
		})
	}

	for _, fk := range d.ForeignKeys {
		target := d.Target(fk)
		cts.foreignKeys = append(cts.foreignKeys, &foreignKeyDefinition{
			column:     d.Columns[fk.Column].Name,
			table:      target.Table,
			references: target.IDColumn().Name,
		})
	}

	return cts
}

func selectStatement(d *EntityDescription) *SelectStatement {
	return &SelectStatement{
		table: d.Table,
		cols:  columnNames(d),
		where: d.IDColumn().Name,
	}
}

// insertStatement leaves out an engine-assigned identifier.
func insertStatement(d *EntityDescription) *InsertStatement {
	cols := columnNames(d)
	if d.IDMode == Auto {
		cols = nonIDColumns(d)
	}

	return &InsertStatement{
		table: d.Table,
		cols:  cols,
	}
}

func updateStatement(d *EntityDescription) *UpdateStatement {
	return &UpdateStatement{
		table: d.Table,
		cols:  nonIDColumns(d),
		where: d.IDColumn().Name,
	}
}

func deleteStatement(d *EntityDescription) *DeleteStatement {
	return &DeleteStatement{
		table: d.Table,
		where: d.IDColumn().Name,
	}
}

// Statements returns every statement the CRUD operations issue for d.
func Statements(d *EntityDescription) []*Statement {
	return []*Statement{
		{Kind: CreateTableKind, CreateTableStatement: createTableStatement(d)},
		{Kind: InsertKind, InsertStatement: insertStatement(d)},
		{Kind: SelectKind, SelectStatement: selectStatement(d)},
		{Kind: UpdateKind, UpdateStatement: updateStatement(d)},
		{Kind: DeleteKind, DeleteStatement: deleteStatement(d)},
	}
}
