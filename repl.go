package podrm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite/sqlitex"
)

const listTablesQuery = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name;`

const describeColumnsQuery = `SELECT name, type, "notnull", pk FROM pragma_table_info(?);`

const describeForeignKeysQuery = `SELECT "from", "table", "to" FROM pragma_foreign_key_list(?);`

func displayValue(v Value) string {
	switch v.Kind() {
	case TextKind:
		s, _ := v.AsText()
		return s
	case nullKind:
		return ""
	}

	return v.String()
}

// queryStrings runs query and renders every cell as text.
func queryStrings(conn *Connection, query string, args ...Value) ([]string, [][]string, error) {
	result, err := conn.Query(query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer result.Close()

	rows := [][]string{}
	for {
		ok, err := result.NextRow()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}

		row, _ := result.Row()
		values, err := row.Values()
		if err != nil {
			return nil, nil, err
		}

		cells := []string{}
		for _, v := range values {
			cells = append(cells, displayValue(v))
		}
		rows = append(rows, cells)
	}

	return result.ColumnNames(), rows, nil
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	return table
}

func doQuery(out io.Writer, conn *Connection, query string) error {
	header, rows, err := queryStrings(conn, query)
	if err != nil {
		return err
	}

	// Statements without result columns only report success
	if len(header) == 0 {
		return nil
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "(no results)")
		return nil
	}

	table := newTable(out, header)
	table.AppendBulk(rows)
	table.Render()

	if len(rows) == 1 {
		fmt.Fprintln(out, "(1 result)")
	} else {
		fmt.Fprintf(out, "(%d results)\n", len(rows))
	}

	return nil
}

func debugTable(out io.Writer, conn *Connection, name string) error {
	// psql behavior is to display all if no name is specified.
	if name == "" {
		return debugTables(out, conn)
	}

	_, columns, err := queryStrings(conn, describeColumnsQuery, Text(name))
	if err != nil {
		return err
	}

	if len(columns) == 0 {
		fmt.Fprintf(out, "Did not find any relation named \"%s\".\n", name)
		return nil
	}

	fmt.Fprintf(out, "Table \"%s\"\n", name)

	rows := [][]string{}
	for _, c := range columns {
		nullable := ""
		if c[2] != "0" {
			nullable = "not null"
		}
		key := ""
		if c[3] != "0" {
			key = "primary key"
		}
		rows = append(rows, []string{c[0], strings.ToLower(c[1]), nullable, key})
	}

	table := newTable(out, []string{"Column", "Type", "Nullable", "Key"})
	table.AppendBulk(rows)
	table.Render()

	_, fks, err := queryStrings(conn, describeForeignKeysQuery, Text(name))
	if err != nil {
		return err
	}

	if len(fks) > 0 {
		fmt.Fprintln(out, "Foreign-key constraints:")
	}
	for _, fk := range fks {
		fmt.Fprintf(out, "\tFOREIGN KEY (\"%s\") REFERENCES \"%s\" (\"%s\")\n", fk[0], fk[1], fk[2])
	}

	fmt.Fprintln(out, "")
	return nil
}

func debugTables(out io.Writer, conn *Connection) error {
	_, tables, err := queryStrings(conn, listTablesQuery)
	if err != nil {
		return err
	}

	if len(tables) == 0 {
		fmt.Fprintln(out, "Did not find any relations.")
		return nil
	}

	fmt.Fprintln(out, "List of relations")

	rows := [][]string{}
	for _, t := range tables {
		rows = append(rows, []string{t[0], "table"})
	}

	table := newTable(out, []string{"Name", "Type"})
	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintln(out, "")
	return nil
}

func debugEntities(out io.Writer, registry *Registry) {
	if registry == nil || registry.Len() == 0 {
		fmt.Fprintln(out, "Did not find any entities.")
		return
	}

	rows := [][]string{}
	for _, d := range registry.Descriptions() {
		refs := []string{}
		for _, fk := range d.ForeignKeys {
			refs = append(refs, fmt.Sprintf("%s -> %s", d.Columns[fk.Column].Name, d.Target(fk).Table))
		}
		rows = append(rows, []string{d.Table, d.IDColumn().Name, d.IDMode.String(), fmt.Sprintf("%d", len(d.Columns)), strings.Join(refs, ", ")})
	}

	table := newTable(out, []string{"Entity", "Identifier", "Id mode", "Columns", "References"})
	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintln(out, "")
}

func debugStatements(out io.Writer, registry *Registry, name string) {
	if registry == nil {
		fmt.Fprintf(out, "Did not find any entity named \"%s\".\n", name)
		return
	}

	d, ok := registry.Lookup(name)
	if !ok {
		fmt.Fprintf(out, "Did not find any entity named \"%s\".\n", name)
		return
	}

	for _, stmt := range Statements(d) {
		fmt.Fprintf(out, "-- %s\n%s\n", stmt.Kind, stmt.GenerateCode())
	}
	fmt.Fprintln(out, "")
}

func runScript(conn *Connection, filename string) error {
	script, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return sqlitex.ExecuteScript(conn.Raw(), string(script), nil)
}

// runMeta handles backslash commands. It reports false for anything else.
func runMeta(out io.Writer, conn *Connection, registry *Registry, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "\\") {
		return false, nil
	}

	arg := strings.TrimSpace(line[len(fields[0]):])
	switch fields[0] {
	case "\\dt":
		return true, debugTables(out, conn)
	case "\\d":
		return true, debugTable(out, conn, arg)
	case "\\e":
		debugEntities(out, registry)
		return true, nil
	case "\\s":
		debugStatements(out, registry, arg)
		return true, nil
	case "\\i":
		return true, runScript(conn, arg)
	}

	return true, errors.Errorf("unknown command %s", fields[0])
}

// RunRepl reads statements from the terminal and runs them on conn until
// the user quits. registry may be nil.
func RunRepl(conn *Connection, registry *Registry) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "# ",
		HistoryFile:     "/tmp/podrm_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()

	out := l.Stdout()
	fmt.Fprintln(out, "Welcome to podrm.")

	pending := ""
repl:
	for {
		if pending == "" {
			l.SetPrompt("# ")
		} else {
			l.SetPrompt("- ")
		}

		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 && pending == "" {
				break
			}
			pending = ""
			continue repl
		} else if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(out, "Error while reading line:", err)
			continue repl
		}

		trimmed := strings.TrimSpace(line)
		if pending == "" {
			if trimmed == "quit" || trimmed == "exit" || trimmed == "\\q" {
				break
			}

			handled, err := runMeta(out, conn, registry, trimmed)
			if err != nil {
				fmt.Fprintln(out, "Error:", err)
				continue repl
			}
			if handled {
				continue repl
			}
		}

		statements, rest := splitStatements(pending + line + "\n")
		pending = rest
		if rest != "" {
			pending += "\n"
		}

		for _, stmt := range statements {
			if err := doQuery(out, conn, stmt); err != nil {
				fmt.Fprintln(out, "Error:", err)
				continue repl
			}
		}

		if len(statements) > 0 {
			fmt.Fprintln(out, "ok")
		}
	}
}
