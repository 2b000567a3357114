package podrm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToken_lexNumeric(t *testing.T) {
	tests := []struct {
		number bool
		value  string
	}{
		{
			number: true,
			value:  "105",
		},
		{
			number: true,
			value:  "105 ",
		},
		{
			number: true,
			value:  "123.",
		},
		{
			number: true,
			value:  "123.145",
		},
		{
			number: true,
			value:  "1e5",
		},
		{
			number: true,
			value:  "1.e21",
		},
		{
			number: true,
			value:  "1.1e2",
		},
		{
			number: true,
			value:  "1.1e-2",
		},
		{
			number: true,
			value:  "1.1E+2",
		},
		{
			number: true,
			value:  ".1",
		},
		{
			number: true,
			value:  "4.",
		},
		// false tests
		{
			number: false,
			value:  "e4",
		},
		{
			number: false,
			value:  "1..",
		},
		{
			number: false,
			value:  "1ee4",
		},
		{
			number: false,
			value:  "1e",
		},
		{
			number: false,
			value:  ".",
		},
		{
			number: false,
			value:  " 1",
		},
	}

	for _, test := range tests {
		tok, _, ok := lexNumeric(test.value, cursor{})
		assert.Equal(t, test.number, ok, test.value)
		if ok {
			assert.Equal(t, strings.TrimSpace(test.value), tok.value, test.value)
		}
	}
}

func TestToken_lexString(t *testing.T) {
	tests := []struct {
		string bool
		input  string
		value  string
	}{
		{
			string: true,
			input:  "'abc'",
			value:  "abc",
		},
		{
			string: true,
			input:  "'a;b' ",
			value:  "a;b",
		},
		{
			string: true,
			input:  "'a '' b'",
			value:  "a ' b",
		},
		{
			string: true,
			input:  "''",
			value:  "",
		},
		// false tests
		{
			string: false,
			input:  "a",
		},
		{
			string: false,
			input:  "'",
		},
		{
			string: false,
			input:  "'abc",
		},
		{
			string: false,
			input:  " 'foo'",
		},
	}

	for _, test := range tests {
		tok, _, ok := lexString(test.input, cursor{})
		assert.Equal(t, test.string, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
		}
	}
}

func TestToken_lexSymbol(t *testing.T) {
	tests := []struct {
		symbol bool
		input  string
		value  string
	}{
		{
			symbol: true,
			input:  "= ",
			value:  "=",
		},
		{
			symbol: true,
			input:  "||",
			value:  "||",
		},
		{
			symbol: true,
			input:  "<=",
			value:  "<=",
		},
		{
			symbol: true,
			input:  "!=",
			value:  "<>",
		},
		{
			symbol: true,
			input:  "?",
			value:  "?",
		},
		{
			symbol: true,
			input:  "@x",
			value:  "@",
		},
		// false tests
		{
			symbol: false,
			input:  "'abc",
		},
		{
			symbol: false,
			input:  `"abc`,
		},
		{
			symbol: false,
			input:  "/* open",
		},
	}

	for _, test := range tests {
		tok, _, ok := lexSymbol(test.input, cursor{})
		assert.Equal(t, test.symbol, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
		}
	}
}

func TestToken_lexSpace(t *testing.T) {
	tests := []struct {
		space bool
		input string
		rest  string
	}{
		{
			space: true,
			input: " a",
			rest:  "a",
		},
		{
			space: true,
			input: "-- note; more\nselect",
			rest:  "\nselect",
		},
		{
			space: true,
			input: "/* note; */select",
			rest:  "select",
		},
		// false tests
		{
			space: false,
			input: "/* note",
		},
		{
			space: false,
			input: "-1",
		},
	}

	for _, test := range tests {
		tok, cur, ok := lexSpace(test.input, cursor{})
		assert.Equal(t, test.space, ok, test.input)
		assert.Nil(t, tok, test.input)
		if ok {
			assert.Equal(t, test.rest, test.input[cur.pointer:], test.input)
		}
	}
}

func TestToken_lexIdentifier(t *testing.T) {
	tests := []struct {
		identifier bool
		input      string
		value      string
		kind       tokenKind
	}{
		{
			identifier: true,
			input:      "a",
			value:      "a",
			kind:       identifierKind,
		},
		{
			identifier: true,
			input:      "abc ",
			value:      "abc",
			kind:       identifierKind,
		},
		{
			identifier: true,
			input:      `" abc "`,
			value:      ` abc `,
			kind:       quotedIdentifierKind,
		},
		{
			identifier: true,
			input:      "a9$",
			value:      "a9$",
			kind:       identifierKind,
		},
		{
			identifier: true,
			input:      "_postal_code",
			value:      "_postal_code",
			kind:       identifierKind,
		},
		{
			identifier: true,
			input:      "userName",
			value:      "userName",
			kind:       identifierKind,
		},
		{
			identifier: true,
			input:      "BEGIN",
			value:      "begin",
			kind:       keywordKind,
		},
		{
			identifier: true,
			input:      "Trigger",
			value:      "trigger",
			kind:       keywordKind,
		},
		// false tests
		{
			identifier: false,
			input:      `"`,
		},
		{
			identifier: false,
			input:      "9sadsfa",
		},
		{
			identifier: false,
			input:      " abc",
		},
	}

	for _, test := range tests {
		tok, _, ok := lexIdentifier(test.input, cursor{})
		assert.Equal(t, test.identifier, ok, test.input)
		if ok {
			assert.Equal(t, test.value, tok.value, test.input)
			assert.Equal(t, test.kind, tok.kind, test.input)
		}
	}
}

func TestLex(t *testing.T) {
	tests := []struct {
		input  string
		tokens []token
		err    bool
	}{
		{
			input: "select a",
			tokens: []token{
				{value: "select", kind: identifierKind, pos: 0},
				{value: "a", kind: identifierKind, pos: 7},
			},
		},
		{
			input: "select 'foo' || 'bar';",
			tokens: []token{
				{value: "select", kind: identifierKind, pos: 0},
				{value: "foo", kind: stringKind, pos: 7},
				{value: "||", kind: symbolKind, pos: 13},
				{value: "bar", kind: stringKind, pos: 16},
				{value: ";", kind: symbolKind, pos: 21},
			},
		},
		{
			input: "CREATE TABLE u (id INTEGER)",
			tokens: []token{
				{value: "create", kind: keywordKind, pos: 0},
				{value: "TABLE", kind: identifierKind, pos: 7},
				{value: "u", kind: identifierKind, pos: 13},
				{value: "(", kind: symbolKind, pos: 15},
				{value: "id", kind: identifierKind, pos: 16},
				{value: "INTEGER", kind: identifierKind, pos: 19},
				{value: ")", kind: symbolKind, pos: 26},
			},
		},
		{
			input: "insert into users values (?, -2.5) -- done",
			tokens: []token{
				{value: "insert", kind: identifierKind, pos: 0},
				{value: "into", kind: identifierKind, pos: 7},
				{value: "users", kind: identifierKind, pos: 12},
				{value: "values", kind: identifierKind, pos: 18},
				{value: "(", kind: symbolKind, pos: 25},
				{value: "?", kind: symbolKind, pos: 26},
				{value: ",", kind: symbolKind, pos: 27},
				{value: "-", kind: symbolKind, pos: 29},
				{value: "2.5", kind: numericKind, pos: 30},
				{value: ")", kind: symbolKind, pos: 33},
			},
		},
		{
			input: "select 'unterminated",
			err:   true,
		},
	}

	for _, test := range tests {
		tokens, err := lex(test.input)
		if test.err {
			assert.Error(t, err, test.input)
			continue
		}

		assert.NoError(t, err, test.input)
		assert.Equal(t, len(test.tokens), len(tokens), test.input)
		for i, tok := range tokens {
			if i >= len(test.tokens) {
				break
			}
			assert.Equal(t, test.tokens[i].value, tok.value, test.input)
			assert.Equal(t, test.tokens[i].kind, tok.kind, test.input)
			assert.Equal(t, test.tokens[i].pos, tok.pos, test.input)
		}
	}
}

func TestIsIdentifier(t *testing.T) {
	for _, name := range []string{"Address", "postal_code", "_x", "a1$"} {
		assert.True(t, isIdentifier(name), name)
	}

	for _, name := range []string{"", "1abc", "a b", `"a"`, "a-b", "a;"} {
		assert.False(t, isIdentifier(name), name)
	}
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		input      string
		statements []string
		rest       string
	}{
		{
			input:      "select 1; select 2;",
			statements: []string{"select 1;", "select 2;"},
		},
		{
			input:      "select 1; select",
			statements: []string{"select 1;"},
			rest:       "select",
		},
		{
			input:      "select 'a;b';\n",
			statements: []string{"select 'a;b';"},
		},
		{
			input:      ";;select 1;",
			statements: []string{"select 1;"},
		},
		{
			input: "select 'abc;\n",
			rest:  "select 'abc;",
		},
		{
			input: "select 1 -- comment; still\n",
			rest:  "select 1 -- comment; still",
		},
		{
			input:      "BEGIN; COMMIT;",
			statements: []string{"BEGIN;", "COMMIT;"},
		},
		{
			input:      "CREATE TRIGGER t AFTER INSERT ON a BEGIN UPDATE b SET x = 1; END; select 1;",
			statements: []string{"CREATE TRIGGER t AFTER INSERT ON a BEGIN UPDATE b SET x = 1; END;", "select 1;"},
		},
		{
			input:      "create temp trigger t after insert on a begin select case when 1 then 2 end; end;",
			statements: []string{"create temp trigger t after insert on a begin select case when 1 then 2 end; end;"},
		},
		{
			input: "CREATE TRIGGER t AFTER INSERT ON a BEGIN UPDATE b SET x = 1;",
			rest:  "CREATE TRIGGER t AFTER INSERT ON a BEGIN UPDATE b SET x = 1;",
		},
	}

	for _, test := range tests {
		statements, rest := splitStatements(test.input)
		assert.Equal(t, test.statements, statements, test.input)
		assert.Equal(t, test.rest, rest, test.input)
	}
}
