package podrm

import (
	"fmt"
	"strings"
)

// location of the token in source code
type location struct {
	line uint
	col  uint
}

// for storing SQL reserved keywords the statement splitter cares about
type keyword string

const (
	createKeyword    keyword = "create"
	tempKeyword      keyword = "temp"
	temporaryKeyword keyword = "temporary"
	triggerKeyword   keyword = "trigger"
	beginKeyword     keyword = "begin"
	caseKeyword      keyword = "case"
	endKeyword       keyword = "end"
)

var keywords = map[keyword]struct{}{
	createKeyword:    {},
	tempKeyword:      {},
	temporaryKeyword: {},
	triggerKeyword:   {},
	beginKeyword:     {},
	caseKeyword:      {},
	endKeyword:       {},
}

// for storing SQL syntax
type symbol string

const (
	semicolonSymbol  symbol = ";"
	asteriskSymbol   symbol = "*"
	commaSymbol      symbol = ","
	dotSymbol        symbol = "."
	leftParenSymbol  symbol = "("
	rightParenSymbol symbol = ")"
	eqSymbol         symbol = "="
	neqSymbol        symbol = "<>"
	neqSymbol2       symbol = "!="
	concatSymbol     symbol = "||"
	plusSymbol       symbol = "+"
	minusSymbol      symbol = "-"
	ltSymbol         symbol = "<"
	lteSymbol        symbol = "<="
	gtSymbol         symbol = ">"
	gteSymbol        symbol = ">="
	paramSymbol      symbol = "?"
)

type tokenKind uint

const (
	keywordKind tokenKind = iota
	symbolKind
	identifierKind
	quotedIdentifierKind
	stringKind
	numericKind
)

type token struct {
	value string
	kind  tokenKind
	loc   location
	// byte offset of the token in the source
	pos uint
}

// cursor indicates the current position of the lexer
type cursor struct {
	pointer uint
	loc     location
}

// longestMatch iterates through a source string starting at the given
// cursor to find the longest matching substring among the provided
// options
func longestMatch(source string, ic cursor, options []string) string {
	var match string

	rest := strings.ToLower(source[ic.pointer:])
	for _, option := range options {
		if strings.HasPrefix(rest, option) && len(option) > len(match) {
			match = option
		}
	}

	return match
}

// lexSpace throws away whitespace and comments.
func lexSpace(source string, ic cursor) (*token, cursor, bool) {
	cur := ic

	switch c := source[cur.pointer]; c {
	case '\n':
		cur.pointer++
		cur.loc.line++
		cur.loc.col = 0
		return nil, cur, true
	case '\t', ' ', '\r':
		cur.pointer++
		cur.loc.col++
		return nil, cur, true
	}

	if strings.HasPrefix(source[cur.pointer:], "--") {
		for cur.pointer < uint(len(source)) && source[cur.pointer] != '\n' {
			cur.pointer++
			cur.loc.col++
		}
		return nil, cur, true
	}

	if strings.HasPrefix(source[cur.pointer:], "/*") {
		end := strings.Index(source[cur.pointer+2:], "*/")
		if end < 0 {
			return nil, ic, false
		}
		for _, c := range source[cur.pointer : cur.pointer+2+uint(end)+2] {
			if c == '\n' {
				cur.loc.line++
				cur.loc.col = 0
			} else {
				cur.loc.col++
			}
		}
		cur.pointer += 2 + uint(end) + 2
		return nil, cur, true
	}

	return nil, ic, false
}

func lexSymbol(source string, ic cursor) (*token, cursor, bool) {
	symbols := []symbol{
		eqSymbol,
		neqSymbol,
		neqSymbol2,
		ltSymbol,
		lteSymbol,
		gtSymbol,
		gteSymbol,
		concatSymbol,
		plusSymbol,
		minusSymbol,
		commaSymbol,
		dotSymbol,
		leftParenSymbol,
		rightParenSymbol,
		semicolonSymbol,
		asteriskSymbol,
		paramSymbol,
	}

	var options []string
	for _, s := range symbols {
		options = append(options, string(s))
	}

	match := longestMatch(source, ic, options)
	// Unknown characters are kept as single character symbols, except the
	// openings of unterminated strings and comments
	if match == "" {
		c := source[ic.pointer]
		if c == '\'' || c == '"' || strings.HasPrefix(source[ic.pointer:], "/*") {
			return nil, ic, false
		}
		match = string(c)
	}

	cur := ic
	cur.pointer = ic.pointer + uint(len(match))
	cur.loc.col = ic.loc.col + uint(len(match))

	if match == string(neqSymbol2) {
		match = string(neqSymbol)
	}

	return &token{
		value: match,
		loc:   ic.loc,
		pos:   ic.pointer,
		kind:  symbolKind,
	}, cur, true
}

func lexNumeric(source string, ic cursor) (*token, cursor, bool) {
	cur := ic

	periodFound := false
	expMarkerFound := false

	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c := source[cur.pointer]
		cur.loc.col++

		isDigit := c >= '0' && c <= '9'
		isPeriod := c == '.'
		isExpMarker := c == 'e' || c == 'E'

		// Must start with a digit or period
		if cur.pointer == ic.pointer {
			if !isDigit && !isPeriod {
				return nil, ic, false
			}

			periodFound = isPeriod
			continue
		}

		if isPeriod {
			if periodFound {
				return nil, ic, false
			}

			periodFound = true
			continue
		}

		if isExpMarker {
			if expMarkerFound {
				return nil, ic, false
			}

			// No periods allowed after expMarker
			periodFound = true
			expMarkerFound = true

			// expMarker must be followed by digits
			if cur.pointer == uint(len(source)-1) {
				return nil, ic, false
			}

			cNext := source[cur.pointer+1]
			if cNext == '-' || cNext == '+' {
				cur.pointer++
				cur.loc.col++
			}
			continue
		}

		if !isDigit {
			cur.loc.col--
			break
		}
	}

	// A lone period is a symbol
	if cur.pointer == ic.pointer || source[ic.pointer:cur.pointer] == "." {
		return nil, ic, false
	}

	return &token{
		value: source[ic.pointer:cur.pointer],
		loc:   ic.loc,
		pos:   ic.pointer,
		kind:  numericKind,
	}, cur, true
}

// lexCharacterDelimited looks through a source string starting at the
// given cursor to find a start- and end- delimiter. The delimiter can
// be escaped be preceeding the delimiter with itself.
func lexCharacterDelimited(source string, ic cursor, delimiter byte, kind tokenKind) (*token, cursor, bool) {
	cur := ic

	if len(source[cur.pointer:]) == 0 {
		return nil, ic, false
	}

	if source[cur.pointer] != delimiter {
		return nil, ic, false
	}

	cur.loc.col++
	cur.pointer++

	var value []byte
	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c := source[cur.pointer]

		if c == delimiter {
			// SQL escapes are via double characters, not backslash.
			if cur.pointer+1 >= uint(len(source)) || source[cur.pointer+1] != delimiter {
				cur.pointer++
				cur.loc.col++
				return &token{
					value: string(value),
					loc:   ic.loc,
					pos:   ic.pointer,
					kind:  kind,
				}, cur, true
			}
			cur.pointer++
			cur.loc.col++
		}

		if c == '\n' {
			cur.loc.line++
			cur.loc.col = 0
		} else {
			cur.loc.col++
		}
		value = append(value, c)
	}

	return nil, ic, false
}

func isIdentifierStart(c byte) bool {
	// Other characters count too, big ignoring non-ascii for now
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func lexIdentifier(source string, ic cursor) (*token, cursor, bool) {
	// Handle separately if is a double-quoted identifier
	if token, newCursor, ok := lexCharacterDelimited(source, ic, '"', quotedIdentifierKind); ok {
		return token, newCursor, true
	}

	cur := ic

	c := source[cur.pointer]
	if !isIdentifierStart(c) {
		return nil, ic, false
	}
	cur.pointer++
	cur.loc.col++

	for ; cur.pointer < uint(len(source)); cur.pointer++ {
		c = source[cur.pointer]

		isNumeric := c >= '0' && c <= '9'
		if isIdentifierStart(c) || isNumeric || c == '$' {
			cur.loc.col++
			continue
		}

		break
	}

	value := source[ic.pointer:cur.pointer]
	kind := identifierKind
	if _, ok := keywords[keyword(strings.ToLower(value))]; ok {
		kind = keywordKind
		value = strings.ToLower(value)
	}

	return &token{
		value: value,
		loc:   ic.loc,
		pos:   ic.pointer,
		kind:  kind,
	}, cur, true
}

func lexString(source string, ic cursor) (*token, cursor, bool) {
	return lexCharacterDelimited(source, ic, '\'', stringKind)
}

type lexer func(string, cursor) (*token, cursor, bool)

// lex splits an input string into a list of tokens. This process
// can be divided into following tasks:
//
// 1. Instantiating a cursor with pointing to the start of the string
//
// 2. Execute all the lexers in series.
//
// 3. If any of the lexer generate a token then add the token to the
// token slice, update the cursor and restart the process from the new
// cursor location.
func lex(source string) ([]*token, error) {
	var tokens []*token
	cur := cursor{}

lex:
	for cur.pointer < uint(len(source)) {
		lexers := []lexer{lexSpace, lexString, lexNumeric, lexIdentifier, lexSymbol}
		for _, l := range lexers {
			if token, newCursor, ok := l(source, cur); ok {
				cur = newCursor

				// Omit nil tokens for valid, but empty syntax like newlines
				if token != nil {
					tokens = append(tokens, token)
				}

				continue lex
			}
		}

		hint := ""
		if len(tokens) > 0 {
			hint = " after " + tokens[len(tokens)-1].value
		}
		return nil, fmt.Errorf("unable to lex token%s, at %d:%d", hint, cur.loc.line, cur.loc.col)
	}

	return tokens, nil
}

// isIdentifier reports whether name is a single unquoted identifier.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}

	t, cur, ok := lexIdentifier(name, cursor{})
	return ok && t.kind != quotedIdentifierKind && cur.pointer == uint(len(name))
}

// splitStatements cuts source into complete, semicolon-terminated
// statements. Text after the last terminator is returned as rest. Semicolons
// inside a trigger body do not terminate the statement. Source that does not
// lex, an unterminated string for instance, is returned whole as rest.
func splitStatements(source string) (statements []string, rest string) {
	tokens, err := lex(source)
	if err != nil {
		return nil, strings.TrimSpace(source)
	}

	start := uint(0)
	first := 0
	depth := 0
	for i, t := range tokens {
		switch t.kind {
		case keywordKind:
			if !inTrigger(tokens[first:i]) {
				continue
			}
			switch keyword(t.value) {
			case beginKeyword, caseKeyword:
				depth++
			case endKeyword:
				if depth > 0 {
					depth--
				}
			}
		case symbolKind:
			if symbol(t.value) != semicolonSymbol || depth > 0 {
				continue
			}

			stmt := strings.TrimSpace(source[start : t.pos+1])
			if stmt != ";" {
				statements = append(statements, stmt)
			}
			start = t.pos + 1
			first = i + 1
		}
	}

	return statements, strings.TrimSpace(source[start:])
}

// inTrigger reports whether the statement so far is CREATE [TEMP] TRIGGER.
func inTrigger(tokens []*token) bool {
	if len(tokens) < 2 || tokens[0].kind != keywordKind || keyword(tokens[0].value) != createKeyword {
		return false
	}

	next := tokens[1]
	if next.kind == keywordKind && (keyword(next.value) == tempKeyword || keyword(next.value) == temporaryKeyword) {
		if len(tokens) < 3 {
			return false
		}
		next = tokens[2]
	}

	return next.kind == keywordKind && keyword(next.value) == triggerKeyword
}
