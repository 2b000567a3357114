package podrm

import (
	"fmt"

	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite"
)

// Kind is the payload kind of a column or a Value
type Kind uint

const (
	nullKind Kind = iota
	// BlobKind is used for columns holding raw bytes
	BlobKind
	// FloatKind is used for columns holding float64 data
	FloatKind
	// IntKind is used for columns holding int64 data
	IntKind
	// TextKind is used for columns holding textual data
	TextKind
)

func (k Kind) String() string {
	switch k {
	case nullKind:
		return "NullKind"
	case BlobKind:
		return "BlobKind"
	case FloatKind:
		return "FloatKind"
	case IntKind:
		return "IntKind"
	case TextKind:
		return "TextKind"
	default:
		return "Error"
	}
}

// datatype is the SQLite declared type for the kind.
func (k Kind) datatype() string {
	switch k {
	case BlobKind:
		return "BLOB"
	case FloatKind:
		return "REAL"
	case IntKind:
		return "INTEGER"
	case TextKind:
		return "TEXT"
	}

	return ""
}

func (k Kind) valid() bool {
	return k >= BlobKind && k <= TextKind
}

// Value is a single column payload, used both for binding parameters and
// reading results. The zero Value is null.
type Value struct {
	kind Kind
	b    []byte
	f    float64
	i    int64
	s    string
}

// Null returns the null value, accepted only by nullable columns.
func Null() Value { return Value{} }

// Blob wraps b without copying it.
func Blob(b []byte) Value { return Value{kind: BlobKind, b: b} }

func Float(f float64) Value { return Value{kind: FloatKind, f: f} }

func Int(i int64) Value { return Value{kind: IntKind, i: i} }

func Text(s string) Value { return Value{kind: TextKind, s: s} }

// Bool is stored as an integer, zero or one.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == nullKind }

func (v Value) mismatch(want Kind) error {
	return errors.Wrapf(ErrKindMismatch, "have %s, want %s", v.kind, want)
}

func (v Value) AsBlob() ([]byte, error) {
	if v.kind != BlobKind {
		return nil, v.mismatch(BlobKind)
	}
	return v.b, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != FloatKind {
		return 0, v.mismatch(FloatKind)
	}
	return v.f, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != IntKind {
		return 0, v.mismatch(IntKind)
	}
	return v.i, nil
}

func (v Value) AsText() (string, error) {
	if v.kind != TextKind {
		return "", v.mismatch(TextKind)
	}
	return v.s, nil
}

func (v Value) AsBool() (bool, error) {
	i, err := v.AsInt()
	return i != 0, err
}

func (v Value) String() string {
	switch v.kind {
	case BlobKind:
		return fmt.Sprintf("x'%x'", v.b)
	case FloatKind:
		return fmt.Sprintf("%g", v.f)
	case IntKind:
		return fmt.Sprintf("%d", v.i)
	case TextKind:
		return fmt.Sprintf("'%s'", v.s)
	}

	return "NULL"
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case BlobKind:
		return string(v.b) == string(other.b)
	case FloatKind:
		return v.f == other.f
	case IntKind:
		return v.i == other.i
	case TextKind:
		return v.s == other.s
	}

	return true
}

// bind sets the 1-based parameter of stmt to v.
func (v Value) bind(stmt *sqlite.Stmt, param int) {
	switch v.kind {
	case BlobKind:
		// An empty slice would bind as null
		if len(v.b) == 0 {
			stmt.BindZeroBlob(param, 0)
			return
		}
		stmt.BindBytes(param, v.b)
	case FloatKind:
		stmt.BindFloat(param, v.f)
	case IntKind:
		stmt.BindInt64(param, v.i)
	case TextKind:
		stmt.BindText(param, v.s)
	default:
		stmt.BindNull(param)
	}
}

// checkColumn validates v against the declared column.
func (v Value) checkColumn(col Column) error {
	if v.IsNull() {
		if !col.Nullable {
			return errors.Wrapf(ErrKindMismatch, "column %q is not nullable", col.Name)
		}
		return nil
	}

	if v.kind != col.Kind {
		return errors.Wrapf(ErrKindMismatch, "column %q: have %s, want %s", col.Name, v.kind, col.Kind)
	}

	return nil
}
