package podrm

import (
	"strings"

	"github.com/pkg/errors"
)

// IDMode says who assigns identifiers
type IDMode uint

const (
	// Auto identifiers are assigned by the engine on insert
	Auto IDMode = iota
	// Manual identifiers are assigned by the caller
	Manual
)

func (m IDMode) String() string {
	switch m {
	case Auto:
		return "Auto"
	case Manual:
		return "Manual"
	default:
		return "Error"
	}
}

// Column describes one mapped field
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// ForeignKey constrains Column to the identifiers of References. A nil
// References points at the entity declaring the key.
type ForeignKey struct {
	Column     int
	References *EntityDescription
}

// EntityDescription is the table mapping of one entity type. Build it once
// with Describe and do not modify it afterwards.
type EntityDescription struct {
	Table       string
	Columns     []Column
	ID          int
	IDMode      IDMode
	ForeignKeys []ForeignKey
}

// Describe validates d and returns an immutable copy.
func Describe(d EntityDescription) (*EntityDescription, error) {
	d.Columns = append([]Column(nil), d.Columns...)
	d.ForeignKeys = append([]ForeignKey(nil), d.ForeignKeys...)

	if err := d.validate(); err != nil {
		return nil, err
	}

	return &d, nil
}

// MustDescribe is Describe for package level variables. It panics on an
// invalid description.
func MustDescribe(d EntityDescription) *EntityDescription {
	description, err := Describe(d)
	if err != nil {
		panic(err)
	}

	return description
}

func (d *EntityDescription) IDColumn() Column {
	return d.Columns[d.ID]
}

// Target is the entity referenced by fk.
func (d *EntityDescription) Target(fk ForeignKey) *EntityDescription {
	if fk.References == nil {
		return d
	}
	return fk.References
}

func (d *EntityDescription) invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidDescription, "%s: "+format, append([]interface{}{d.Table}, args...)...)
}

func (d *EntityDescription) validate() error {
	if !isIdentifier(d.Table) {
		return d.invalid("table name is not an identifier")
	}

	if len(d.Columns) == 0 {
		return d.invalid("no columns")
	}

	seen := map[string]bool{}
	for _, col := range d.Columns {
		if !isIdentifier(col.Name) {
			return d.invalid("column name %q is not an identifier", col.Name)
		}

		// SQLite compares identifiers case-insensitively
		name := strings.ToLower(col.Name)
		if seen[name] {
			return d.invalid("duplicate column %q", col.Name)
		}
		seen[name] = true

		if !col.Kind.valid() {
			return d.invalid("column %q has kind %s", col.Name, col.Kind)
		}
	}

	if d.ID < 0 || d.ID >= len(d.Columns) {
		return d.invalid("identifier column %d out of range", d.ID)
	}

	id := d.IDColumn()
	if id.Nullable {
		return d.invalid("identifier column %q is nullable", id.Name)
	}

	switch d.IDMode {
	case Auto:
		if id.Kind != IntKind {
			return d.invalid("auto identifier column %q has kind %s", id.Name, id.Kind)
		}
	case Manual:
	default:
		return d.invalid("unknown id mode %d", d.IDMode)
	}

	keyed := map[int]bool{}
	for _, fk := range d.ForeignKeys {
		if fk.Column < 0 || fk.Column >= len(d.Columns) {
			return d.invalid("foreign key column %d out of range", fk.Column)
		}

		col := d.Columns[fk.Column]
		if fk.Column == d.ID {
			return d.invalid("identifier column %q is a foreign key", col.Name)
		}

		if keyed[fk.Column] {
			return d.invalid("column %q has more than one foreign key", col.Name)
		}
		keyed[fk.Column] = true

		target := d.Target(fk)
		if target.ID < 0 || target.ID >= len(target.Columns) {
			return d.invalid("foreign key %q references %s without identifier", col.Name, target.Table)
		}

		if want := target.IDColumn().Kind; col.Kind != want {
			return d.invalid("foreign key %q has kind %s, %s.%s has %s", col.Name, col.Kind, target.Table, target.IDColumn().Name, want)
		}
	}

	return nil
}

// Codec moves an entity's fields in and out of column values, in the
// column order of its description.
type Codec[E any] interface {
	Encode(entity *E) ([]Value, error)
	// Decode must not keep blob values past the call
	Decode(values []Value, entity *E) error
}

// CodecFuncs adapts a pair of functions to Codec.
type CodecFuncs[E any] struct {
	EncodeFunc func(entity *E) ([]Value, error)
	DecodeFunc func(values []Value, entity *E) error
}

func (c CodecFuncs[E]) Encode(entity *E) ([]Value, error) {
	return c.EncodeFunc(entity)
}

func (c CodecFuncs[E]) Decode(values []Value, entity *E) error {
	return c.DecodeFunc(values, entity)
}

// Entity binds a description to the codec of its Go type.
type Entity[E any] struct {
	Description *EntityDescription
	Codec       Codec[E]
}

func NewEntity[E any](description *EntityDescription, codec Codec[E]) *Entity[E] {
	return &Entity[E]{
		Description: description,
		Codec:       codec,
	}
}

// encode runs the codec and checks the values against the columns. The
// identifier is not checked when skipID is set.
func (e *Entity[E]) encode(entity *E, skipID bool) ([]Value, error) {
	d := e.Description

	values, err := e.Codec.Encode(entity)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", d.Table)
	}

	if len(values) != len(d.Columns) {
		return nil, errors.Wrapf(ErrKindMismatch, "encoding %s: %d values for %d columns", d.Table, len(values), len(d.Columns))
	}

	for i, col := range d.Columns {
		if skipID && i == d.ID {
			continue
		}
		if err := values[i].checkColumn(col); err != nil {
			return nil, errors.Wrapf(err, "encoding %s", d.Table)
		}
	}

	return values, nil
}
