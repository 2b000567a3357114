package podrm

import (
	"strings"

	"github.com/petar/GoLLRB/llrb"
	"github.com/pkg/errors"
)

type registryItem struct {
	// lower-cased table name
	key         string
	description *EntityDescription
}

func (i registryItem) Less(than llrb.Item) bool {
	return i.key < than.(registryItem).key
}

func registryKey(table string) registryItem {
	return registryItem{key: strings.ToLower(table)}
}

// Registry is the set of entity descriptions known to a program, ordered
// by table name.
type Registry struct {
	tree *llrb.LLRB
}

func NewRegistry() *Registry {
	return &Registry{tree: llrb.New()}
}

// Register adds d. Every entity d references, other than itself, must be
// registered first.
func (r *Registry) Register(d *EntityDescription) error {
	if err := d.validate(); err != nil {
		return err
	}

	if r.tree.Has(registryKey(d.Table)) {
		return errors.Wrapf(ErrDuplicateEntity, "%s", d.Table)
	}

	for _, fk := range d.ForeignKeys {
		target := d.Target(fk)
		if target == d {
			continue
		}

		if known, ok := r.Lookup(target.Table); !ok || known != target {
			return errors.Wrapf(ErrUnknownEntity, "%s references %s", d.Table, target.Table)
		}
	}

	item := registryKey(d.Table)
	item.description = d
	r.tree.ReplaceOrInsert(item)
	return nil
}

func (r *Registry) Lookup(table string) (*EntityDescription, bool) {
	item := r.tree.Get(registryKey(table))
	if item == nil {
		return nil, false
	}

	return item.(registryItem).description, true
}

func (r *Registry) Len() int {
	return r.tree.Len()
}

// Descriptions lists the registered descriptions by table name.
func (r *Registry) Descriptions() []*EntityDescription {
	descriptions := make([]*EntityDescription, 0, r.tree.Len())
	r.tree.AscendGreaterOrEqual(registryItem{}, func(i llrb.Item) bool {
		descriptions = append(descriptions, i.(registryItem).description)
		return true
	})

	return descriptions
}

// CreationOrder lists the descriptions so that every referenced table
// comes before the tables referencing it. Ties go by table name.
func (r *Registry) CreationOrder() []*EntityDescription {
	var order []*EntityDescription
	visited := map[*EntityDescription]bool{}

	var visit func(d *EntityDescription)
	visit = func(d *EntityDescription) {
		if visited[d] {
			return
		}
		// Marked before the dependencies so reference cycles terminate
		visited[d] = true

		for _, fk := range d.ForeignKeys {
			visit(d.Target(fk))
		}
		order = append(order, d)
	}

	for _, d := range r.Descriptions() {
		visit(d)
	}

	return order
}

// CreateAll creates the table of every registered entity.
func (r *Registry) CreateAll(conn *Connection) error {
	for _, d := range r.CreationOrder() {
		if err := createTable(conn, d); err != nil {
			return err
		}
	}

	return nil
}
