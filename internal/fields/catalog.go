package fields

import (
	"slices"
	"sort"
)

// Column is one column of the backing relation.
type Column struct {
	Name string
	Type string
}

// DefaultTextFields are matched by bare query terms.
var DefaultTextFields = []string{"title", "album", "albumartist", "artist"}

// DefaultDeclarations override storage-derived kinds for the track relation.
func DefaultDeclarations() map[string]Kind {
	return map[string]Kind{
		"length": KindDuration,
		"added":  KindDate,
		"mtime":  KindDate,
	}
}

// Catalog is an immutable snapshot of the queryable fields.
//
// A Catalog is safe for concurrent use. Refreshing the field set means
// building a new Catalog.
type Catalog struct {
	kinds map[string]Kind
	names []string
	text  []string
}

// NewCatalog builds a catalog from the relation's columns.
//
// A declared kind replaces the kind derived from the column type.
// Declarations and text fields naming columns that do not exist are
// ignored, since nothing could be queried through them.
func NewCatalog(columns []Column, declared map[string]Kind, text []string) *Catalog {
	c := &Catalog{kinds: make(map[string]Kind, len(columns))}
	for _, col := range columns {
		k := KindForType(col.Type)
		if d, ok := declared[col.Name]; ok {
			k = d
		}
		c.kinds[col.Name] = k
	}

	c.names = make([]string, 0, len(c.kinds))
	for name := range c.kinds {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)

	for _, name := range text {
		if _, ok := c.kinds[name]; ok && !slices.Contains(c.text, name) {
			c.text = append(c.text, name)
		}
	}
	return c
}

// Has reports whether name is a known field.
func (c *Catalog) Has(name string) bool {
	_, ok := c.kinds[name]
	return ok
}

// Kind returns the kind of field name.
func (c *Catalog) Kind(name string) (Kind, bool) {
	k, ok := c.kinds[name]
	return k, ok
}

// Names returns the known field names in sorted order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// TextFields returns the fields matched by bare terms.
func (c *Catalog) TextFields() []string {
	return slices.Clone(c.text)
}
