package store

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// fieldDesc describes one persistable struct field.
type fieldDesc struct {
	Name  string
	Index int // struct field index
	Kind  fieldKind
	Ptr   bool
}

// entitySchema is the derived shape of one entity type: its table name,
// its ordered persistable fields, and the identity field when present.
// Computed once per type and cached on the registry.
type entitySchema struct {
	Table    string
	Fields   []fieldDesc
	Identity *fieldDesc // nil when the type has no integer Id field
	byName   map[string]*fieldDesc
}

// registry caches entity schemas per store. Concurrent first use of the
// same type converges on a single cached entry via LoadOrStore.
type registry struct {
	types sync.Map // reflect.Type -> *entitySchema
}

func (r *registry) describe(t reflect.Type) (*entitySchema, error) {
	if cached, ok := r.types.Load(t); ok {
		return cached.(*entitySchema), nil
	}
	sc, err := deriveSchema(t)
	if err != nil {
		return nil, err
	}
	actual, _ := r.types.LoadOrStore(t, sc)
	return actual.(*entitySchema), nil
}

// deriveSchema walks the exported fields of a struct type in declaration
// order. The field named "Id" (any casing) with an integer type becomes
// the identity; fields with unsupported types are skipped.
func deriveSchema(t reflect.Type) (*entitySchema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity type %s is not a struct", t)
	}
	sc := &entitySchema{
		Table:  t.Name(),
		byName: make(map[string]*fieldDesc),
	}
	if sc.Table == "" {
		return nil, fmt.Errorf("entity type %s has no name", t)
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		kind, ptr, ok := kindOf(f.Type)
		if !ok {
			continue
		}
		sc.Fields = append(sc.Fields, fieldDesc{Name: f.Name, Index: i, Kind: kind, Ptr: ptr})
	}
	if len(sc.Fields) == 0 {
		return nil, fmt.Errorf("entity type %s has no persistable fields", t)
	}
	for i := range sc.Fields {
		fd := &sc.Fields[i]
		sc.byName[fd.Name] = fd
		if sc.Identity == nil && strings.EqualFold(fd.Name, "id") && fd.Kind == kindInt && !fd.Ptr {
			sc.Identity = fd
		}
	}
	return sc, nil
}

// field resolves a caller-named column to its descriptor. The match is
// exact; a miss is a validation error, not a storage error.
func (sc *entitySchema) field(name string) (*fieldDesc, error) {
	fd, ok := sc.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a field of %s", ErrUnknownColumn, name, sc.Table)
	}
	return fd, nil
}

// dataFields returns the non-identity fields, in declaration order.
func (sc *entitySchema) dataFields() []fieldDesc {
	if sc.Identity == nil {
		return sc.Fields
	}
	out := make([]fieldDesc, 0, len(sc.Fields)-1)
	for _, fd := range sc.Fields {
		if fd.Index != sc.Identity.Index {
			out = append(out, fd)
		}
	}
	return out
}

// columnList builds the quoted SELECT column list for all fields.
func (sc *entitySchema) columnList() string {
	names := make([]string, len(sc.Fields))
	for i, fd := range sc.Fields {
		names[i] = quoteIdent(fd.Name)
	}
	return strings.Join(names, ", ")
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// schemaFor resolves the cached schema for an entity type parameter.
func schemaFor[T any](s *Store) (*entitySchema, error) {
	return s.reg.describe(reflect.TypeOf((*T)(nil)).Elem())
}
