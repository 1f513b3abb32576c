package documents

import "sort"

// FieldSet maps template placeholder names to string values or nested lists.
type FieldSet map[string]any

// FieldKind is the shape a placeholder expects.
type FieldKind string

const (
	FieldScalar FieldKind = "scalar"
	FieldList   FieldKind = "list"
)

// FieldSpec describes a placeholder. Item is set for lists.
type FieldSpec struct {
	Kind FieldKind `json:"kind"`
	Item Schema    `json:"item,omitempty"`
}

// Schema is the set of placeholders a template or a field set carries.
type Schema map[string]FieldSpec

// Names returns the sorted placeholder names.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge adds other into s, merging nested list schemas.
func (s Schema) Merge(other Schema) {
	for name, spec := range other {
		existing, ok := s[name]
		if !ok {
			s[name] = spec
			continue
		}
		if existing.Kind == FieldList && spec.Kind == FieldList {
			if existing.Item == nil {
				existing.Item = Schema{}
			}
			existing.Item.Merge(spec.Item)
			s[name] = existing
		}
	}
}

// SchemaOf derives the schema of a field set from its values.
func SchemaOf(fields FieldSet) Schema {
	schema := make(Schema, len(fields))
	for name, value := range fields {
		item := Schema{}
		switch rows := value.(type) {
		case []FieldSet:
			for _, row := range rows {
				item.Merge(SchemaOf(row))
			}
		case []map[string]any:
			for _, row := range rows {
				item.Merge(SchemaOf(FieldSet(row)))
			}
		default:
			schema[name] = FieldSpec{Kind: FieldScalar}
			continue
		}
		schema[name] = FieldSpec{Kind: FieldList, Item: item}
	}
	return schema
}

// Unsupported lists the placeholders of s that provided cannot fill, as
// dotted paths ("items.price"), sorted. Names inside a list may resolve
// against any enclosing scope. A name used with the wrong shape is reported.
func (s Schema) Unsupported(provided Schema) []string {
	return s.unsupported([]Schema{provided})
}

func (s Schema) unsupported(scopes []Schema) []string {
	var out []string
	for _, name := range s.Names() {
		spec := s[name]
		have, ok := lookup(scopes, name)
		if !ok || have.Kind != spec.Kind {
			out = append(out, name)
			continue
		}
		if spec.Kind == FieldList {
			inner := append([]Schema{have.Item}, scopes...)
			for _, nested := range spec.Item.unsupported(inner) {
				out = append(out, name+"."+nested)
			}
		}
	}
	return out
}

func lookup(scopes []Schema, name string) (FieldSpec, bool) {
	for _, scope := range scopes {
		if spec, ok := scope[name]; ok {
			return spec, true
		}
	}
	return FieldSpec{}, false
}
