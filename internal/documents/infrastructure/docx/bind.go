package docx

import (
	"encoding/xml"
	"fmt"
	"strings"

	documents "billing-docs/internal/documents/domain"
)

// scope is the chain of field sets a name resolves against, innermost last.
type scope []documents.FieldSet

func (s scope) lookup(name string) (any, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if value, ok := s[i][name]; ok {
			return value, true
		}
	}
	return nil, false
}

func (s scope) push(fields documents.FieldSet) scope {
	next := make(scope, len(s), len(s)+1)
	copy(next, s)
	return append(next, fields)
}

func asRows(value any) ([]documents.FieldSet, bool) {
	switch v := value.(type) {
	case []documents.FieldSet:
		return v, true
	case []map[string]any:
		rows := make([]documents.FieldSet, len(v))
		for i, row := range v {
			rows[i] = documents.FieldSet(row)
		}
		return rows, true
	default:
		return nil, false
	}
}

func asText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// validate checks every placeholder of a parsed part against the field set
// before anything is written.
func validate(part string, nodes []node, sc scope, path string, seen map[string]bool) []documents.BindingViolation {
	var violations []documents.BindingViolation
	report := func(field, reason string) {
		key := field + "|" + reason
		if seen[key] {
			return
		}
		seen[key] = true
		violations = append(violations, documents.BindingViolation{Part: part, Field: field, Reason: reason})
	}
	for _, n := range nodes {
		switch n.kind {
		case nodeScalar:
			value, ok := sc.lookup(n.name)
			if !ok {
				report(path+n.name, "missing from field set")
				continue
			}
			if _, isList := asRows(value); isList {
				report(path+n.name, "is a list but used as a value")
			}
		case nodeLoop:
			value, ok := sc.lookup(n.name)
			if !ok {
				report(path+n.name, "missing from field set")
				continue
			}
			rows, isList := asRows(value)
			if !isList {
				report(path+n.name, "loop expects a list")
				continue
			}
			for _, row := range rows {
				violations = append(violations, validate(part, n.children, sc.push(row), path+n.name+".", seen)...)
			}
		}
	}
	return violations
}

func render(b *strings.Builder, nodes []node, sc scope) {
	for _, n := range nodes {
		switch n.kind {
		case nodeText:
			b.WriteString(n.text)
		case nodeScalar:
			value, _ := sc.lookup(n.name)
			_ = xml.EscapeText(b, []byte(asText(value)))
		case nodeLoop:
			value, _ := sc.lookup(n.name)
			rows, _ := asRows(value)
			for _, row := range rows {
				render(b, n.children, sc.push(row))
			}
		}
	}
}
