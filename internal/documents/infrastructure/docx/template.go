package docx

import (
	"strings"

	documents "billing-docs/internal/documents/domain"
)

type tagKind int

const (
	tagScalar tagKind = iota
	tagOpen
	tagClose
)

type tag struct {
	kind  tagKind
	name  string
	start int
	end   int
}

type nodeKind int

const (
	nodeText nodeKind = iota
	nodeScalar
	nodeLoop
)

type node struct {
	kind     nodeKind
	text     string
	name     string
	children []node
}

// lexTags finds {tags} in the character data of an XML fragment.
func lexTags(part, s string) ([]tag, []documents.BindingViolation) {
	var tags []tag
	var violations []documents.BindingViolation
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				return tags, violations
			}
			i += end
		case '{':
			end := strings.IndexAny(s[i+1:], "}<")
			if end < 0 || s[i+1+end] == '<' {
				violations = append(violations, documents.BindingViolation{Part: part, Field: snippet(s[i:]), Reason: "unclosed tag"})
				continue
			}
			raw := strings.TrimSpace(s[i+1 : i+1+end])
			t := tag{kind: tagScalar, name: raw, start: i, end: i + end + 2}
			switch {
			case strings.HasPrefix(raw, "#"):
				t.kind = tagOpen
				t.name = strings.TrimSpace(raw[1:])
			case strings.HasPrefix(raw, "/"):
				t.kind = tagClose
				t.name = strings.TrimSpace(raw[1:])
			}
			if t.name == "" {
				violations = append(violations, documents.BindingViolation{Part: part, Field: s[t.start:t.end], Reason: "empty tag"})
			} else {
				tags = append(tags, t)
			}
			i = t.end - 1
		}
	}
	return tags, violations
}

// parse turns an XML fragment into text, scalar and loop nodes.
func parse(part, s string) ([]node, []documents.BindingViolation) {
	tags, violations := lexTags(part, s)
	var nodes []node
	cursor := 0
	for i := 0; i < len(tags); i++ {
		t := tags[i]
		switch t.kind {
		case tagScalar:
			nodes = append(nodes, node{kind: nodeText, text: s[cursor:t.start]}, node{kind: nodeScalar, name: t.name})
			cursor = t.end
		case tagClose:
			violations = append(violations, documents.BindingViolation{Part: part, Field: t.name, Reason: "closing tag without opening tag"})
			nodes = append(nodes, node{kind: nodeText, text: s[cursor:t.start]})
			cursor = t.end
		case tagOpen:
			match := matchingClose(tags, i)
			if match < 0 {
				violations = append(violations, documents.BindingViolation{Part: part, Field: t.name, Reason: "unclosed loop"})
				nodes = append(nodes, node{kind: nodeText, text: s[cursor:t.start]})
				cursor = t.end
				continue
			}
			closing := tags[match]
			if closing.name != t.name {
				violations = append(violations, documents.BindingViolation{Part: part, Field: t.name, Reason: "loop closed by {/" + closing.name + "}"})
			}
			start, end, body := expand(s, t, closing, cursor)
			children, childViolations := parse(part, body)
			violations = append(violations, childViolations...)
			nodes = append(nodes,
				node{kind: nodeText, text: s[cursor:start]},
				node{kind: nodeLoop, name: t.name, children: children},
			)
			cursor = end
			for i+1 < len(tags) && tags[i+1].start < end {
				i++
			}
		}
	}
	nodes = append(nodes, node{kind: nodeText, text: s[cursor:]})
	return nodes, violations
}

func matchingClose(tags []tag, open int) int {
	depth := 0
	for j := open + 1; j < len(tags); j++ {
		switch tags[j].kind {
		case tagOpen:
			depth++
		case tagClose:
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

// expand picks the XML range a loop repeats and returns it with the loop tags
// removed. Tags in one paragraph repeat inline, tags spanning cells of one
// table row repeat the row, otherwise the paragraphs between the tags repeat.
func expand(s string, open, closing tag, floor int) (int, int, string) {
	inline := func() (int, int, string) {
		return open.start, closing.end, s[open.end:closing.start]
	}
	between := s[open.end:closing.start]
	if !strings.Contains(between, "</w:p>") {
		return inline()
	}

	if !strings.Contains(between, "</w:tr>") {
		rowStart := enclosingStart(s, "w:tr", open.start)
		rowEnd := elementEnd(s, "w:tr", closing.end)
		if rowStart >= floor && rowEnd > 0 {
			body := s[rowStart:open.start] + between + s[closing.end:rowEnd]
			return rowStart, rowEnd, body
		}
	}

	openStart := enclosingStart(s, "w:p", open.start)
	openEnd := elementEnd(s, "w:p", open.end)
	closeStart := enclosingStart(s, "w:p", closing.start)
	closeEnd := elementEnd(s, "w:p", closing.end)
	if openStart < floor || openEnd < 0 || closeStart < 0 || closeEnd < 0 || closeStart < openEnd {
		return inline()
	}
	var body strings.Builder
	if head := s[openStart:open.start] + s[open.end:openEnd]; strings.TrimSpace(characterData(head)) != "" {
		body.WriteString(head)
	}
	body.WriteString(s[openEnd:closeStart])
	if tail := s[closeStart:closing.start] + s[closing.end:closeEnd]; strings.TrimSpace(characterData(tail)) != "" {
		body.WriteString(tail)
	}
	return openStart, closeEnd, body.String()
}

// enclosingStart returns the start of the innermost <name> element open at pos.
func enclosingStart(s, name string, pos int) int {
	limit := pos
	for {
		idx := strings.LastIndex(s[:limit], "<"+name)
		if idx < 0 {
			return -1
		}
		next := idx + len(name) + 1
		if next < len(s) && (s[next] == '>' || s[next] == ' ') {
			if strings.Contains(s[idx:pos], "</"+name+">") {
				return -1
			}
			return idx
		}
		limit = idx
	}
}

// elementEnd returns the offset just past the first </name> at or after pos.
func elementEnd(s, name string, pos int) int {
	closing := "</" + name + ">"
	idx := strings.Index(s[pos:], closing)
	if idx < 0 {
		return -1
	}
	return pos + idx + len(closing)
}

// characterData strips markup from an XML fragment.
func characterData(s string) string {
	var b strings.Builder
	inTag := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '<':
			inTag = true
		case s[i] == '>':
			inTag = false
		case !inTag:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func snippet(s string) string {
	const limit = 32
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

// schemaOf lists the placeholders a parsed part references.
func schemaOf(nodes []node) documents.Schema {
	schema := documents.Schema{}
	for _, n := range nodes {
		switch n.kind {
		case nodeScalar:
			if _, ok := schema[n.name]; !ok {
				schema[n.name] = documents.FieldSpec{Kind: documents.FieldScalar}
			}
		case nodeLoop:
			schema.Merge(documents.Schema{n.name: {Kind: documents.FieldList, Item: schemaOf(n.children)}})
		}
	}
	return schema
}
