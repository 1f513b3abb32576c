package docx

import (
	"regexp"
	"strings"

	documents "billing-docs/internal/documents/domain"
)

var textNodePattern = regexp.MustCompile(`(<w:t(?:\s[^>]*)?>)([^<]*)(</w:t>)`)

const preserveOpen = `<w:t xml:space="preserve">`

type textNode struct {
	open      [2]int
	content   [2]int
	paragraph int
	text      string
}

// normalize moves every tag that Word split across runs into the run where
// the tag starts, so that each tag ends up inside a single <w:t> element.
func normalize(part, xml string) (string, []documents.BindingViolation) {
	matches := textNodePattern.FindAllStringSubmatchIndex(xml, -1)
	if len(matches) == 0 {
		return xml, nil
	}
	nodes := make([]textNode, len(matches))
	paragraph := 0
	last := 0
	for i, m := range matches {
		paragraph += strings.Count(xml[last:m[0]], "</w:p>")
		last = m[0]
		nodes[i] = textNode{
			open:      [2]int{m[2], m[3]},
			content:   [2]int{m[4], m[5]},
			paragraph: paragraph,
			text:      xml[m[4]:m[5]],
		}
	}

	var violations []documents.BindingViolation
	rewritten := make([]string, len(nodes))
	changed := make([]bool, len(nodes))
	for i := range nodes {
		rewritten[i] = nodes[i].text
	}
	for start := 0; start < len(nodes); {
		end := start
		for end < len(nodes) && nodes[end].paragraph == nodes[start].paragraph {
			end++
		}
		violations = append(violations, mergeParagraph(part, nodes[start:end], rewritten[start:end], changed[start:end])...)
		start = end
	}

	var b strings.Builder
	b.Grow(len(xml))
	cursor := 0
	for i, n := range nodes {
		if !changed[i] {
			continue
		}
		b.WriteString(xml[cursor:n.open[0]])
		b.WriteString(preserveOpen)
		b.WriteString(rewritten[i])
		cursor = n.content[1]
	}
	b.WriteString(xml[cursor:])
	return b.String(), violations
}

// mergeParagraph reassigns the characters of one paragraph's text nodes so
// that tags are never split. Each character is owned by its original node
// unless it belongs to a tag, in which case the tag's first node owns it.
func mergeParagraph(part string, nodes []textNode, out []string, changed []bool) []documents.BindingViolation {
	if len(nodes) < 2 {
		if len(nodes) == 1 && strings.Count(nodes[0].text, "{") > strings.Count(nodes[0].text, "}") {
			return []documents.BindingViolation{{Part: part, Field: nodes[0].text, Reason: "unclosed tag"}}
		}
		return nil
	}
	var full strings.Builder
	owner := make([]int, 0)
	for i, n := range nodes {
		full.WriteString(n.text)
		for range n.text {
			owner = append(owner, i)
		}
	}
	text := full.String()
	if !strings.Contains(text, "{") {
		return nil
	}
	// owner is indexed by rune, text by byte; work on runes.
	runes := []rune(text)
	var violations []documents.BindingViolation
	for i := 0; i < len(runes); i++ {
		if runes[i] != '{' {
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] != '}' {
			j++
		}
		if j >= len(runes) {
			violations = append(violations, documents.BindingViolation{Part: part, Field: string(runes[i:]), Reason: "unclosed tag"})
			break
		}
		for k := i + 1; k <= j; k++ {
			owner[k] = owner[i]
		}
		i = j
	}

	parts := make([]strings.Builder, len(nodes))
	for i, r := range runes {
		parts[owner[i]].WriteRune(r)
	}
	for i := range nodes {
		merged := parts[i].String()
		if merged != nodes[i].text {
			out[i] = merged
			changed[i] = true
		}
	}
	return violations
}
