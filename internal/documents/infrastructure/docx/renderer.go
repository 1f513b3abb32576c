package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	documents "billing-docs/internal/documents/domain"
)

// Parts of a WordprocessingML package that may carry placeholders.
var bindablePart = regexp.MustCompile(`^word/(document|header\d*|footer\d*|footnotes|endnotes)\.xml$`)

// Renderer binds field sets into DOCX templates.
type Renderer struct {
	declared documents.Schema
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithSchema sets the declared placeholder shapes templates are checked
// against, in addition to the shape of the bound field set. A nil schema
// leaves only the field set.
func WithSchema(schema documents.Schema) Option {
	return func(r *Renderer) { r.declared = schema }
}

// NewRenderer constructs a renderer checking templates against the
// document field schema.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{declared: documents.DocumentSchema()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type parsedPart struct {
	file  *zip.File
	nodes []node
}

// Render binds fields into the template and returns the regenerated archive.
// Every placeholder is validated first; on any violation no output is built.
func (r *Renderer) Render(template []byte, fields documents.FieldSet) ([]byte, error) {
	archive, parts, violations, err := load(template)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	root := scope{fields}
	provided := r.shapeOf(fields)
	reported := make(map[string]bool)
	for _, p := range parts {
		found := validate(p.file.Name, p.nodes, root, "", seen)
		for _, v := range found {
			reported[v.Field] = true
		}
		for _, path := range schemaOf(p.nodes).Unsupported(provided) {
			if reported[path] {
				continue
			}
			reported[path] = true
			found = append(found, documents.BindingViolation{Part: p.file.Name, Field: path, Reason: "missing from field set"})
		}
		violations = append(violations, found...)
	}
	if len(violations) > 0 {
		return nil, &documents.TemplateBindingError{Violations: violations}
	}

	rendered := make(map[string]string, len(parts))
	for _, p := range parts {
		var b strings.Builder
		render(&b, p.nodes, root)
		rendered[p.file.Name] = b.String()
	}

	var out bytes.Buffer
	w := zip.NewWriter(&out)
	for _, f := range archive.File {
		content, ok := rendered[f.Name]
		if !ok {
			if err := w.Copy(f); err != nil {
				return nil, &documents.TemplateBindingError{Err: fmt.Errorf("copy %s: %w", f.Name, err)}
			}
			continue
		}
		header := &zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified}
		dst, err := w.CreateHeader(header)
		if err != nil {
			return nil, &documents.TemplateBindingError{Err: fmt.Errorf("write %s: %w", f.Name, err)}
		}
		if _, err := io.WriteString(dst, content); err != nil {
			return nil, &documents.TemplateBindingError{Err: fmt.Errorf("write %s: %w", f.Name, err)}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &documents.TemplateBindingError{Err: fmt.Errorf("close archive: %w", err)}
	}
	return out.Bytes(), nil
}

// shapeOf is the schema a template may use with fields: the shape of the
// values merged with the declared schema, so empty lists still carry their
// row shape.
func (r *Renderer) shapeOf(fields documents.FieldSet) documents.Schema {
	provided := documents.SchemaOf(fields)
	provided.Merge(r.declared)
	return provided
}

// Inspect returns the placeholder schema a template expects. Structural
// problems in the template are reported as a TemplateBindingError.
func (r *Renderer) Inspect(template []byte) (documents.Schema, error) {
	_, parts, violations, err := load(template)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &documents.TemplateBindingError{Violations: violations}
	}
	schema := documents.Schema{}
	for _, p := range parts {
		schema.Merge(schemaOf(p.nodes))
	}
	return schema, nil
}

func load(template []byte) (*zip.Reader, []parsedPart, []documents.BindingViolation, error) {
	archive, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, nil, nil, &documents.TemplateBindingError{Err: fmt.Errorf("open template: %w", err)}
	}
	var files []*zip.File
	for _, f := range archive.File {
		if bindablePart.MatchString(f.Name) {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, nil, nil, &documents.TemplateBindingError{Err: fmt.Errorf("open template: no word/document.xml")}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var parts []parsedPart
	var violations []documents.BindingViolation
	for _, f := range files {
		raw, err := readFile(f)
		if err != nil {
			return nil, nil, nil, &documents.TemplateBindingError{Err: fmt.Errorf("read %s: %w", f.Name, err)}
		}
		normalized, normViolations := normalize(f.Name, raw)
		nodes, parseViolations := parse(f.Name, normalized)
		violations = append(violations, normViolations...)
		violations = append(violations, parseViolations...)
		parts = append(parts, parsedPart{file: f, nodes: nodes})
	}
	return archive, parts, violations, nil
}

func readFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
