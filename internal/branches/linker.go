package branches

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/agentic-research/kinbranch/internal/genealogy"
)

// RelationshipLinker builds a link to a chart relating two individuals.
// Ancestors are only annotated with Sosa numbers when a linker is set.
type RelationshipLinker interface {
	RelationshipURL(from, to *genealogy.Individual) (string, error)
}

// TemplateLinker renders a text/template into a URL. The template sees
// .Tree, .XRef (the first individual) and .XRef2 (the second).
type TemplateLinker struct {
	tmpl *template.Template
}

// NewTemplateLinker parses a URL template such as
//
//	/tree/{{.Tree}}/relationships?xref1={{.XRef}}&xref2={{.XRef2}}
func NewTemplateLinker(text string) (*TemplateLinker, error) {
	tmpl, err := template.New("relationship").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse relationship url template: %w", err)
	}
	return &TemplateLinker{tmpl: tmpl}, nil
}

type linkData struct {
	Tree  string
	XRef  string
	XRef2 string
}

// RelationshipURL implements RelationshipLinker.
func (l *TemplateLinker) RelationshipURL(from, to *genealogy.Individual) (string, error) {
	var b strings.Builder
	err := l.tmpl.Execute(&b, linkData{Tree: from.Tree, XRef: from.XRef, XRef2: to.XRef})
	if err != nil {
		return "", fmt.Errorf("render relationship url: %w", err)
	}
	return b.String(), nil
}

var _ RelationshipLinker = (*TemplateLinker)(nil)
