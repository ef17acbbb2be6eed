package api

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

var (
	pedigreeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sosaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	splitStyle    = lipgloss.NewStyle().Faint(true)
)

// WriteOutline writes a plain-text outline of the forest, one tree per
// branch:
//
//	Adam Smith (1850-1920)
//	└── + Mary Brown (1855-) m. 12 MAY 1878
//	    ├── Carl Smith (1880-)
//	    └── Dora Jones …
func WriteOutline(w io.Writer, f *Forest) error {
	if len(f.Branches) == 0 {
		_, err := fmt.Fprintf(w, "No branches for surname %q.\n", f.Surname)
		return err
	}
	for i, b := range f.Branches {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, outlineTree(b).String()); err != nil {
			return err
		}
	}
	return nil
}

func outlineTree(n *Node) *tree.Tree {
	t := tree.Root(nodeLine(n)).Enumerator(tree.RoundedEnumerator)
	for _, u := range n.Unions {
		ut := tree.Root(unionLine(u))
		for _, c := range u.Children {
			ut.Child(outlineTree(c))
		}
		t.Child(ut)
	}
	return t
}

func nodeLine(n *Node) string {
	var b strings.Builder
	if n.Pedigree != "" {
		b.WriteString(pedigreeStyle.Render(n.Pedigree))
		b.WriteString(" ")
	}
	switch n.Kind {
	case KindSplit:
		b.WriteString(splitStyle.Render(n.Person.Name + " …"))
	case KindTruncated:
		b.WriteString(n.Person.Name + " [...]")
	default:
		b.WriteString(personLine(n.Person))
	}
	return b.String()
}

func personLine(p Person) string {
	line := p.Name
	if p.Lifespan != "" {
		line += " (" + p.Lifespan + ")"
	}
	if p.Sosa != nil {
		line += " " + sosaStyle.Render("["+strconv.FormatInt(p.Sosa.Number, 10)+"]")
	}
	return line
}

func unionLine(u Union) string {
	if u.Spouse == nil {
		return "+ ?"
	}
	line := "+ " + personLine(*u.Spouse)
	if u.Marriage == nil {
		return line
	}
	switch u.Marriage.Status {
	case MarriageDated:
		date := u.Marriage.Date
		if date == "" {
			date = strconv.Itoa(u.Marriage.Year)
		}
		line += " m. " + date
	case MarriageUndated:
		line += " m."
	case MarriageNotMarried:
		line += " not married"
	}
	return line
}
