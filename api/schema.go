package api

// Forest is the result of one branches request: one descendant tree per
// patriarch, in patriarch (birth date) order.
type Forest struct {
	// Tree is the dataset the branches were drawn from.
	Tree string `json:"tree"`
	// Surname is the searched surname.
	Surname string `json:"surname"`
	// Branches holds one root node per patriarch.
	Branches []*Node `json:"branches"`
}

// NodeKind classifies a render node.
type NodeKind string

const (
	// KindPerson is a fully rendered individual.
	KindPerson NodeKind = "person"
	// KindSplit is a descendant who no longer carries the surname.
	// The branch stops there.
	KindSplit NodeKind = "split"
	// KindTruncated marks a subtree cut short by the depth or cycle guard.
	KindTruncated NodeKind = "truncated"
)

// Node is one individual in a branch.
type Node struct {
	Kind   NodeKind `json:"kind"`
	Person Person   `json:"person"`
	// Pedigree is the label of a non-birth link to the parents the node was
	// reached from (e.g. "Adopted").
	Pedigree string `json:"pedigree,omitempty"`
	// Unions lists the individual's families, ordered by marriage date.
	Unions []Union `json:"unions,omitempty"`
}

// Person is the rendered line of an individual.
type Person struct {
	XRef     string `json:"xref"`
	Sex      string `json:"sex"`
	Name     string `json:"name"`
	Lifespan string `json:"lifespan,omitempty"`
	URL      string `json:"url,omitempty"`
	// Sosa is set when the individual is a direct-line ancestor of the
	// requesting individual.
	Sosa *Sosa `json:"sosa,omitempty"`
}

// Sosa annotates a direct-line ancestor.
type Sosa struct {
	Number     int64  `json:"number"`
	Generation int    `json:"generation"`
	ChartURL   string `json:"chart_url,omitempty"`
}

// MarriageStatus of a union.
type MarriageStatus string

const (
	MarriageDated      MarriageStatus = "dated"
	MarriageUndated    MarriageStatus = "undated"
	MarriageNotMarried MarriageStatus = "not_married"
)

// Marriage is the marker shown between the partners of a union.
type Marriage struct {
	Status MarriageStatus `json:"status"`
	Year   int            `json:"year,omitempty"`
	Date   string         `json:"date,omitempty"`
}

// Union is one family of the individual: the spouse, the marriage marker
// and the rendered children. Spouse and Marriage are nil for a family
// without a partner.
type Union struct {
	Family   string    `json:"family"`
	URL      string    `json:"url,omitempty"`
	Spouse   *Person   `json:"spouse,omitempty"`
	Marriage *Marriage `json:"marriage,omitempty"`
	Children []*Node   `json:"children"`
}
