package api

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForest() *Forest {
	return &Forest{
		Tree:    "demo",
		Surname: "Smith",
		Branches: []*Node{{
			Kind:   KindPerson,
			Person: Person{XRef: "A", Sex: "M", Name: "Adam Smith", Lifespan: "1850-1920", Sosa: &Sosa{Number: 2, Generation: 2}},
			Unions: []Union{
				{
					Family:   "F1",
					Spouse:   &Person{XRef: "B", Sex: "F", Name: "Mary Brown"},
					Marriage: &Marriage{Status: MarriageDated, Year: 1878, Date: "12 MAY 1878"},
					Children: []*Node{
						{Kind: KindPerson, Person: Person{XRef: "C", Name: "Carl Smith"}, Pedigree: "Adopted"},
						{Kind: KindSplit, Person: Person{XRef: "D", Name: "Dora Jones"}},
					},
				},
				{Family: "F2", Children: []*Node{{Kind: KindTruncated, Person: Person{XRef: "A", Name: "Adam Smith"}}}},
			},
		}},
	}
}

func TestWriteOutline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutline(&buf, sampleForest()))
	out := buf.String()

	for _, want := range []string{
		"Adam Smith (1850-1920)",
		"[2]",
		"+ Mary Brown m. 12 MAY 1878",
		"Adopted",
		"Carl Smith",
		"Dora Jones …",
		"+ ?",
		"Adam Smith [...]",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Carl")), bytes.Index(buf.Bytes(), []byte("Dora")))
}

func TestWriteOutline_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutline(&buf, &Forest{Surname: "Nobody"}))
	assert.Equal(t, "No branches for surname \"Nobody\".\n", buf.String())
}

func TestUnionLine_Markers(t *testing.T) {
	spouse := &Person{Name: "Eve Green"}
	assert.Equal(t, "+ Eve Green m. 1900", unionLine(Union{Spouse: spouse, Marriage: &Marriage{Status: MarriageDated, Year: 1900}}))
	assert.Equal(t, "+ Eve Green m.", unionLine(Union{Spouse: spouse, Marriage: &Marriage{Status: MarriageUndated}}))
	assert.Equal(t, "+ Eve Green not married", unionLine(Union{Spouse: spouse, Marriage: &Marriage{Status: MarriageNotMarried}}))
}

func TestForest_JSONShape(t *testing.T) {
	raw, err := json.Marshal(sampleForest())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	branch := doc["branches"].([]any)[0].(map[string]any)
	assert.Equal(t, "person", branch["kind"])
	union := branch["unions"].([]any)[1].(map[string]any)
	assert.NotContains(t, union, "spouse")
	assert.NotContains(t, union, "marriage")
}
