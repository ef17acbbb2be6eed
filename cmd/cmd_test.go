package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/kinbranch/api"
	"github.com/agentic-research/kinbranch/internal/branches"
	"github.com/agentic-research/kinbranch/internal/genealogy"
	"github.com/agentic-research/kinbranch/internal/ingest"
)

const testDataset = `{
  "tree": "demo",
  "individuals": [
    {"xref": "A", "sex": "M", "birth": "1850", "names": [{"given": "Adam", "surname": "Smith"}]},
    {"xref": "B", "sex": "F", "birth": "1855", "names": [{"given": "Mary", "surname": "Brown"}]},
    {"xref": "C", "sex": "M", "birth": "1880", "names": [{"given": "Carl", "surname": "Smith"}]},
    {"xref": "D", "sex": "F", "birth": "1882", "names": [{"given": "Dora", "surname": "Jones"}]}
  ],
  "families": [
    {"xref": "F1", "husband": "A", "wife": "B", "children": ["C", "D"], "marriage": {"date": "1878"}}
  ]
}`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.json")
	require.NoError(t, os.WriteFile(path, []byte(testDataset), 0o644))
	return path
}

// run executes the root command with fresh flag values.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, storePath, storeKind, logLevel = "", "", "", ""
	branchTree, branchSurname, branchSelf, branchFormat = "", "", "", "outline"
	branchStd, branchDM = false, false
	ancestorTree, ancestorSelf, ancestorFormat = "", "", "text"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBuildAndBranches(t *testing.T) {
	dataset := writeDataset(t)
	db := filepath.Join(t.TempDir(), "demo.db")

	out, err := run(t, "build", dataset, db)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 4 individuals and 1 families")

	out, err = run(t, "branches", "--store", db, "--tree", "demo", "--surname", "Smith", "--format", "json")
	require.NoError(t, err)

	var forest api.Forest
	require.NoError(t, json.Unmarshal([]byte(out), &forest))
	require.Len(t, forest.Branches, 1)
	root := forest.Branches[0]
	assert.Equal(t, "A", root.Person.XRef)
	require.Len(t, root.Unions, 1)
	kids := root.Unions[0].Children
	require.Len(t, kids, 2)
	assert.Equal(t, api.KindPerson, kids[0].Kind)
	assert.Equal(t, api.KindSplit, kids[1].Kind)
}

func TestBranches_JSONDriverOutline(t *testing.T) {
	dataset := writeDataset(t)

	// No --surname: the surname of --self is used.
	out, err := run(t, "branches", "--driver", "json", "--store", dataset, "--tree", "demo", "--self", "C")
	require.NoError(t, err)
	assert.Contains(t, out, "Adam Smith (1850-)")
	assert.Contains(t, out, "+ Mary Brown (1855-) m. 1878")
	assert.Contains(t, out, "Dora Jones …")
}

func TestBranches_Errors(t *testing.T) {
	dataset := writeDataset(t)

	_, err := run(t, "branches", "--driver", "json", "--store", dataset, "--tree", "demo")
	assert.ErrorContains(t, err, "--surname or --self")

	_, err = run(t, "branches", "--driver", "json", "--store", dataset, "--tree", "demo", "--self", "I404")
	assert.ErrorIs(t, err, genealogy.ErrNotFound)

	_, err = run(t, "branches", "--driver", "json", "--store", dataset, "--tree", "demo", "--surname", "Smith", "--format", "html")
	assert.ErrorContains(t, err, "unknown format")
}

func TestAncestors(t *testing.T) {
	dataset := writeDataset(t)

	out, err := run(t, "ancestors", "--driver", "json", "--store", dataset, "--tree", "demo", "--self", "C", "--format", "json")
	require.NoError(t, err)

	var entries []ancestorEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, ancestorEntry{Sosa: 2, Generation: 2, XRef: "A", Name: "Adam Smith", Lifespan: "1850-"}, entries[1])
	assert.Equal(t, int64(3), entries[2].Sosa)

	out, err = run(t, "ancestors", "--driver", "json", "--store", dataset, "--tree", "demo", "--self", "C")
	require.NoError(t, err)
	assert.Contains(t, out, "SOSA")
	assert.Contains(t, out, "Mary Brown")
}

func newToolFixture(t *testing.T) (genealogy.Store, *branches.Engine) {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "demo.json", []byte(testDataset), 0o644))
	store := genealogy.NewMemoryStore()
	_, err := ingest.NewImporter(fs, nil).Import(context.Background(), "demo.json", store)
	require.NoError(t, err)
	return store, &branches.Engine{Store: store}
}

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func TestMCPTools(t *testing.T) {
	store, e := newToolFixture(t)
	require.NotNil(t, newMCPServer(store, e))

	t.Run("branches", func(t *testing.T) {
		res := callTool(t, branchesTool(store, e), map[string]any{"tree": "demo", "surname": "Smith"})
		assert.False(t, res.IsError)
		var forest api.Forest
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &forest))
		require.Len(t, forest.Branches, 1)
		assert.Equal(t, "A", forest.Branches[0].Person.XRef)
	})

	t.Run("branches requires tree", func(t *testing.T) {
		res := callTool(t, branchesTool(store, e), map[string]any{"surname": "Smith"})
		assert.True(t, res.IsError)
	})

	t.Run("branches requires surname or self", func(t *testing.T) {
		res := callTool(t, branchesTool(store, e), map[string]any{"tree": "demo"})
		assert.True(t, res.IsError)
	})

	t.Run("ancestors", func(t *testing.T) {
		res := callTool(t, ancestorsTool(store), map[string]any{"tree": "demo", "self": "C"})
		assert.False(t, res.IsError)
		var entries []ancestorEntry
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &entries))
		assert.Len(t, entries, 3)
	})

	t.Run("ancestors unknown self", func(t *testing.T) {
		res := callTool(t, ancestorsTool(store), map[string]any{"tree": "demo", "self": "nope"})
		assert.True(t, res.IsError)
	})
}

const privateDataset = `{
  "tree": "demo",
  "individuals": [
    {"xref": "A", "sex": "M", "birth": "1850", "names": [{"given": "Adam", "surname": "Smith"}]},
    {"xref": "B", "sex": "F", "birth": "1855", "private": true, "names": [{"given": "Mary", "surname": "Brown"}]},
    {"xref": "C", "sex": "M", "birth": "1880", "names": [{"given": "Carl", "surname": "Smith"}]},
    {"xref": "P", "sex": "F", "birth": "1884", "private": true, "names": [{"given": "Pat", "surname": "Smith"}]}
  ],
  "families": [
    {"xref": "F1", "husband": "A", "wife": "B", "children": ["C", "P"]}
  ]
}`

func newPrivateStore(t *testing.T) *genealogy.MemoryStore {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "demo.json", []byte(privateDataset), 0o644))
	store := genealogy.NewMemoryStore()
	_, err := ingest.NewImporter(fs, nil).Import(context.Background(), "demo.json", store)
	require.NoError(t, err)
	return store
}

func TestListAncestors_Private(t *testing.T) {
	ctx := context.Background()
	store := newPrivateStore(t)

	entries, err := listAncestors(ctx, store, "demo", "C")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Adam Smith", entries[1].Name)
	assert.Equal(t, ancestorEntry{Sosa: 3, Generation: 2, XRef: "B", Name: privateName}, entries[2])

	_, err = listAncestors(ctx, store, "demo", "P")
	assert.ErrorIs(t, err, genealogy.ErrNotFound)

	t.Run("shown when private records are enabled", func(t *testing.T) {
		store.ShowPrivate = true
		t.Cleanup(func() { store.ShowPrivate = false })

		entries, err := listAncestors(ctx, store, "demo", "C")
		require.NoError(t, err)
		assert.Equal(t, "Mary Brown", entries[2].Name)
		assert.Equal(t, "1855-", entries[2].Lifespan)

		entries, err = listAncestors(ctx, store, "demo", "P")
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("mcp tool", func(t *testing.T) {
		res := callTool(t, ancestorsTool(store), map[string]any{"tree": "demo", "self": "C"})
		assert.False(t, res.IsError)
		assert.NotContains(t, resultText(t, res), "Mary Brown")
	})
}

func TestRunBranches_PrivateSelf(t *testing.T) {
	ctx := context.Background()
	store := newPrivateStore(t)
	linker, err := branches.NewTemplateLinker("/rel/{{.XRef}}/{{.XRef2}}")
	require.NoError(t, err)
	e := &branches.Engine{Store: store, Linker: linker}

	// A hidden self lends neither its surname nor its ancestry.
	forest, err := runBranches(ctx, e, store, branchesParams{Tree: "demo", Self: "P"})
	require.NoError(t, err)
	assert.Empty(t, forest.Branches)

	forest, err = runBranches(ctx, e, store, branchesParams{Tree: "demo", Surname: "Smith", Self: "P"})
	require.NoError(t, err)
	require.Len(t, forest.Branches, 1)
	assert.Nil(t, forest.Branches[0].Person.Sosa)

	forest, err = runBranches(ctx, e, store, branchesParams{Tree: "demo", Self: "C"})
	require.NoError(t, err)
	assert.Equal(t, "Smith", forest.Surname)
	require.Len(t, forest.Branches, 1)
	require.NotNil(t, forest.Branches[0].Person.Sosa)
	assert.Equal(t, int64(2), forest.Branches[0].Person.Sosa.Number)
}
