package ingest

import (
	"fmt"
	"sync"

	"github.com/ohler55/ojg/jp"
)

// JsonWalker runs JSONPath selectors over parsed dataset documents.
// Compiled selectors are cached; a walker is safe for concurrent use.
type JsonWalker struct {
	mu    sync.Mutex
	exprs map[string]jp.Expr
}

func NewJsonWalker() *JsonWalker {
	return &JsonWalker{exprs: make(map[string]jp.Expr)}
}

func (w *JsonWalker) compile(selector string) (jp.Expr, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if x, ok := w.exprs[selector]; ok {
		return x, nil
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	w.exprs[selector] = x
	return x, nil
}

// Query returns every value selected from root.
func (w *JsonWalker) Query(root any, selector string) ([]Match, error) {
	x, err := w.compile(selector)
	if err != nil {
		return nil, err
	}
	results := x.Get(root)
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{value: r}
	}
	return matches, nil
}

// Match is one selected value.
type Match struct {
	value any
}

// Values returns the fields of an object match. A primitive is returned
// under the "value" key.
func (m Match) Values() map[string]any {
	switch v := m.value.(type) {
	case map[string]any:
		return v
	default:
		return map[string]any{"value": v}
	}
}

// Context returns the matched value, to be used as the root of child queries.
func (m Match) Context() any {
	return m.value
}

// String returns a string field, or "" when absent or not a string.
func (m Match) String(key string) string {
	s, _ := m.Values()[key].(string)
	return s
}

// Bool returns a boolean field, false when absent.
func (m Match) Bool(key string) bool {
	b, _ := m.Values()[key].(bool)
	return b
}

// Has reports whether an object match carries key, even with a null value.
func (m Match) Has(key string) bool {
	obj, ok := m.value.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj[key]
	return ok
}
