package genealogy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store by querying a database built by SQLiteWriter.
//
// The database is opened read-only. Records are assembled from the
// individuals/name/link tables on demand and kept in a FIFO-bounded cache,
// since one render touches the same people many times (as child, spouse
// and ancestor).
type SQLiteStore struct {
	db          *sql.DB
	dbPath      string
	ShowPrivate bool

	cache *recordCache
}

// OpenSQLiteStore opens a read-only connection to dbPath.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(4)

	// sql.Open is lazy; fail now if the file or schema is missing.
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM individuals").Scan(&n); err != nil {
		_ = db.Close() // ignore error
		return nil, fmt.Errorf("probe %s: %w", dbPath, err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		cache:  newRecordCache(4096),
	}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Individual implements Store.
func (s *SQLiteStore) Individual(ctx context.Context, tree, xref string) (*Individual, error) {
	key := "I\x00" + tree + "\x00" + xref
	if v, ok := s.cache.get(key); ok {
		return v.(*Individual), nil
	}

	ind := &Individual{XRef: xref, Tree: tree}
	var sex string
	var private int
	err := s.db.QueryRowContext(ctx,
		`SELECT i_sex, i_birth_key, i_lifespan, i_url, i_private FROM individuals WHERE i_file = ? AND i_id = ?`,
		tree, xref,
	).Scan(&sex, &ind.BirthKey, &ind.Lifespan, &ind.URL, &private)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("individual", tree, xref)
	}
	if err != nil {
		return nil, fmt.Errorf("query individual %s: %w", xref, err)
	}
	ind.Sex = ParseSex(sex)
	ind.Private = private != 0

	if ind.Names, err = s.names(ctx, tree, xref); err != nil {
		return nil, err
	}
	if ind.ChildLinks, err = s.childLinks(ctx, tree, xref); err != nil {
		return nil, err
	}
	if ind.SpouseFamilies, err = s.column(ctx,
		`SELECT l_fam FROM spouse_link WHERE l_file = ? AND l_indi = ? ORDER BY l_num`, tree, xref); err != nil {
		return nil, fmt.Errorf("query spouse links %s: %w", xref, err)
	}

	s.cache.put(key, ind)
	return ind, nil
}

func (s *SQLiteStore) names(ctx context.Context, tree, xref string) ([]Name, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT n_type, n_sort, n_full, n_surn, n_surname, n_soundex_surn_std, n_soundex_surn_dm
		 FROM name WHERE n_file = ? AND n_id = ? ORDER BY n_num`, tree, xref)
	if err != nil {
		return nil, fmt.Errorf("query names %s: %w", xref, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var names []Name
	for rows.Next() {
		var n Name
		if err := rows.Scan(&n.Type, &n.Sort, &n.Full, &n.Surn, &n.Surname, &n.SoundexStd, &n.SoundexDM); err != nil {
			return nil, fmt.Errorf("scan name %s: %w", xref, err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) childLinks(ctx context.Context, tree, xref string) ([]ChildLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l_fam, l_pedi FROM child_link WHERE l_file = ? AND l_indi = ? ORDER BY l_num`, tree, xref)
	if err != nil {
		return nil, fmt.Errorf("query child links %s: %w", xref, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var links []ChildLink
	for rows.Next() {
		var l ChildLink
		if err := rows.Scan(&l.Family, &l.Pedigree); err != nil {
			return nil, fmt.Errorf("scan child link %s: %w", xref, err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// column runs a single-column query and collects the strings.
func (s *SQLiteStore) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Family implements Store.
func (s *SQLiteStore) Family(ctx context.Context, tree, xref string) (*Family, error) {
	key := "F\x00" + tree + "\x00" + xref
	if v, ok := s.cache.get(key); ok {
		return v.(*Family), nil
	}

	fam := &Family{XRef: xref, Tree: tree}
	var married int
	err := s.db.QueryRowContext(ctx,
		`SELECT f_husb, f_wife, f_marr_year, f_marr_date, f_marr_key, f_married, f_url FROM families WHERE f_file = ? AND f_id = ?`,
		tree, xref,
	).Scan(&fam.Husband, &fam.Wife, &fam.MarriageYear, &fam.MarriageDate, &fam.MarriageKey, &married, &fam.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("family", tree, xref)
	}
	if err != nil {
		return nil, fmt.Errorf("query family %s: %w", xref, err)
	}
	fam.Married = married != 0

	if fam.Children, err = s.column(ctx,
		`SELECT c_indi FROM family_child WHERE c_file = ? AND c_fam = ? ORDER BY c_num`, tree, xref); err != nil {
		return nil, fmt.Errorf("query children %s: %w", xref, err)
	}

	s.cache.put(key, fam)
	return fam, nil
}

// SearchSurname implements Store. Code sets are stored colon-delimited, so
// each query code is matched with LIKE '%code%'.
func (s *SQLiteStore) SearchSurname(ctx context.Context, q SurnameQuery) ([]*Individual, error) {
	var (
		conds = []string{"n.n_surn = ? COLLATE NOCASE", "n.n_surname = ? COLLATE NOCASE"}
		args  = []any{q.Tree, NameMarried, q.Surname, q.Surname}
	)
	for _, c := range q.Std {
		conds = append(conds, "n.n_soundex_surn_std LIKE ?")
		args = append(args, "%"+c+"%")
	}
	for _, c := range q.DM {
		conds = append(conds, "n.n_soundex_surn_dm LIKE ?")
		args = append(args, "%"+c+"%")
	}

	query := `SELECT DISTINCT i.i_id FROM individuals i
		JOIN name n ON n.n_file = i.i_file AND n.n_id = i.i_id
		WHERE i.i_file = ? AND n.n_type <> ? AND (` + strings.Join(conds, " OR ") + `)`

	xrefs, err := s.column(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search surname %q: %w", q.Surname, err)
	}

	out := make([]*Individual, 0, len(xrefs))
	for _, xref := range xrefs {
		ind, err := s.Individual(ctx, q.Tree, xref)
		if err != nil {
			return nil, err
		}
		out = append(out, ind)
	}
	return out, nil
}

// Visible implements Store.
func (s *SQLiteStore) Visible(ind *Individual) bool {
	return s.ShowPrivate || !ind.Private
}

var _ Store = (*SQLiteStore)(nil)

// recordCache is a simple FIFO-evicting bounded cache for assembled records.
type recordCache struct {
	mu      sync.Mutex
	entries map[string]any
	keys    []string
	maxSize int
}

func newRecordCache(maxSize int) *recordCache {
	return &recordCache{
		entries: make(map[string]any, maxSize),
		keys:    make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func (c *recordCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *recordCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return
	}
	if len(c.entries) >= c.maxSize {
		evict := c.keys[0]
		c.keys = c.keys[1:]
		delete(c.entries, evict)
	}
	c.entries[key] = value
	c.keys = append(c.keys, key)
}
