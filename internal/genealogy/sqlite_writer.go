package genealogy

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// schema mirrors the individuals/name/link layout of the record store.
// n_soundex_surn_std and n_soundex_surn_dm hold precomputed code sets so
// surname searches never recompute codes for the whole dataset.
const schema = `
CREATE TABLE IF NOT EXISTS individuals (
	i_file TEXT NOT NULL,
	i_id TEXT NOT NULL,
	i_sex TEXT NOT NULL DEFAULT 'U',
	i_birth_key INTEGER NOT NULL DEFAULT 0,
	i_lifespan TEXT NOT NULL DEFAULT '',
	i_url TEXT NOT NULL DEFAULT '',
	i_private INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (i_file, i_id)
);

CREATE TABLE IF NOT EXISTS name (
	n_file TEXT NOT NULL,
	n_id TEXT NOT NULL,
	n_num INTEGER NOT NULL,
	n_type TEXT NOT NULL,
	n_sort TEXT NOT NULL,
	n_full TEXT NOT NULL,
	n_surn TEXT NOT NULL DEFAULT '',
	n_surname TEXT NOT NULL DEFAULT '',
	n_soundex_surn_std TEXT NOT NULL DEFAULT '',
	n_soundex_surn_dm TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (n_file, n_id, n_num)
);

CREATE TABLE IF NOT EXISTS child_link (
	l_file TEXT NOT NULL,
	l_indi TEXT NOT NULL,
	l_num INTEGER NOT NULL,
	l_fam TEXT NOT NULL,
	l_pedi TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (l_file, l_indi, l_num)
);

CREATE TABLE IF NOT EXISTS spouse_link (
	l_file TEXT NOT NULL,
	l_indi TEXT NOT NULL,
	l_num INTEGER NOT NULL,
	l_fam TEXT NOT NULL,
	PRIMARY KEY (l_file, l_indi, l_num)
);

CREATE TABLE IF NOT EXISTS families (
	f_file TEXT NOT NULL,
	f_id TEXT NOT NULL,
	f_husb TEXT NOT NULL DEFAULT '',
	f_wife TEXT NOT NULL DEFAULT '',
	f_marr_year INTEGER NOT NULL DEFAULT 0,
	f_marr_date TEXT NOT NULL DEFAULT '',
	f_marr_key INTEGER NOT NULL DEFAULT 0,
	f_married INTEGER NOT NULL DEFAULT 0,
	f_url TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (f_file, f_id)
);

CREATE TABLE IF NOT EXISTS family_child (
	c_file TEXT NOT NULL,
	c_fam TEXT NOT NULL,
	c_num INTEGER NOT NULL,
	c_indi TEXT NOT NULL,
	PRIMARY KEY (c_file, c_fam, c_num)
);
`

// Created after bulk load for speed.
const searchIndexes = `
CREATE INDEX IF NOT EXISTS idx_name_surn ON name(n_file, n_surn COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_name_surname ON name(n_file, n_surname COLLATE NOCASE);
`

// SQLiteWriter implements Writer, bulk-loading records in batched transactions.
type SQLiteWriter struct {
	db        *sql.DB
	tx        *sql.Tx
	stmts     map[string]*sql.Stmt
	batchSize int
	count     int
	mu        sync.Mutex
}

var writerStatements = map[string]string{
	"indi":  `INSERT OR REPLACE INTO individuals (i_file, i_id, i_sex, i_birth_key, i_lifespan, i_url, i_private) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	"name":  `INSERT OR REPLACE INTO name (n_file, n_id, n_num, n_type, n_sort, n_full, n_surn, n_surname, n_soundex_surn_std, n_soundex_surn_dm) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	"famc":  `INSERT OR REPLACE INTO child_link (l_file, l_indi, l_num, l_fam, l_pedi) VALUES (?, ?, ?, ?, ?)`,
	"fams":  `INSERT OR REPLACE INTO spouse_link (l_file, l_indi, l_num, l_fam) VALUES (?, ?, ?, ?)`,
	"fam":   `INSERT OR REPLACE INTO families (f_file, f_id, f_husb, f_wife, f_marr_year, f_marr_date, f_marr_key, f_married, f_url) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	"child": `INSERT OR REPLACE INTO family_child (c_file, c_fam, c_num, c_indi) VALUES (?, ?, ?, ?)`,
}

// NewSQLiteWriter creates a writer and initializes the schema.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Performance tuning for bulk insert
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{
		db:        db,
		batchSize: 10000,
	}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) beginTx() error {
	var err error
	w.tx, err = w.db.Begin()
	if err != nil {
		return err
	}
	w.stmts = make(map[string]*sql.Stmt, len(writerStatements))
	for name, q := range writerStatements {
		st, err := w.tx.Prepare(q)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", name, err)
		}
		w.stmts[name] = st
	}
	return nil
}

func (w *SQLiteWriter) commitTx() error {
	for _, st := range w.stmts {
		_ = st.Close()
	}
	return w.tx.Commit()
}

// step counts one record and rotates the transaction every batchSize records.
// Must be called with w.mu held.
func (w *SQLiteWriter) step() error {
	w.count++
	if w.count < w.batchSize {
		return nil
	}
	w.count = 0
	if err := w.commitTx(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return w.beginTx()
}

// AddIndividual implements Writer.
func (w *SQLiteWriter) AddIndividual(ind *Individual) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	private := 0
	if ind.Private {
		private = 1
	}
	if _, err := w.stmts["indi"].Exec(ind.Tree, ind.XRef, string(ind.Sex), ind.BirthKey, ind.Lifespan, ind.URL, private); err != nil {
		return fmt.Errorf("insert individual %s: %w", ind.XRef, err)
	}
	for i, n := range ind.Names {
		if _, err := w.stmts["name"].Exec(ind.Tree, ind.XRef, i, n.Type, n.Sort, n.Full, n.Surn, n.Surname, n.SoundexStd, n.SoundexDM); err != nil {
			return fmt.Errorf("insert name %s/%d: %w", ind.XRef, i, err)
		}
	}
	for i, l := range ind.ChildLinks {
		if _, err := w.stmts["famc"].Exec(ind.Tree, ind.XRef, i, l.Family, l.Pedigree); err != nil {
			return fmt.Errorf("insert child link %s/%d: %w", ind.XRef, i, err)
		}
	}
	for i, f := range ind.SpouseFamilies {
		if _, err := w.stmts["fams"].Exec(ind.Tree, ind.XRef, i, f); err != nil {
			return fmt.Errorf("insert spouse link %s/%d: %w", ind.XRef, i, err)
		}
	}
	return w.step()
}

// AddFamily implements Writer.
func (w *SQLiteWriter) AddFamily(fam *Family) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	married := 0
	if fam.Married {
		married = 1
	}
	if _, err := w.stmts["fam"].Exec(fam.Tree, fam.XRef, fam.Husband, fam.Wife, fam.MarriageYear, fam.MarriageDate, fam.MarriageKey, married, fam.URL); err != nil {
		return fmt.Errorf("insert family %s: %w", fam.XRef, err)
	}
	for i, c := range fam.Children {
		if _, err := w.stmts["child"].Exec(fam.Tree, fam.XRef, i, c); err != nil {
			return fmt.Errorf("insert child %s/%d: %w", fam.XRef, i, err)
		}
	}
	return w.step()
}

// Close commits pending records, builds the search indexes and closes the database.
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.commitTx(); err != nil {
		_ = w.db.Close()
		return err
	}
	if _, err := w.db.Exec(searchIndexes); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("create search indexes: %w", err)
	}
	return w.db.Close()
}

var _ Writer = (*SQLiteWriter)(nil)
