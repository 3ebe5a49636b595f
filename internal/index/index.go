// Package index provides a throwaway SQLite full-text index over the
// entries of a bibliography file. The file stays the source of truth; the
// index is rebuilt from it on demand.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/aykhuss/inspire/internal/bibtex"
)

// Memory is the DSN of an in-memory index.
const Memory = ":memory:"

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Hit is one matching entry.
type Hit struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Eprint string `json:"eprint,omitempty"`
	Year   string `json:"year,omitempty"`
}

// Open opens or creates an index at path. Use Memory for an index that
// lives only as long as the DB.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// one connection keeps an in-memory database alive and serializes writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			citekey TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			title TEXT,
			author TEXT,
			eprint TEXT,
			year TEXT,
			pos INTEGER NOT NULL,
			raw TEXT NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			citekey,
			title,
			author,
			body
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the index and fills it from the bibliography at bibPath.
// Repeated keys keep their first entry. It returns the number of entries
// indexed.
func (d *DB) Rebuild(bibPath string) (int, error) {
	res, err := bibtex.ParseFile(bibPath)
	if err != nil {
		return 0, fmt.Errorf("reading bibliography: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return 0, fmt.Errorf("clearing entries table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM entries_fts"); err != nil {
		return 0, fmt.Errorf("clearing entries_fts table: %w", err)
	}

	entryStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO entries (citekey, type, title, author, eprint, year, pos, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing entries insert: %w", err)
	}
	defer entryStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO entries_fts (citekey, title, author, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	count := 0
	for _, e := range res.Entries {
		title, author := e.Field("title"), e.Field("author")
		r, err := entryStmt.Exec(e.Key, e.Type, title, author, e.Field("eprint"), e.Field("year"), e.Offset, e.Text)
		if err != nil {
			return 0, fmt.Errorf("inserting entry %s: %w", e.Key, err)
		}
		if n, _ := r.RowsAffected(); n == 0 {
			continue
		}
		if _, err := ftsStmt.Exec(e.Key, title, author, e.Text); err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", e.Key, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing index: %w", err)
	}
	return count, nil
}

// Search returns entries matching query, best match first.
func (d *DB) Search(query string, limit int) ([]Hit, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT e.citekey, e.type, e.title, e.author, e.eprint, e.year
		FROM entries e
		JOIN (SELECT citekey, rank FROM entries_fts WHERE entries_fts MATCH ?) f
			ON f.citekey = e.citekey
		ORDER BY f.rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var title, author, eprint, year sql.NullString
		if err := rows.Scan(&h.Key, &h.Type, &title, &author, &eprint, &year); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.Title, h.Author, h.Eprint, h.Year = title.String, author.String, eprint.String, year.String
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Get returns the raw entry text for key.
func (d *DB) Get(key string) (string, error) {
	var text string
	err := d.db.QueryRow("SELECT raw FROM entries WHERE citekey = ?", key).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("entry %q not in index: %w", key, err)
	}
	return text, err
}

// Count returns the number of indexed entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// ftsKeywords are FTS5 operators that bare terms must not turn into.
var ftsKeywords = []string{"AND", "OR", "NOT", "NEAR"}

// prepareFTSQuery turns free text into an FTS5 query. Terms containing
// FTS5 syntax characters (":" appears in every INSPIRE key) and operator
// keywords are quoted as phrases; terms are ANDed.
func prepareFTSQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		if strings.ContainsAny(t, "\"*+-:(){}[]^~.,/") || isFTSKeyword(t) {
			terms[i] = "\"" + strings.ReplaceAll(t, "\"", "\"\"") + "\""
		}
	}
	return strings.Join(terms, " ")
}

func isFTSKeyword(term string) bool {
	for _, k := range ftsKeywords {
		if strings.EqualFold(term, k) {
			return true
		}
	}
	return false
}
