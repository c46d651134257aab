// Package docset writes a SQLite search index of the generated documentation
// in the layout used by Dash-compatible docset readers.
package docset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/model"
	"git.home.luguber.info/inful/classdoc/internal/resolver"
)

// EntryType is the docset entry kind.
type EntryType string

const (
	TypeClass     EntryType = "Class"
	TypeMethod    EntryType = "Method"
	TypeConstant  EntryType = "Constant"
	TypeNamespace EntryType = "Namespace"
)

// Entry is a single searchable symbol. Path is relative to the output root.
type Entry struct {
	Name string
	Type EntryType
	Path string
}

// Collect builds index entries for every class, method, constant and
// namespace known to the resolver's symbol table. Method entries are named
// Class.method for class methods and Class#method for instance methods.
func Collect(r *resolver.Resolver) []Entry {
	table := r.Table()
	var entries []Entry
	for _, c := range table.Classes() {
		page := model.PathToFile(c.QualifiedName)
		entries = append(entries, Entry{Name: c.QualifiedName, Type: TypeClass, Path: page})
		for _, m := range c.Methods {
			sep := "#"
			if m.Type == model.MethodTypeClass {
				sep = "."
			}
			entries = append(entries, Entry{
				Name: c.QualifiedName + sep + m.Name,
				Type: TypeMethod,
				Path: page + "#" + m.Anchor(),
			})
		}
		for _, v := range c.Constants() {
			entries = append(entries, Entry{
				Name: c.QualifiedName + "." + v.Name,
				Type: TypeConstant,
				Path: page + "#" + v.Anchor(),
			})
		}
	}
	for _, ns := range table.Namespaces() {
		if _, isClass := table.Lookup(ns); isClass {
			continue
		}
		entries = append(entries, Entry{Name: ns, Type: TypeNamespace, Path: r.GetLink(ns, "")})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Type < entries[j].Type
	})
	return entries
}

// Index is an open search index database.
type Index struct {
	db *sql.DB
}

// Create replaces any database at path with an empty index.
func Create(path string) (*Index, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale index: %w", err)
	}
	return Open(path)
}

// Open opens (and if needed initializes) the index at path. Use ":memory:"
// for a throwaway database.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	idx := &Index{db: db}
	if err := idx.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return idx, nil
}

func (i *Index) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS searchIndex (
		id INTEGER PRIMARY KEY,
		name TEXT,
		type TEXT,
		path TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS anchor ON searchIndex (name, type, path);
	`
	_, err := i.db.Exec(schema)
	return err
}

// Insert writes entries in a single transaction. Entries already present are
// ignored.
func (i *Index) Insert(ctx context.Context, entries []Entry) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO searchIndex (name, type, path) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Name, string(e.Type), e.Path); err != nil {
			return fmt.Errorf("insert %s: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Search returns entries whose name contains term, ordered by name.
func (i *Index) Search(ctx context.Context, term string) ([]Entry, error) {
	rows, err := i.db.QueryContext(ctx,
		"SELECT name, type, path FROM searchIndex WHERE name LIKE ? ORDER BY name, type",
		"%"+term+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var typ string
		if err := rows.Scan(&e.Name, &typ, &e.Path); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Type = EntryType(typ)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Count returns the number of indexed entries.
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM searchIndex").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Write creates a fresh index at path holding entries. Failures are
// classified as index errors.
func Write(ctx context.Context, path string, entries []Entry) error {
	idx, err := Create(path)
	if err != nil {
		return indexError(err, "failed to create docset index", path)
	}
	if err := idx.Insert(ctx, entries); err != nil {
		_ = idx.Close()
		return indexError(err, "failed to write docset entries", path)
	}
	if err := idx.Close(); err != nil {
		return indexError(err, "failed to close docset index", path)
	}
	return nil
}

func indexError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryIndex, msg).
		WithContext("path", path).
		Build()
}
