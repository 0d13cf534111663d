// Package store keeps a SQLite index of scanned classes: one row per
// class and one per method.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rlegendi/jyzer/classfile"
	"github.com/rlegendi/jyzer/format"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

// ErrClassNotFound indicates the requested class is not indexed.
var ErrClassNotFound = errors.New("class not found")

func log() commonlog.Logger {
	return commonlog.GetLogger("jyzer.store")
}

const schema = `
CREATE TABLE IF NOT EXISTS classes (
	name        TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	major       INTEGER NOT NULL,
	minor       INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	super_class TEXT NOT NULL,
	interfaces  TEXT NOT NULL,
	summary     BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS methods (
	class       TEXT NOT NULL REFERENCES classes(name) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	descriptor  TEXT NOT NULL,
	access      INTEGER NOT NULL,
	code_length INTEGER NOT NULL,
	PRIMARY KEY (class, name, descriptor)
);
CREATE INDEX IF NOT EXISTS methods_by_name ON methods(name);
`

// Index is safe for concurrent use; writes are serialized.
type Index struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open creates or opens the index database at path.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps per-connection pragmas in force and lets
	// ":memory:" databases be shared.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Index{db: db, path: path}, nil
}

func (ix *Index) Close() error {
	if ix.db != nil {
		return ix.db.Close()
	}
	return nil
}

// Put records a decoded class, replacing any earlier row for the same
// class name. source names where the class was read from.
func (ix *Index) Put(ctx context.Context, source string, cf *classfile.ClassFile) error {
	summary := format.NewClass(cf)
	blob, err := format.MarshalCBOR(summary)
	if err != nil {
		return fmt.Errorf("encoding summary of %s: %w", summary.Name, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	name := cf.ThisClassName()
	if _, err := tx.ExecContext(ctx, "DELETE FROM methods WHERE class = ?", name); err != nil {
		return fmt.Errorf("clearing methods of %s: %w", name, err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO classes (name, source, major, minor, kind, super_class, interfaces, summary) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		name, source, cf.MajorVersion, cf.MinorVersion, summary.Kind, superName(cf),
		strings.Join(cf.InterfaceNames(), ","), blob,
	)
	if err != nil {
		return fmt.Errorf("saving class %s: %w", name, err)
	}

	cp := cf.ConstantPool
	for i := range cf.Methods {
		m := &cf.Methods[i]
		codeLength := 0
		if code := m.Code(); code != nil {
			codeLength = len(code.Code)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO methods (class, name, descriptor, access, code_length) VALUES (?, ?, ?, ?, ?)",
			name, m.Name(cp), m.Descriptor(cp), uint16(m.AccessFlags), codeLength,
		)
		if err != nil {
			return fmt.Errorf("saving method %s.%s: %w", name, m.Name(cp), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", name, err)
	}
	log().Debugf("indexed %s from %s (%d methods)", name, source, len(cf.Methods))
	return nil
}

func superName(cf *classfile.ClassFile) string {
	if !cf.HasSuperClass() {
		return ""
	}
	return cf.SuperClassName()
}

// Get returns the stored summary of the class with the given internal name.
func (ix *Index) Get(ctx context.Context, name string) (*format.Class, error) {
	var blob []byte
	err := ix.db.QueryRowContext(ctx, "SELECT summary FROM classes WHERE name = ?", name).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("querying class %s: %w", name, err)
	}
	return format.UnmarshalCBOR(blob)
}

func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM classes").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting classes: %w", err)
	}
	return n, nil
}

// MethodRef locates one indexed method.
type MethodRef struct {
	Class      string
	Name       string
	Descriptor string
	Access     classfile.AccessFlags
	CodeLength int
}

// FindMethods lists the indexed methods called name, ordered by class.
func (ix *Index) FindMethods(ctx context.Context, name string) ([]MethodRef, error) {
	rows, err := ix.db.QueryContext(ctx,
		"SELECT class, name, descriptor, access, code_length FROM methods WHERE name = ? ORDER BY class, descriptor", name)
	if err != nil {
		return nil, fmt.Errorf("querying methods %s: %w", name, err)
	}
	defer rows.Close()

	var refs []MethodRef
	for rows.Next() {
		var ref MethodRef
		var access uint16
		if err := rows.Scan(&ref.Class, &ref.Name, &ref.Descriptor, &access, &ref.CodeLength); err != nil {
			return nil, fmt.Errorf("reading method row: %w", err)
		}
		ref.Access = classfile.AccessFlags(access)
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Subclasses lists the indexed classes whose direct superclass is name.
func (ix *Index) Subclasses(ctx context.Context, name string) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx, "SELECT name FROM classes WHERE super_class = ? ORDER BY name", name)
	if err != nil {
		return nil, fmt.Errorf("querying subclasses of %s: %w", name, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("reading class row: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
