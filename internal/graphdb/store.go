package graphdb

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS symbols (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id    INTEGER NOT NULL REFERENCES files(id),
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id, start_line);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE TABLE IF NOT EXISTS edges (
	from_file TEXT NOT NULL,
	to_file   TEXT NOT NULL,
	kind      TEXT NOT NULL,
	UNIQUE(from_file, to_file, kind)
);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_file);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_file);
`

// Store is the multi-reader/single-writer graph database. Writers take an
// exclusive transaction (spec.md §5); readers during a rebuild observe the
// pre-rebuild snapshot because the rebuild itself is one transaction.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes writer transactions (one indexer per root)

	lockRetries int
	lockBackoff time.Duration
}

// Open creates or opens the SQLite-backed graph store at path, in WAL mode
// for concurrent-reader-friendliness (grounded on codenerd's northstar
// store, which opens mattn/go-sqlite3 the same way).
func Open(path string, lockRetries int, lockBackoff time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_cslike=true")
	if err != nil {
		return nil, fmt.Errorf("open graph db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init graph schema: %w", err)
	}
	if lockRetries <= 0 {
		lockRetries = 3
	}
	if lockBackoff <= 0 {
		lockBackoff = 50 * time.Millisecond
	}
	return &Store{db: db, lockRetries: lockRetries, lockBackoff: lockBackoff}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RebuildInput is the full payload of one indexing pass.
type RebuildInput struct {
	Files   []string
	Symbols []Symbol
	Edges   []Edge
}

// Rebuild clears edges, then symbols, then files, then inserts the new
// rows — all inside one transaction, satisfying the atomicity requirement
// of spec.md §4.2 and invariants I1-I4. Lock collisions retry with backoff,
// capped at the configured attempt count (spec.md §4.4).
func (s *Store) Rebuild(ctx context.Context, in RebuildInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= s.lockRetries; attempt++ {
		lastErr = s.rebuildOnce(ctx, in)
		if lastErr == nil {
			return nil
		}
		if !isLockErr(lastErr) || attempt == s.lockRetries {
			return lastErr
		}
		jitter := time.Duration(rand.Int63n(int64(s.lockBackoff)))
		time.Sleep(s.lockBackoff + jitter)
	}
	return lastErr
}

func isLockErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "lock")
}

func (s *Store) rebuildOnce(ctx context.Context, in RebuildInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM edges"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM symbols"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return err
	}

	fileIDs := make(map[string]int64, len(in.Files))
	insFile, err := tx.PrepareContext(ctx, "INSERT INTO files(path) VALUES (?)")
	if err != nil {
		return err
	}
	defer insFile.Close()
	for _, p := range in.Files {
		res, err := insFile.ExecContext(ctx, p)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		fileIDs[p] = id
	}

	insSym, err := tx.PrepareContext(ctx, "INSERT INTO symbols(file_id, name, kind, start_line, end_line) VALUES (?,?,?,?,?)")
	if err != nil {
		return err
	}
	defer insSym.Close()
	for _, sym := range in.Symbols {
		fid, ok := fileIDs[sym.File]
		if !ok {
			continue // I4: symbol's file must be an indexed file
		}
		if _, err := insSym.ExecContext(ctx, fid, sym.Name, string(sym.Kind), sym.StartLine, sym.EndLine); err != nil {
			return err
		}
	}

	insEdge, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO edges(from_file, to_file, kind) VALUES (?,?,?)")
	if err != nil {
		return err
	}
	defer insEdge.Close()
	seen := make(map[string]bool, len(in.Edges))
	for _, e := range in.Edges {
		if e.From == e.To {
			continue // self-loops excluded
		}
		if _, ok := fileIDs[e.From]; !ok {
			continue // I1
		}
		if _, ok := fileIDs[e.To]; !ok {
			continue // I1
		}
		key := e.From + "\x00" + e.To + "\x00" + e.Kind
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, err := insEdge.ExecContext(ctx, e.From, e.To, e.Kind); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListSymbols returns symbols for one file, or every file when file=="",
// ordered deterministically by (file, start_line).
func (s *Store) ListSymbols(ctx context.Context, file string) ([]Symbol, error) {
	var rows *sql.Rows
	var err error
	if file == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT f.path, s.name, s.kind, s.start_line, s.end_line
			FROM symbols s JOIN files f ON f.id = s.file_id
			ORDER BY f.path, s.start_line`)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT f.path, s.name, s.kind, s.start_line, s.end_line
			FROM symbols s JOIN files f ON f.id = s.file_id
			WHERE f.path = ?
			ORDER BY s.start_line`, file)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		var sym Symbol
		var kind string
		if err := rows.Scan(&sym.File, &sym.Name, &kind, &sym.StartLine, &sym.EndLine); err != nil {
			return nil, err
		}
		sym.Kind = SymbolKind(kind)
		out = append(out, sym)
	}
	return out, rows.Err()
}

// ListImports returns the files that `file` imports (outgoing edges).
func (s *Store) ListImports(ctx context.Context, file string) ([]string, error) {
	return s.queryEdgeTargets(ctx, "SELECT to_file FROM edges WHERE from_file = ? ORDER BY to_file", file)
}

// ListDependents returns the files that import `file` (incoming edges).
func (s *Store) ListDependents(ctx context.Context, file string) ([]string, error) {
	return s.queryEdgeTargets(ctx, "SELECT from_file FROM edges WHERE to_file = ? ORDER BY from_file", file)
}

func (s *Store) queryEdgeTargets(ctx context.Context, query, file string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, file)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindRefs returns files that import any file containing a symbol whose
// name substring-matches name (case-sensitive substring per spec.md §4.2),
// deduplicated.
func (s *Store) FindRefs(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT e.from_file
		FROM edges e
		JOIN files f ON f.path = e.to_file
		JOIN symbols s ON s.file_id = f.id
		WHERE s.name LIKE '%' || ? || '%'
		ORDER BY e.from_file`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Degree returns out-edges + in-edges for file, used by the ranker's graph
// signal.
func (s *Store) Degree(ctx context.Context, file string) (int, error) {
	var out, in int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges WHERE from_file = ?", file)
	if err := row.Scan(&out); err != nil {
		return 0, err
	}
	row = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges WHERE to_file = ?", file)
	if err := row.Scan(&in); err != nil {
		return 0, err
	}
	return out + in, nil
}

// Counts is the architecture-summary tally.
type Counts struct {
	Files   int
	Symbols int
	Edges   int
}

func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&c.Files); err != nil {
		return c, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols").Scan(&c.Symbols); err != nil {
		return c, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges").Scan(&c.Edges); err != nil {
		return c, err
	}
	return c, nil
}

// AllFiles returns every indexed file path, sorted, used by
// resources/list and set-equality checks (I5).
func (s *Store) AllFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, rows.Err()
}
