//go:build sqlite_vec && cgo

package manifest

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteVecSink is the embedded alternative to HTTPVectorSink: it stores
// the hash-bucket embeddings in a sqlite-vec virtual table in the same
// SQLite file family as the graph store, avoiding a network hop for
// single-workstation deployments. Grounded on
// theRebelliousNerd-codenerd's internal/store/init_vec.go, which registers
// the same asg017/sqlite-vec-go-bindings extension on mattn/go-sqlite3.
type SQLiteVecSink struct {
	db *sql.DB
}

// NewSQLiteVecSink opens (or creates) a sqlite-vec virtual table at path.
// Requires the sqlite_vec build tag, which also imports
// graphdb.vecindex_sqlitevec's init() to register the extension.
func NewSQLiteVecSink(path string) (*SQLiteVecSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	schema := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS semantic_vectors USING vec0(id TEXT PRIMARY KEY, embedding FLOAT[%d])",
		EmbeddingDim,
	)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init vector schema: %w", err)
	}
	return &SQLiteVecSink{db: db}, nil
}

func (s *SQLiteVecSink) Close() error { return s.db.Close() }

func (s *SQLiteVecSink) Upsert(entry SemanticEntry) error {
	vec := Embed(entry.Text)
	encoded, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO semantic_vectors(id, embedding) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET embedding = excluded.embedding",
		entry.ID, string(encoded),
	)
	return err
}
