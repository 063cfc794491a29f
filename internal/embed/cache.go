// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"
)

// CacheFile is the embedding cache name inside the data directory.
const CacheFile = "embeddings.db"

// Cache stores embedding vectors keyed by model and text.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening embedding cache: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS embeddings (
		key TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		dim INTEGER NOT NULL,
		vector BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key identifies a text embedded by model.
func Key(model, text string) string {
	d := xxhash.New()
	d.WriteString(model)
	d.WriteString("\x00")
	d.WriteString(text)
	return fmt.Sprintf("%016x", d.Sum64())
}

// Get returns the cached vector for text under model.
func (c *Cache) Get(model, text string) ([]float64, bool, error) {
	var blob []byte
	err := c.db.QueryRow(`SELECT vector FROM embeddings WHERE key = ?`, Key(model, text)).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading embedding: %w", err)
	}
	return decodeVector(blob), true, nil
}

// Put stores vectors[i] for texts[i] in one transaction.
func (c *Cache) Put(model string, texts []string, vectors [][]float64) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("%d texts but %d vectors", len(texts), len(vectors))
	}
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO embeddings (key, model, dim, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range texts {
		if _, err := stmt.Exec(Key(model, t), model, len(vectors[i]), encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("storing embedding: %w", err)
		}
	}
	return tx.Commit()
}

func encodeVector(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(x))
	}
	return b
}

func decodeVector(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v
}
