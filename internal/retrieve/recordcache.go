// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/fmri-topics/pkg/types"
)

var recordSchema = []string{
	`CREATE TABLE IF NOT EXISTS records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		pmid INTEGER NOT NULL,
		year INTEGER NOT NULL,
		abstract TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_year ON records(year)`,
	`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// WriteRecordCache stores records in a new SQLite database at path. The
// database is built under a temporary name and renamed into place once
// complete, so an interrupted run leaves no cache behind.
func WriteRecordCache(path, fingerprint string, records []types.Record) error {
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale temp cache: %w", err)
	}

	if err := writeRecords(tmp, fingerprint, records); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("installing record cache: %w", err)
	}
	return nil
}

func writeRecords(path, fingerprint string, records []types.Record) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening record cache: %w", err)
	}
	defer db.Close()

	for _, stmt := range recordSchema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO records (pmid, year, abstract) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var abstract sql.NullString
		if r.Abstract != nil {
			abstract = sql.NullString{String: *r.Abstract, Valid: true}
		}
		if _, err := stmt.Exec(r.PMID, r.Year, abstract); err != nil {
			return fmt.Errorf("inserting record %d: %w", r.PMID, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES ('fingerprint', ?)`, fingerprint); err != nil {
		return fmt.Errorf("writing fingerprint: %w", err)
	}
	return tx.Commit()
}

// ReadRecordCache loads every record in insertion order together with the
// fingerprint stored alongside them.
func ReadRecordCache(path string) ([]types.Record, string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, "", fmt.Errorf("record cache: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, "", fmt.Errorf("opening record cache: %w", err)
	}
	defer db.Close()

	var fingerprint string
	err = db.QueryRow(`SELECT value FROM meta WHERE key = 'fingerprint'`).Scan(&fingerprint)
	if err != nil && err != sql.ErrNoRows {
		return nil, "", fmt.Errorf("reading fingerprint: %w", err)
	}

	rows, err := db.Query(`SELECT pmid, year, abstract FROM records ORDER BY seq`)
	if err != nil {
		return nil, "", fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var (
			r        types.Record
			abstract sql.NullString
		)
		if err := rows.Scan(&r.PMID, &r.Year, &abstract); err != nil {
			return nil, "", fmt.Errorf("scanning record: %w", err)
		}
		if abstract.Valid {
			s := abstract.String
			r.Abstract = &s
		}
		records = append(records, r)
	}
	return records, fingerprint, rows.Err()
}
