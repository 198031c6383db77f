// Package fingerprints remembers unfinished resumable sessions on local disk
// so an interrupted upload of the same file can continue from its offset.
package fingerprints

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/skydrive/internal/dbx"
	"github.com/dmitrijs2005/skydrive/internal/filex"
	"github.com/dmitrijs2005/skydrive/internal/migrations"
)

// Record is one known session for a fingerprint.
type Record struct {
	ID          int64
	Fingerprint string
	UploadURL   string
	ObjectPath  string
	Size        int64
	CreatedAt   time.Time
}

// MaxPerFingerprint caps how many sessions are remembered for one file.
const MaxPerFingerprint = 5

// SQLiteStore keeps records in the upload_fingerprints table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Open opens (or creates) the SQLite file at path and migrates it.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("db dir error: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	// one writer; modernc serialises anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrations.UpSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}

// Find returns the records for fingerprint, most recent first.
func (s *SQLiteStore) Find(ctx context.Context, fingerprint string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, fingerprint, upload_url, object_path, size, created_at
		FROM upload_fingerprints WHERE fingerprint = ? ORDER BY created_at DESC, id DESC`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to find fingerprints: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Fingerprint, &r.UploadURL, &r.ObjectPath, &r.Size, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fingerprint rows: %w", err)
	}
	return result, nil
}

// Save stores r and forgets the oldest sessions of the same fingerprint
// beyond MaxPerFingerprint. CreatedAt defaults to now.
func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO upload_fingerprints (fingerprint, upload_url, object_path, size, created_at)
			VALUES (?, ?, ?, ?, ?)`, r.Fingerprint, r.UploadURL, r.ObjectPath, r.Size, r.CreatedAt); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM upload_fingerprints WHERE fingerprint = ? AND id NOT IN (
			SELECT id FROM upload_fingerprints WHERE fingerprint = ? ORDER BY created_at DESC, id DESC LIMIT ?)`,
			r.Fingerprint, r.Fingerprint, MaxPerFingerprint)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save fingerprint: %w", err)
	}
	return nil
}

// Remove deletes every record for fingerprint.
func (s *SQLiteStore) Remove(ctx context.Context, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM upload_fingerprints WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to remove fingerprint: %w", err)
	}
	return nil
}

// RemoveURL deletes the record of one session.
func (s *SQLiteStore) RemoveURL(ctx context.Context, uploadURL string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM upload_fingerprints WHERE upload_url = ?`, uploadURL)
	if err != nil {
		return fmt.Errorf("failed to remove fingerprint: %w", err)
	}
	return nil
}
