package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/dbx"
	"github.com/dmitrijs2005/skydrive/internal/models"
)

const fileColumns = `id, user_id, file_name, file_path, file_size, mime_type, upload_date,
	is_shared, share_url, is_trashed, trashed_date, thumbnail_url`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	var (
		f         models.File
		shareURL  sql.NullString
		trashedAt sql.NullTime
		thumbnail sql.NullString
	)
	if err := s.Scan(&f.ID, &f.OwnerID, &f.DisplayName, &f.StoragePath, &f.SizeBytes, &f.MIMEType, &f.UploadedAt,
		&f.IsShared, &shareURL, &f.IsTrashed, &trashedAt, &thumbnail); err != nil {
		return nil, err
	}
	f.ShareURL = shareURL.String
	f.ThumbnailURL = thumbnail.String
	if trashedAt.Valid {
		t := trashedAt.Time
		f.TrashedAt = &t
	}
	return &f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Insert creates a record for a freshly stored object. Flags start false.
func (r *PostgresRepository) Insert(ctx context.Context, nf models.NewFile) (*models.File, error) {
	query := `INSERT INTO files (user_id, file_name, file_path, file_size, mime_type, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + fileColumns

	row := r.db.QueryRowContext(ctx, query,
		nf.OwnerID, nf.DisplayName, nf.StoragePath, nf.SizeBytes, nf.MIMEType, nullString(nf.ThumbnailURL))
	f, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert file: %w", err)
	}
	return f, nil
}

// ListByOwner returns every record owned by ownerID ordered by upload_date desc.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 ORDER BY upload_date DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id string) (*models.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

// Get returns the record with the given id or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.File, error) {
	return r.getOne(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1`, id)
}

// GetShared returns a shared, non-trashed record or common.ErrorNotFound.
func (r *PostgresRepository) GetShared(ctx context.Context, id string) (*models.File, error) {
	return r.getOne(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1 AND is_shared AND NOT is_trashed`, id)
}

// UpdateTrash writes is_trashed and trashed_date together so the pair
// constraint holds. at is ignored when trashed is false.
func (r *PostgresRepository) UpdateTrash(ctx context.Context, ownerID, id string, trashed bool, at *time.Time) error {
	var trashedAt sql.NullTime
	if trashed {
		if at == nil {
			return fmt.Errorf("trashed date is required")
		}
		trashedAt = sql.NullTime{Time: *at, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `UPDATE files SET is_trashed=$3, trashed_date=$4 WHERE id=$1 AND user_id=$2`, id, ownerID, trashed, trashedAt)
	if err != nil {
		return fmt.Errorf("failed to update trash state: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

// UpdateShare writes is_shared and share_url together; shareURL is stored
// only while shared.
func (r *PostgresRepository) UpdateShare(ctx context.Context, ownerID, id string, shared bool, shareURL string) error {
	url := sql.NullString{}
	if shared {
		if shareURL == "" {
			return fmt.Errorf("share url is required")
		}
		url = nullString(shareURL)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE files SET is_shared=$3, share_url=$4 WHERE id=$1 AND user_id=$2`, id, ownerID, shared, url)
	if err != nil {
		return fmt.Errorf("failed to update share state: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

// UpdateName changes the display name only; file_path never changes.
func (r *PostgresRepository) UpdateName(ctx context.Context, ownerID, id string, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE files SET file_name=$3 WHERE id=$1 AND user_id=$2`, id, ownerID, name)
	if err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

// Delete removes one record of ownerID. A missing row yields common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

// DeleteTrashed removes all trashed records of ownerID.
func (r *PostgresRepository) DeleteTrashed(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE user_id=$1 AND is_trashed`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to empty trash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
