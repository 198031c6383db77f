package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/skydrive/internal/common"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestWithTx(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(m sqlmock.Sqlmock)
		fn      func(ctx context.Context, tx DBTX) error
		wantErr error
	}{
		{
			name: "commit on success",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(`INSERT INTO upload_fingerprints`).WillReturnResult(sqlmock.NewResult(1, 1))
				m.ExpectCommit()
			},
			fn: func(ctx context.Context, tx DBTX) error {
				_, err := tx.ExecContext(ctx, `INSERT INTO upload_fingerprints (fingerprint) VALUES (?)`, "fp")
				return err
			},
		},
		{
			name: "rollback when fn fails",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(`DELETE FROM upload_fingerprints`).WillReturnError(boom)
				m.ExpectRollback()
			},
			fn: func(ctx context.Context, tx DBTX) error {
				_, err := tx.ExecContext(ctx, `DELETE FROM upload_fingerprints WHERE fingerprint = ?`, "fp")
				return err
			},
			wantErr: boom,
		},
		{
			name: "begin failure",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin().WillReturnError(boom)
			},
			fn: func(ctx context.Context, tx DBTX) error {
				t.Fatal("fn must not run")
				return nil
			},
			wantErr: boom,
		},
		{
			name: "commit failure is returned",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectCommit().WillReturnError(boom)
			},
			fn:      func(ctx context.Context, tx DBTX) error { return nil },
			wantErr: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			tt.setup(mock)

			err := WithTx(context.Background(), db, nil, tt.fn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			panic("kaput")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpectOneRow(t *testing.T) {
	require.NoError(t, ExpectOneRow(sqlmock.NewResult(0, 1)))
	require.ErrorIs(t, ExpectOneRow(sqlmock.NewResult(0, 0)), common.ErrorNotFound)
	require.ErrorContains(t, ExpectOneRow(sqlmock.NewResult(0, 3)), "unexpected rows affected: 3")
	require.ErrorContains(t, ExpectOneRow(sqlmock.NewErrorResult(errors.New("rows-err"))), "rows-err")
}
