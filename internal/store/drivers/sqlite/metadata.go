package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
)

type metadataRepo struct {
	db  dbtx
	now func() time.Time
}

const getMetadata = `SELECT contact_email FROM app_metadata WHERE app_id = ?`

func (r *metadataRepo) GetMetadata(ctx context.Context, appID uint64) (domain.Metadata, error) {
	var m domain.Metadata
	if err := r.db.QueryRowContext(ctx, getMetadata, appID).Scan(&m.ContactEmail); err != nil {
		return domain.Metadata{}, mapNotFound(err)
	}
	return m, nil
}

const putMetadata = `
INSERT INTO app_metadata (app_id, contact_email, updated_at) VALUES (?, ?, ?)
ON CONFLICT (app_id) DO UPDATE SET
    contact_email = excluded.contact_email,
    updated_at = excluded.updated_at`

func (r *metadataRepo) PutMetadata(ctx context.Context, appID uint64, m domain.Metadata) error {
	_, err := r.db.ExecContext(ctx, putMetadata, appID, m.ContactEmail, r.now().UnixMilli())
	return err
}
