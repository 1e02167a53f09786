package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/store"
)

type appsRepo struct {
	db  dbtx
	now func() time.Time
}

const createApp = `
INSERT INTO apps (name, description, manager, latest_version, created_at)
VALUES (?, ?, ?, ?, ?)`

const insertRedirectURI = `
INSERT INTO app_redirect_uris (app_id, position, uri) VALUES (?, ?, ?)`

const insertDelegatee = `
INSERT INTO app_delegatees (app_id, address, added_at) VALUES (?, ?, ?)`

func (r *appsRepo) CreateApp(ctx context.Context, app domain.AppRecord) (uint64, error) {
	res, err := r.db.ExecContext(ctx, createApp,
		app.Name, app.Description, string(app.Manager), app.LatestVersion, r.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, uri := range app.RedirectURIs {
		if _, err := r.db.ExecContext(ctx, insertRedirectURI, id, i, uri); err != nil {
			return 0, err
		}
	}
	for _, d := range app.Delegatees {
		if err := r.AddDelegatee(ctx, uint64(id), d); err != nil {
			return 0, err
		}
	}
	return uint64(id), nil
}

const getApp = `
SELECT id, name, description, manager, latest_version FROM apps WHERE id = ?`

const listRedirectURIs = `
SELECT uri FROM app_redirect_uris WHERE app_id = ? ORDER BY position`

const listDelegatees = `
SELECT address FROM app_delegatees WHERE app_id = ? ORDER BY added_at, address`

func (r *appsRepo) GetApp(ctx context.Context, id uint64) (domain.AppRecord, error) {
	var (
		app     domain.AppRecord
		manager string
	)
	err := r.db.QueryRowContext(ctx, getApp, id).
		Scan(&app.AppID, &app.Name, &app.Description, &manager, &app.LatestVersion)
	if err != nil {
		return domain.AppRecord{}, mapNotFound(err)
	}
	app.Manager = domain.Address(manager)

	uris, err := queryStrings(ctx, r.db, listRedirectURIs, id)
	if err != nil {
		return domain.AppRecord{}, err
	}
	app.RedirectURIs = uris

	addrs, err := queryStrings(ctx, r.db, listDelegatees, id)
	if err != nil {
		return domain.AppRecord{}, err
	}
	app.Delegatees = make([]domain.Address, len(addrs))
	for i, a := range addrs {
		app.Delegatees[i] = domain.Address(a)
	}
	return app, nil
}

const listAppIDsByManager = `SELECT id FROM apps WHERE manager = ? ORDER BY id`

func (r *appsRepo) ListAppIDsByManager(ctx context.Context, manager domain.Address) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, listAppIDsByManager, string(manager))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const setLatestVersion = `UPDATE apps SET latest_version = ? WHERE id = ?`

func (r *appsRepo) SetLatestVersion(ctx context.Context, id, version uint64) error {
	return expectOne(r.db.ExecContext(ctx, setLatestVersion, version, id))
}

func (r *appsRepo) AddDelegatee(ctx context.Context, id uint64, addr domain.Address) error {
	_, err := r.db.ExecContext(ctx, insertDelegatee, id, string(addr), r.now().UnixMilli())
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

const deleteDelegatee = `DELETE FROM app_delegatees WHERE app_id = ? AND address = ?`

func (r *appsRepo) RemoveDelegatee(ctx context.Context, id uint64, addr domain.Address) error {
	return expectOne(r.db.ExecContext(ctx, deleteDelegatee, id, string(addr)))
}
