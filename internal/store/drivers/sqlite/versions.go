package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/internal/store"
)

type versionsRepo struct {
	db dbtx
}

const createVersion = `
INSERT INTO app_versions (app_id, version, enabled, tools_json) VALUES (?, ?, ?, ?)`

func (r *versionsRepo) CreateVersion(ctx context.Context, appID uint64, v domain.VersionRecord) error {
	tools := v.Tools
	if tools == nil {
		tools = []domain.Tool{}
	}
	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, createVersion, appID, v.Version, boolToInt(v.Enabled), string(toolsJSON))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	for _, id := range v.DelegatedAgentPKPs {
		if err := r.AddAgent(ctx, appID, v.Version, id); err != nil {
			return err
		}
	}
	return nil
}

const getVersion = `
SELECT version, enabled, tools_json FROM app_versions WHERE app_id = ? AND version = ?`

func (r *versionsRepo) GetVersion(ctx context.Context, appID, version uint64) (domain.VersionRecord, error) {
	row := r.db.QueryRowContext(ctx, getVersion, appID, version)
	v, err := scanVersion(row.Scan)
	if err != nil {
		return domain.VersionRecord{}, mapNotFound(err)
	}

	if v.DelegatedAgentPKPs, err = r.agents(ctx, appID, version); err != nil {
		return domain.VersionRecord{}, err
	}
	return v, nil
}

const listVersions = `
SELECT version, enabled, tools_json FROM app_versions WHERE app_id = ? ORDER BY version`

func (r *versionsRepo) ListVersions(ctx context.Context, appID uint64) ([]domain.VersionRecord, error) {
	rows, err := r.db.QueryContext(ctx, listVersions, appID)
	if err != nil {
		return nil, err
	}

	out := []domain.VersionRecord{}
	for rows.Next() {
		v, err := scanVersion(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, v)
	}
	// Close before issuing more queries; a single-connection pool would
	// otherwise block on the open cursor.
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].DelegatedAgentPKPs, err = r.agents(ctx, appID, out[i].Version); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanVersion(scan func(dest ...any) error) (domain.VersionRecord, error) {
	var (
		v         domain.VersionRecord
		enabled   int
		toolsJSON string
	)
	if err := scan(&v.Version, &enabled, &toolsJSON); err != nil {
		return domain.VersionRecord{}, err
	}
	v.Enabled = enabled != 0
	if err := json.Unmarshal([]byte(toolsJSON), &v.Tools); err != nil {
		return domain.VersionRecord{}, fmt.Errorf("decode tools of version %d: %w", v.Version, err)
	}
	return v, nil
}

const setEnabled = `UPDATE app_versions SET enabled = ? WHERE app_id = ? AND version = ?`

func (r *versionsRepo) SetEnabled(ctx context.Context, appID, version uint64, enabled bool) error {
	return expectOne(r.db.ExecContext(ctx, setEnabled, boolToInt(enabled), appID, version))
}

const addAgent = `
INSERT INTO app_version_agents (app_id, version, token_id, position)
SELECT ?, ?, ?, COALESCE(MAX(position), -1) + 1
FROM app_version_agents WHERE app_id = ? AND version = ?
ON CONFLICT (app_id, version, token_id) DO NOTHING`

func (r *versionsRepo) AddAgent(ctx context.Context, appID, version uint64, tokenID *big.Int) error {
	if tokenID == nil || tokenID.Sign() < 0 {
		return fmt.Errorf("invalid agent token id %v", tokenID)
	}
	_, err := r.db.ExecContext(ctx, addAgent, appID, version, tokenID.String(), appID, version)
	return err
}

const listAgents = `
SELECT token_id FROM app_version_agents WHERE app_id = ? AND version = ? ORDER BY position`

func (r *versionsRepo) agents(ctx context.Context, appID, version uint64) ([]*big.Int, error) {
	ids, err := queryStrings(ctx, r.db, listAgents, appID, version)
	if err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(ids))
	for i, s := range ids {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("corrupt agent token id %q", s)
		}
		out[i] = n
	}
	return out, nil
}
