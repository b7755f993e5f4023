package db

import (
	"context"
	"database/sql"
	"errors"
)

var ErrClimateStateNotFound = errors.New("climate state not found")

// ClimateStateStore keeps the per-mode memory of each air conditioner as an
// opaque JSON document.
type ClimateStateStore interface {
	Get(ctx context.Context, applianceID string) ([]byte, error)
	Save(ctx context.Context, applianceID string, data []byte) error
	Delete(ctx context.Context, applianceID string) error
}

// ClimateStates returns the ClimateStateStore of a profile.
func (db *DB) ClimateStates(profileID int64) ClimateStateStore {
	return &climateStateStore{db: db, profileID: profileID}
}

type climateStateStore struct {
	db        *DB
	profileID int64
}

func (s *climateStateStore) Get(ctx context.Context, applianceID string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM climate_states WHERE profile_id = ? AND appliance_id = ?
	`, s.profileID, applianceID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrClimateStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *climateStateStore) Save(ctx context.Context, applianceID string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO climate_states (profile_id, appliance_id, data) VALUES (?, ?, ?)
		ON CONFLICT(profile_id, appliance_id) DO UPDATE
		SET data = excluded.data, updated_at = datetime('now')
	`, s.profileID, applianceID, string(data))
	return err
}

func (s *climateStateStore) Delete(ctx context.Context, applianceID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM climate_states WHERE profile_id = ? AND appliance_id = ?
	`, s.profileID, applianceID)
	if err != nil {
		return err
	}
	return expectOneRow(result, ErrClimateStateNotFound)
}
