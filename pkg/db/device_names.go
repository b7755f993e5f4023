package db

import (
	"context"
)

// NameStore keeps display names chosen locally, overriding the nicknames
// set in the Remo app.
type NameStore interface {
	List(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, deviceID, name string) error
}

// DeviceNames returns the NameStore of a profile.
func (db *DB) DeviceNames(profileID int64) NameStore {
	return &nameStore{db: db, profileID: profileID}
}

type nameStore struct {
	db        *DB
	profileID int64
}

func (s *nameStore) List(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, name FROM device_names WHERE profile_id = ?
	`, s.profileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// Set stores name for deviceID; an empty name removes the override.
func (s *nameStore) Set(ctx context.Context, deviceID, name string) error {
	if name == "" {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM device_names WHERE profile_id = ? AND device_id = ?
		`, s.profileID, deviceID)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_names (profile_id, device_id, name) VALUES (?, ?, ?)
		ON CONFLICT(profile_id, device_id) DO UPDATE SET name = excluded.name
	`, s.profileID, deviceID, name)
	return err
}
