package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is the Remo cloud access token of a profile.
type Account struct {
	ProfileID int64
	Token     string
	Nickname  string
	UpdatedAt time.Time
}

// AccountStore reads and writes access tokens.
type AccountStore interface {
	Get(ctx context.Context, profileID int64) (*Account, error)
	Save(ctx context.Context, a *Account) error
	Delete(ctx context.Context, profileID int64) error
}

// Accounts returns an AccountStore for this database.
func (db *DB) Accounts() AccountStore {
	return &accountStore{db: db}
}

type accountStore struct {
	db *DB
}

func (s *accountStore) Get(ctx context.Context, profileID int64) (*Account, error) {
	a := &Account{ProfileID: profileID}
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT token, nickname, updated_at FROM accounts WHERE profile_id = ?
	`, profileID).Scan(&a.Token, &a.Nickname, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	a.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return a, nil
}

// Save inserts or replaces the token of a.ProfileID.
func (s *accountStore) Save(ctx context.Context, a *Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (profile_id, token, nickname) VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE
		SET token = excluded.token, nickname = excluded.nickname, updated_at = datetime('now')
	`, a.ProfileID, a.Token, a.Nickname)
	return err
}

func (s *accountStore) Delete(ctx context.Context, profileID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE profile_id = ?`, profileID)
	if err != nil {
		return err
	}
	return expectOneRow(result, ErrAccountNotFound)
}
