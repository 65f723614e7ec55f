package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

const (
	keyGHEAddress = "ghe_ip_address"
	keyGHEToken   = "ghe_access_token"
	keyDebug      = "debug"
)

// Settings returns the stored settings. ok is false when nothing has been
// stored yet.
func (s *Store) Settings(ctx context.Context) (settings models.Settings, ok bool, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return settings, false, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, false, fmt.Errorf("failed to scan setting: %w", err)
		}

		ok = true
		switch key {
		case keyGHEAddress:
			settings.GHEAddress = value
		case keyGHEToken:
			settings.GHEAccessToken = value
		case keyDebug:
			settings.Debug, _ = strconv.ParseBool(value)
		}
	}

	if err := rows.Err(); err != nil {
		return settings, false, fmt.Errorf("failed to read settings: %w", err)
	}

	return settings, ok, nil
}

// SaveSettings replaces the stored settings
func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	values := map[string]string{
		keyGHEAddress: settings.GHEAddress,
		keyGHEToken:   settings.GHEAccessToken,
		keyDebug:      formatBool(settings.Debug),
	}

	for key, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// SeedSettings stores defaults unless settings already exist, and returns
// whatever is stored afterwards
func (s *Store) SeedSettings(ctx context.Context, defaults models.Settings) (models.Settings, error) {
	current, ok, err := s.Settings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if ok {
		return current, nil
	}

	if err := s.SaveSettings(ctx, defaults); err != nil {
		return models.Settings{}, err
	}
	return defaults, nil
}

// SavePushState records the last accepted push
func (s *Store) SavePushState(ctx context.Context, state models.PushState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pushes (id, repository, repository_name, head_commit_id, before_commit_id, received_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			repository = excluded.repository,
			repository_name = excluded.repository_name,
			head_commit_id = excluded.head_commit_id,
			before_commit_id = excluded.before_commit_id,
			received_at = excluded.received_at`,
		state.Repository, state.RepositoryName, state.HeadCommitID, state.Before, formatTime(state.ReceivedAt))
	if err != nil {
		return fmt.Errorf("failed to save push state: %w", err)
	}
	return nil
}

// LastPush returns the last accepted push, or nil if there has been none
func (s *Store) LastPush(ctx context.Context) (*models.PushState, error) {
	var state models.PushState
	var receivedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT repository, repository_name, head_commit_id, before_commit_id, received_at FROM pushes WHERE id = 1`).
		Scan(&state.Repository, &state.RepositoryName, &state.HeadCommitID, &state.Before, &receivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load push state: %w", err)
	}

	state.ReceivedAt = parseTime(receivedAt)
	return &state, nil
}
