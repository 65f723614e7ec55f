package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// RecordDeployment appends a deployment outcome to the history
func (s *Store) RecordDeployment(ctx context.Context, rec models.DeploymentRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	var details sql.NullString
	if len(rec.Details) > 0 {
		details = sql.NullString{String: string(rec.Details), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deployments (repository, file_path, action, tenant, state, message, details, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Repository, rec.FilePath, string(rec.Action), rec.Tenant, string(rec.State),
		rec.Message, details, rec.Error, formatTime(rec.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to record deployment: %w", err)
	}

	return res.LastInsertId()
}

// RecentDeployments returns up to limit deployments, newest first
func (s *Store) RecentDeployments(ctx context.Context, limit int) ([]models.DeploymentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repository, file_path, action, tenant, state, message, details, error, created_at
		 FROM deployments ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}
	defer rows.Close()

	records := []models.DeploymentRecord{}
	for rows.Next() {
		var rec models.DeploymentRecord
		var action, state, createdAt string
		var details sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Repository, &rec.FilePath, &action, &rec.Tenant,
			&state, &rec.Message, &details, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}

		rec.Action = models.ActionKind(action)
		rec.State = models.ActionState(state)
		rec.CreatedAt = parseTime(createdAt)
		if details.Valid && json.Valid([]byte(details.String)) {
			rec.Details = json.RawMessage(details.String)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deployments: %w", err)
	}

	return records, nil
}

// SetTenant remembers which tenant a definition file deployed
func (s *Store) SetTenant(ctx context.Context, repository, filePath, tenant string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (repository, file_path, tenant, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (repository, file_path) DO UPDATE SET tenant = excluded.tenant, updated_at = excluded.updated_at`,
		repository, filePath, tenant, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to index tenant: %w", err)
	}
	return nil
}

// LookupTenant returns the tenant last deployed from a definition file
func (s *Store) LookupTenant(ctx context.Context, repository, filePath string) (string, bool, error) {
	var tenant string
	err := s.db.QueryRowContext(ctx,
		`SELECT tenant FROM tenants WHERE repository = ? AND file_path = ?`, repository, filePath).Scan(&tenant)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up tenant: %w", err)
	}
	return tenant, true, nil
}

// ForgetTenant drops the index entry for a definition file
func (s *Store) ForgetTenant(ctx context.Context, repository, filePath string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM tenants WHERE repository = ? AND file_path = ?`, repository, filePath); err != nil {
		return fmt.Errorf("failed to remove tenant index entry: %w", err)
	}
	return nil
}
