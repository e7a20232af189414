package quota

import (
	"database/sql"
	"time"

	"github.com/crosscast/crosscast/errors"
)

// Store handles persistence of quota records
type Store struct {
	db *sql.DB
}

// NewStore creates a new quota store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get retrieves the record for a (channel, provider) pair.
// Returns nil when no record has been configured - this is not an error.
func (s *Store) Get(channelID, providerID string) (*Record, error) {
	query := `
		SELECT channel_id, provider_id, monthly_limit, current_usage, reset_at, is_active, updated_at
		FROM quota_records
		WHERE channel_id = ? AND provider_id = ?
	`

	var rec Record
	err := s.db.QueryRow(query, channelID, providerID).Scan(
		&rec.ChannelID,
		&rec.ProviderID,
		&rec.MonthlyLimit,
		&rec.CurrentUsage,
		&rec.ResetAt,
		&rec.Active,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get quota record")
	}

	return &rec, nil
}

// Upsert creates or replaces the record for a (channel, provider) pair
func (s *Store) Upsert(rec *Record) error {
	query := `
		INSERT INTO quota_records (channel_id, provider_id, monthly_limit, current_usage, reset_at, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, provider_id) DO UPDATE SET
			monthly_limit = excluded.monthly_limit,
			current_usage = excluded.current_usage,
			reset_at = excluded.reset_at,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query,
		rec.ChannelID,
		rec.ProviderID,
		rec.MonthlyLimit,
		rec.CurrentUsage,
		rec.ResetAt,
		rec.Active,
		rec.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert quota record")
	}

	return nil
}

// AddUsage atomically adds count to a record's usage in a single UPDATE.
// Returns false when no record exists for the pair.
func (s *Store) AddUsage(channelID, providerID string, count int, now time.Time) (bool, error) {
	query := `
		UPDATE quota_records
		SET current_usage = current_usage + ?, updated_at = ?
		WHERE channel_id = ? AND provider_id = ?
	`

	result, err := s.db.Exec(query, count, now, channelID, providerID)
	if err != nil {
		return false, errors.Wrap(err, "failed to increment quota usage")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}

	return rows > 0, nil
}

// ResetUsage zeroes usage and advances the reset timestamp
func (s *Store) ResetUsage(channelID, providerID string, resetAt, now time.Time) error {
	query := `
		UPDATE quota_records
		SET current_usage = 0, reset_at = ?, updated_at = ?
		WHERE channel_id = ? AND provider_id = ?
	`

	if _, err := s.db.Exec(query, resetAt, now, channelID, providerID); err != nil {
		return errors.Wrap(err, "failed to reset quota usage")
	}

	return nil
}

// ListByChannel returns all quota records configured for a channel
func (s *Store) ListByChannel(channelID string) ([]*Record, error) {
	query := `
		SELECT channel_id, provider_id, monthly_limit, current_usage, reset_at, is_active, updated_at
		FROM quota_records
		WHERE channel_id = ?
		ORDER BY provider_id ASC
	`

	rows, err := s.db.Query(query, channelID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list quota records")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ChannelID,
			&rec.ProviderID,
			&rec.MonthlyLimit,
			&rec.CurrentUsage,
			&rec.ResetAt,
			&rec.Active,
			&rec.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan quota record")
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating quota records")
	}

	return records, nil
}
