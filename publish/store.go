package publish

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/platform"
)

// Store persists terminal job snapshots and pending scheduled jobs.
// Active jobs live in memory inside the orchestrator; the store becomes the
// sole owner of a job's history once it reaches a terminal status.
type Store struct {
	db *sql.DB
}

// NewStore creates a new publish store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveSnapshot inserts or replaces a terminal job snapshot
func (s *Store) SaveSnapshot(job *Job) error {
	platforms, err := json.Marshal(job.Platforms)
	if err != nil {
		return errors.Wrap(err, "failed to marshal platforms")
	}
	results, err := json.Marshal(job.Results)
	if err != nil {
		return errors.Wrap(err, "failed to marshal platform results")
	}
	tags, err := json.Marshal(job.Tags)
	if err != nil {
		return errors.Wrap(err, "failed to marshal tags")
	}

	query := `
		INSERT OR REPLACE INTO publish_jobs (
			id, owner_id, media_ref, title, description, tags,
			platforms, status, progress, platform_results, error,
			scheduled_at, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		job.ID,
		job.OwnerID,
		job.MediaRef,
		job.Title,
		job.Description,
		string(tags),
		string(platforms),
		job.Status,
		job.Progress,
		string(results),
		job.Error,
		job.ScheduledAt,
		job.CreatedAt,
		job.CompletedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to save job snapshot %s", job.ID)
	}

	return nil
}

// LoadSnapshot retrieves a job snapshot by id.
// Returns nil when the job is absent - this is not an error.
func (s *Store) LoadSnapshot(id string) (*Job, error) {
	query := `
		SELECT id, owner_id, media_ref, title, description, tags,
		       platforms, status, progress, platform_results, error,
		       scheduled_at, created_at, completed_at
		FROM publish_jobs
		WHERE id = ?
	`

	job, err := scanJob(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load job snapshot %s", id)
	}

	return job, nil
}

// ListSnapshots returns snapshots, optionally filtered by status, newest first
func (s *Store) ListSnapshots(status *Status, limit int) ([]*Job, error) {
	baseQuery := `
		SELECT id, owner_id, media_ref, title, description, tags,
		       platforms, status, progress, platform_results, error,
		       scheduled_at, created_at, completed_at
		FROM publish_jobs
	`

	var rows *sql.Rows
	var err error
	if status != nil {
		rows, err = s.db.Query(baseQuery+` WHERE status = ? ORDER BY created_at DESC LIMIT ?`, *status, limit)
	} else {
		rows, err = s.db.Query(baseQuery+` ORDER BY created_at DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to list job snapshots")
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan job snapshot")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating job snapshots")
	}

	return jobs, nil
}

// Stats holds per-status job counts
type Stats struct {
	Completed int `json:"completed"`
	Partial   int `json:"partial"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

// GetStats returns counts of stored terminal snapshots by status
func (s *Store) GetStats() (*Stats, error) {
	query := `SELECT status, COUNT(*) FROM publish_jobs GROUP BY status`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query job stats")
	}
	defer rows.Close()

	stats := &Stats{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan job stats")
		}
		switch status {
		case StatusCompleted:
			stats.Completed = count
		case StatusPartial:
			stats.Partial = count
		case StatusFailed:
			stats.Failed = count
		case StatusCancelled:
			stats.Cancelled = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating job stats")
	}

	return stats, nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var tags, platforms, results string
	var description, jobErr sql.NullString
	var scheduledAt, completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.MediaRef,
		&job.Title,
		&description,
		&tags,
		&platforms,
		&job.Status,
		&job.Progress,
		&results,
		&jobErr,
		&scheduledAt,
		&job.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Description = description.String
	job.Error = jobErr.String
	if scheduledAt.Valid {
		at := scheduledAt.Time
		job.ScheduledAt = &at
	}
	if completedAt.Valid {
		at := completedAt.Time
		job.CompletedAt = &at
	}

	if err := json.Unmarshal([]byte(tags), &job.Tags); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal tags")
	}
	if err := json.Unmarshal([]byte(platforms), &job.Platforms); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal platforms")
	}
	if err := json.Unmarshal([]byte(results), &job.Results); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal platform results")
	}

	return &job, nil
}

// ScheduledJob is a deferred publish request waiting on its optimal slot
type ScheduledJob struct {
	ID              string              `json:"id"`
	OwnerID         string              `json:"owner_id"`
	MediaRef        string              `json:"media_ref"`
	Title           string              `json:"title"`
	Description     string              `json:"description,omitempty"`
	Tags            []string            `json:"tags,omitempty"`
	Platforms       []platform.Platform `json:"platforms"`
	RunAt           time.Time           `json:"run_at"`
	EngagementScore float64             `json:"engagement_score"`
	CreatedAt       time.Time           `json:"created_at"`
}

// CreateScheduled inserts a pending scheduled job
func (s *Store) CreateScheduled(sj *ScheduledJob) error {
	platforms, err := json.Marshal(sj.Platforms)
	if err != nil {
		return errors.Wrap(err, "failed to marshal platforms")
	}
	tags, err := json.Marshal(sj.Tags)
	if err != nil {
		return errors.Wrap(err, "failed to marshal tags")
	}

	query := `
		INSERT INTO scheduled_jobs (
			id, owner_id, media_ref, title, description, tags,
			platforms, run_at, engagement_score, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		sj.ID,
		sj.OwnerID,
		sj.MediaRef,
		sj.Title,
		sj.Description,
		string(tags),
		string(platforms),
		sj.RunAt,
		sj.EngagementScore,
		sj.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create scheduled job %s", sj.ID)
	}

	return nil
}

// GetScheduled retrieves a pending scheduled job by id.
// Returns nil when absent.
func (s *Store) GetScheduled(id string) (*ScheduledJob, error) {
	query := `
		SELECT id, owner_id, media_ref, title, description, tags,
		       platforms, run_at, engagement_score, created_at
		FROM scheduled_jobs
		WHERE id = ?
	`

	sj, err := scanScheduled(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get scheduled job %s", id)
	}

	return sj, nil
}

// ListDue returns scheduled jobs whose run time has passed, oldest first
func (s *Store) ListDue(now time.Time) ([]*ScheduledJob, error) {
	query := `
		SELECT id, owner_id, media_ref, title, description, tags,
		       platforms, run_at, engagement_score, created_at
		FROM scheduled_jobs
		WHERE run_at <= ?
		ORDER BY run_at ASC
	`

	rows, err := s.db.Query(query, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list due scheduled jobs")
	}
	defer rows.Close()

	var jobs []*ScheduledJob
	for rows.Next() {
		sj, err := scanScheduled(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan scheduled job")
		}
		jobs = append(jobs, sj)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating scheduled jobs")
	}

	return jobs, nil
}

// DeleteScheduled removes a pending scheduled job.
// Returns false when no row existed.
func (s *Store) DeleteScheduled(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM scheduled_jobs WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete scheduled job %s", id)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}

	return rows > 0, nil
}

func scanScheduled(row rowScanner) (*ScheduledJob, error) {
	var sj ScheduledJob
	var tags, platforms string
	var description sql.NullString

	err := row.Scan(
		&sj.ID,
		&sj.OwnerID,
		&sj.MediaRef,
		&sj.Title,
		&description,
		&tags,
		&platforms,
		&sj.RunAt,
		&sj.EngagementScore,
		&sj.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	sj.Description = description.String
	if err := json.Unmarshal([]byte(tags), &sj.Tags); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal tags")
	}
	if err := json.Unmarshal([]byte(platforms), &sj.Platforms); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal platforms")
	}

	return &sj, nil
}
