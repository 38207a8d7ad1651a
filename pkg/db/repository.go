// Package db stores job records in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	_ "modernc.org/sqlite"
)

// Repository provides database operations for job records.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (and if needed creates) the job database.
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("database_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("database_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to open database")
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("database_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to create schema")
	}

	slog.Info("database_ready", "db_path", dbPath)
	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

const recordColumns = `id, job_id, project_id, status, tier, pi_version, scan_count,
       remote_file, funds, actual_cost, results_file, log_file, error_message,
       created_at, updated_at`

func scanRecord(row interface{ Scan(dest ...any) error }) (*Record, error) {
	var rec Record
	var tier, piVersion, remoteFile, resultsFile, logFile, errorMessage sql.NullString

	err := row.Scan(
		&rec.ID, &rec.JobID, &rec.ProjectID, &rec.Status, &tier, &piVersion,
		&rec.ScanCount, &remoteFile, &rec.Funds, &rec.ActualCost,
		&resultsFile, &logFile, &errorMessage, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Tier = tier.String
	rec.PIVersion = piVersion.String
	rec.RemoteFile = remoteFile.String
	rec.ResultsFile = resultsFile.String
	rec.LogFile = logFile.String
	rec.ErrorMessage = errorMessage.String
	return &rec, nil
}

// Create inserts a new job record.
func (r *Repository) Create(rec *Record) error {
	slog.Info("database_create_job", "job_id", rec.JobID, "status", rec.Status)

	query := `
		INSERT INTO jobs (job_id, project_id, status, tier, pi_version, scan_count,
		                  remote_file, funds, actual_cost, results_file, log_file, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		rec.JobID, rec.ProjectID, rec.Status, rec.Tier, rec.PIVersion, rec.ScanCount,
		rec.RemoteFile, rec.Funds, rec.ActualCost, rec.ResultsFile, rec.LogFile, rec.ErrorMessage)
	if err != nil {
		slog.Error("database_insert_failed", "job_id", rec.JobID, "error", err)
		return errors.Wrap(err, "failed to insert job")
	}

	id, err := result.LastInsertId()
	if err != nil {
		slog.Error("database_last_insert_id_failed", "job_id", rec.JobID, "error", err)
		return errors.Wrap(err, "failed to get last insert id")
	}
	rec.ID = id

	slog.Info("database_job_created", "job_id", rec.JobID, "record_id", rec.ID)
	return nil
}

// GetByJobID retrieves a job record by its server-assigned id. Returns
// nil without error when no record exists.
func (r *Repository) GetByJobID(jobID string) (*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE job_id = ?`, recordColumns)

	rec, err := scanRecord(r.db.QueryRow(query, jobID))
	if err == sql.ErrNoRows {
		slog.Info("database_job_not_found", "job_id", jobID)
		return nil, nil
	}
	if err != nil {
		slog.Error("database_query_failed", "job_id", jobID, "error", err)
		return nil, errors.Wrap(err, "failed to query job")
	}

	return rec, nil
}

// Update updates an existing job record.
func (r *Repository) Update(rec *Record) error {
	slog.Info("database_update_job", "record_id", rec.ID, "job_id", rec.JobID, "status", rec.Status)

	query := `
		UPDATE jobs
		SET job_id = ?, status = ?, tier = ?, pi_version = ?, scan_count = ?, remote_file = ?,
		    funds = ?, actual_cost = ?, results_file = ?, log_file = ?, error_message = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		rec.JobID, rec.Status, rec.Tier, rec.PIVersion, rec.ScanCount, rec.RemoteFile,
		rec.Funds, rec.ActualCost, rec.ResultsFile, rec.LogFile, rec.ErrorMessage, rec.ID)
	if err != nil {
		slog.Error("database_update_failed", "record_id", rec.ID, "error", err)
		return errors.Wrap(err, "failed to update job")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		slog.Error("database_job_not_found_for_update", "record_id", rec.ID)
		return fmt.Errorf("job not found: id=%d", rec.ID)
	}

	return nil
}

// UpdateStatus updates only the status and error message.
func (r *Repository) UpdateStatus(id int64, status, errorMessage string) error {
	slog.Info("database_update_status", "record_id", id, "status", status)

	query := `UPDATE jobs SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(query, status, errorMessage, id); err != nil {
		slog.Error("database_status_update_failed", "record_id", id, "status", status, "error", err)
		return errors.Wrap(err, "failed to update status")
	}

	return nil
}

// List retrieves all job records, newest first.
func (r *Repository) List() ([]*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs ORDER BY created_at DESC`, recordColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		slog.Error("database_list_query_failed", "error", err)
		return nil, errors.Wrap(err, "failed to list jobs")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			slog.Error("database_scan_row_failed", "error", err)
			return nil, errors.Wrap(err, "failed to scan row")
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}

	slog.Info("database_list_complete", "job_count", len(records))
	return records, nil
}

// Delete deletes a job record by primary key.
func (r *Repository) Delete(id int64) error {
	slog.Info("database_delete_job", "record_id", id)

	if _, err := r.db.Exec(`DELETE FROM jobs WHERE id = ?`, id); err != nil {
		slog.Error("database_delete_failed", "record_id", id, "error", err)
		return errors.Wrap(err, "failed to delete job")
	}

	return nil
}
