package db

// Schema defines the SQLite schema for submitted jobs. One row tracks one
// remote job across CLI invocations so it can be listed, resumed, and
// cleaned up later.
const Schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL UNIQUE,
    project_id INTEGER NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('initialized', 'sftp_ready', 'prepped', 'running', 'done', 'deleted', 'failed')),
    tier TEXT,
    pi_version TEXT,
    scan_count INTEGER NOT NULL DEFAULT 0,
    remote_file TEXT,
    funds REAL NOT NULL DEFAULT 0,
    actual_cost REAL NOT NULL DEFAULT 0,
    results_file TEXT,
    log_file TEXT,
    error_message TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_jobs_job_id ON jobs(job_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

// Record is one tracked job.
type Record struct {
	ID           int64
	JobID        string
	ProjectID    int
	Status       string
	Tier         string
	PIVersion    string
	ScanCount    int
	RemoteFile   string
	Funds        float64
	ActualCost   float64
	ResultsFile  string
	LogFile      string
	ErrorMessage string
	CreatedAt    string
	UpdatedAt    string
}
