package pipeline

import "github.com/veritomyx/peakinvestigator-go/pkg/job"

// SubmitRequest is the pipeline input: one local scan archive plus the
// submission choices made up front.
type SubmitRequest struct {
	ArchivePath string
	ProjectID   int
	PIVersion   string
	Tier        string
	MinMass     int
	MaxMass     int
	MaxPoints   int

	// ResumeJobID selects the pickup path instead of creating a new job.
	ResumeJobID string
}

// SubmitResponse is the pipeline output, accumulated across transitions.
type SubmitResponse struct {
	// From CheckRecord/Init
	RecordID int64
	JobID    string
	Funds    float64

	// From Init (local archive inspection)
	ScansLocal int

	// From Upload
	RemoteFile string

	// From Prep
	ScansReported int
	MSType        string

	// The job value threaded through the protocol engine.
	Job job.Job

	Status       string
	ErrorMessage string
}

// State names
const (
	StateCheckRecord = "check_record"
	StateInit        = "init"
	StateUpload      = "upload"
	StatePrep        = "prep"
	StateRun         = "run"
	StateComplete    = "complete"
	StateFailed      = "failed"
)
