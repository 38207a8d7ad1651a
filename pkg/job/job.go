// Package job owns one submission's lifecycle: an explicit Job value
// threaded through every orchestrator operation, updated and returned
// instead of mutated through shared state, so each transition is
// auditable in isolation.
package job

import (
	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
	"github.com/veritomyx/peakinvestigator-go/pkg/transport"
)

// State is a job's position in the submission lifecycle.
type State string

const (
	StateUnstarted   State = "unstarted"
	StateInitialized State = "initialized"
	StateSftpReady   State = "sftp_ready"
	StatePrepped     State = "prepped"
	StateRunning     State = "running"
	StateDone        State = "done"
	StateDeleted     State = "deleted"
	StateFailed      State = "failed"
)

// Job is the mutable per-submission record. ID is empty until the server
// assigns one (or the caller resumes an existing job); a failed
// initialization clears it again, so a non-empty ID always names a job
// the server acknowledged.
type Job struct {
	ID        string
	ProjectID int

	Funds float64
	Costs map[string]actions.ResponseTimeCosts

	Tier      string
	PIVersion string

	ScanCount int
	MinMass   int
	MaxMass   int

	// RemoteFile is the uploaded archive's name in the batches directory.
	RemoteFile string

	// Sftp holds the transfer credentials from the SFTP action. They are
	// only ever used to open one session per bulk operation.
	Sftp transport.Session

	// Completion fields, populated when a STATUS poll reports Done.
	ScansInput    int
	ScansComplete int
	ActualCost    float64
	ResultsFile   string
	LogFile       string

	State     State
	LastError string
}

// New returns an empty job ready for Init.
func New() Job {
	return Job{State: StateUnstarted}
}
