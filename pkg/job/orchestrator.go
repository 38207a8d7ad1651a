package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
	"github.com/veritomyx/peakinvestigator-go/pkg/transport"
)

// HTTPDoer posts one action and returns the raw reply body.
type HTTPDoer interface {
	Do(ctx context.Context, req actions.Request, creds actions.Credentials) ([]byte, error)
}

// BulkTransport is the SFTP side of the engine. Operations report
// outcomes instead of raising.
type BulkTransport interface {
	Bootstrap(sess transport.Session, accountID int) transport.TransferOutcome
	Put(sess transport.Session, accountID int, localPath, remoteName string) transport.TransferOutcome
	Get(sess transport.Session, accountID int, remoteName, localDir string) transport.TransferOutcome
}

// ConfirmScanCountFunc decides whether to proceed when PREP reports a
// scan count that disagrees with the locally determined one. The default
// declines; interactive callers install their own.
type ConfirmScanCountFunc func(reported, local int) bool

// ErrScanCountRejected is returned by Prep when the server's scan count
// disagreed with the local one and the confirmation callback declined.
// The job is left unchanged; this is a declined warning, not a protocol
// failure.
var ErrScanCountRejected = errors.New("scan count mismatch not confirmed")

// StateError reports an operation invoked on a job in the wrong lifecycle
// state. This is a programming error of the caller, distinct from
// protocol, transport, and parse failures.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: job in state %q", e.Op, e.State)
}

// Orchestrator drives the submission protocol: INIT and SFTP over HTTP,
// bulk transfer over SFTP, then PREP, RUN, STATUS, and DELETE. It is
// fully synchronous and performs no retries; it is not safe for
// concurrent use against the same Job without external serialization.
type Orchestrator struct {
	creds        actions.Credentials
	http         HTTPDoer
	bulk         BulkTransport
	confirmScans ConfirmScanCountFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfirmScanCount installs the PREP mismatch confirmation callback.
func WithConfirmScanCount(f ConfirmScanCountFunc) Option {
	return func(o *Orchestrator) { o.confirmScans = f }
}

// NewOrchestrator creates an orchestrator bound to one set of
// credentials.
func NewOrchestrator(creds actions.Credentials, http HTTPDoer, bulk BulkTransport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		creds:        creds,
		http:         http,
		bulk:         bulk,
		confirmScans: func(reported, local int) bool { return false },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InitParams are the inputs to job initialization. A non-empty
// ResumeJobID selects the pickup path: the scan count is forced to zero
// because pickup jobs carry no additional scan cost.
type InitParams struct {
	ProjectID        int
	PIVersion        string
	ScanCount        int
	MaxPoints        int
	MinMass          int
	MaxMass          int
	CalibrationCount int
	ResumeJobID      string
}

// fail marks the job failed and records the error. Initialization
// failures additionally clear the id: a failed INIT never yields a
// usable job.
func fail(j Job, err error, clearID bool) Job {
	j.State = StateFailed
	j.LastError = err.Error()
	if clearID {
		j.ID = ""
	}
	return j
}

// Init performs the INIT round trip, fetches SFTP credentials, and opens
// one verification session to bootstrap the remote directory layout. On
// success the job is SftpReady; on any failure it is Failed with no id.
func (o *Orchestrator) Init(ctx context.Context, j Job, p InitParams) (Job, error) {
	if j.State != StateUnstarted && j.State != StateFailed {
		return j, &StateError{Op: "init", State: j.State}
	}
	j.ID = ""

	var req actions.Request
	if p.ResumeJobID != "" {
		req = actions.PickupRequest{JobID: p.ResumeJobID}
	} else {
		req = actions.InitRequest{
			ProjectID:        p.ProjectID,
			PIVersion:        p.PIVersion,
			ScanCount:        p.ScanCount,
			MaxPoints:        p.MaxPoints,
			MinMass:          p.MinMass,
			MaxMass:          p.MaxMass,
			CalibrationCount: p.CalibrationCount,
		}
	}

	body, err := o.http.Do(ctx, req, o.creds)
	if err != nil {
		return fail(j, err, true), err
	}
	resp, err := actions.DecodeInit(body)
	if err != nil {
		return fail(j, err, true), err
	}

	j.ID = resp.Job
	j.ProjectID = resp.ProjectID
	if j.ProjectID == 0 {
		j.ProjectID = p.ProjectID
	}
	j.Funds = resp.Funds
	j.Costs = resp.EstimatedCosts
	j.PIVersion = p.PIVersion
	j.MinMass = p.MinMass
	j.MaxMass = p.MaxMass
	if p.ResumeJobID != "" {
		j.ID = p.ResumeJobID
		j.ScanCount = 0
	} else {
		j.ScanCount = p.ScanCount
	}
	j.State = StateInitialized
	slog.Info("job_initialized", "job", j.ID, "funds", j.Funds, "pickup", p.ResumeJobID != "")

	// Transfer credentials for the bulk channel.
	sftpBody, err := o.http.Do(ctx, actions.SftpRequest{ProjectID: j.ProjectID}, o.creds)
	if err != nil {
		return fail(j, err, true), err
	}
	sftpResp, err := actions.DecodeSftp(sftpBody)
	if err != nil {
		return fail(j, err, true), err
	}
	j.Sftp = transport.Session{
		Host:      sftpResp.Host,
		Port:      sftpResp.Port,
		User:      sftpResp.Login,
		Password:  sftpResp.Password,
		Directory: sftpResp.Directory,
	}

	// One verification session: confirm reachability and bootstrap the
	// remote layout, then drop the session immediately.
	if out := o.bulk.Bootstrap(j.Sftp, j.ProjectID); !out.OK {
		err := &actions.SftpError{Message: out.Message}
		return fail(j, err, true), err
	}

	j.State = StateSftpReady
	slog.Info("job_sftp_ready", "job", j.ID, "host", j.Sftp.Host)
	return j, nil
}

// PutFile uploads the local archive over the bulk channel. The remote
// name is derived from the job id, as the service expects. A transfer
// failure leaves the job state untouched so the caller may retry; the
// upload scheme is retry-safe by construction.
func (o *Orchestrator) PutFile(ctx context.Context, j Job, localPath string) (Job, error) {
	if j.ID == "" || (j.State != StateSftpReady && j.State != StatePrepped) {
		return j, &StateError{Op: "put file", State: j.State}
	}
	remoteName := j.ID + ".scans.tar"
	if out := o.bulk.Put(j.Sftp, j.ProjectID, localPath, remoteName); !out.OK {
		err := &actions.SftpError{Message: out.Message}
		j.LastError = err.Error()
		return j, err
	}
	j.RemoteFile = remoteName
	return j, nil
}

// Prep hands the uploaded archive off for analysis. While the server is
// still analyzing, the job stays SftpReady and the response reports the
// completion percentage; when it is Ready the job becomes Prepped. A
// reported scan count that disagrees with the job's local count is a
// warning: the transition proceeds only if the confirmation callback
// accepts, and a pickup job (local count zero) skips the check.
func (o *Orchestrator) Prep(ctx context.Context, j Job) (Job, *actions.PrepResponse, error) {
	if j.ID == "" || j.State != StateSftpReady || j.RemoteFile == "" {
		return j, nil, &StateError{Op: "prep", State: j.State}
	}
	body, err := o.http.Do(ctx, actions.PrepRequest{JobID: j.ID, File: j.RemoteFile}, o.creds)
	if err != nil {
		return fail(j, err, false), nil, err
	}
	resp, err := actions.DecodePrep(body)
	if err != nil {
		return fail(j, err, false), nil, err
	}
	if resp.Status == actions.PrepAnalyzing {
		slog.Info("job_prep_analyzing", "job", j.ID, "percent", resp.PercentComplete)
		return j, resp, nil
	}

	if j.ScanCount != 0 && resp.ScanCount != j.ScanCount {
		slog.Warn("job_prep_scan_count_mismatch", "job", j.ID, "reported", resp.ScanCount, "local", j.ScanCount)
		if !o.confirmScans(resp.ScanCount, j.ScanCount) {
			return j, resp, ErrScanCountRejected
		}
	}
	j.ScanCount = resp.ScanCount
	j.State = StatePrepped
	slog.Info("job_prepped", "job", j.ID, "scan_count", resp.ScanCount, "ms_type", resp.MSType)
	return j, resp, nil
}

// Run starts processing under the selected tier and algorithm version.
func (o *Orchestrator) Run(ctx context.Context, j Job, tier, piVersion string) (Job, error) {
	if j.ID == "" || j.State != StatePrepped {
		return j, &StateError{Op: "run", State: j.State}
	}
	j.Tier = tier
	j.PIVersion = piVersion
	body, err := o.http.Do(ctx, actions.RunRequest{JobID: j.ID, RTO: tier, InputFile: j.RemoteFile}, o.creds)
	if err != nil {
		return fail(j, err, false), err
	}
	resp, err := actions.DecodeRun(body)
	if err != nil {
		return fail(j, err, false), err
	}
	j.ID = resp.Job
	j.State = StateRunning
	slog.Info("job_running", "job", j.ID, "tier", tier, "pi_version", piVersion)
	return j, nil
}

// PollStatus performs one STATUS round trip. A Done reply moves the job
// to Done and records the completion fields; a Running reply leaves the
// job as is.
func (o *Orchestrator) PollStatus(ctx context.Context, j Job) (Job, *actions.StatusResponse, error) {
	if j.ID == "" {
		return j, nil, &StateError{Op: "poll status", State: j.State}
	}
	body, err := o.http.Do(ctx, actions.StatusRequest{JobID: j.ID}, o.creds)
	if err != nil {
		return fail(j, err, false), nil, err
	}
	resp, err := actions.DecodeStatus(body)
	if err != nil {
		return fail(j, err, false), nil, err
	}
	switch resp.Status {
	case actions.StatusDone:
		j.ScansInput = resp.ScansInput
		j.ScansComplete = resp.ScansComplete
		j.ActualCost = resp.ActualCost
		j.ResultsFile = resp.ResultsFile
		j.LogFile = resp.LogFile
		j.State = StateDone
	case actions.StatusDeleted:
		j.State = StateDeleted
	}
	slog.Info("job_status", "job", j.ID, "status", string(resp.Status))
	return j, resp, nil
}

// GetFile downloads a result archive into localDir and purges the remote
// copy. Like PutFile, a failure leaves the job state untouched.
func (o *Orchestrator) GetFile(ctx context.Context, j Job, remoteName, localDir string) (Job, error) {
	if j.ID == "" {
		return j, &StateError{Op: "get file", State: j.State}
	}
	if out := o.bulk.Get(j.Sftp, j.ProjectID, remoteName, localDir); !out.OK {
		err := &actions.SftpError{Message: out.Message}
		j.LastError = err.Error()
		return j, err
	}
	return j, nil
}

// Delete removes the job server-side. On acknowledgement the job is
// logically destroyed: terminal state Deleted.
func (o *Orchestrator) Delete(ctx context.Context, j Job) (Job, error) {
	if j.ID == "" {
		return j, &StateError{Op: "delete", State: j.State}
	}
	body, err := o.http.Do(ctx, actions.DeleteRequest{JobID: j.ID}, o.creds)
	if err != nil {
		return fail(j, err, false), err
	}
	resp, err := actions.DecodeDelete(body)
	if err != nil {
		return fail(j, err, false), err
	}
	j.State = StateDeleted
	slog.Info("job_deleted", "job", resp.Job, "at", resp.Datetime)
	return j, nil
}
