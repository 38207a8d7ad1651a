package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/superfly/fsm"
	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
	"github.com/veritomyx/peakinvestigator-go/pkg/db"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/job"
)

// PREP is polled until the server finishes analyzing the upload.
const (
	prepPollInterval = 10 * time.Second
	prepPollLimit    = 60
)

// retryable reports whether an engine failure may heal on a later
// attempt. Only transport trouble retries; explicit server rejections,
// malformed replies, and bulk-channel failures during init abort.
func retryable(err error) bool {
	return actions.KindOf(err) == actions.KindTransportFailure
}

// checkRetries aborts the transition once the retry budget is spent.
func (m *Machine) checkRetries(ctx context.Context, archive string) error {
	if retryCount := fsm.RetryFromContext(ctx); retryCount >= uint64(m.maxRetries) {
		slog.Error("max_retries_exceeded", "archive", archive, "max_retries", m.maxRetries)
		return fmt.Errorf("max retries (%d) exceeded", m.maxRetries)
	}
	return nil
}

// handleCheckRecord looks for an existing record of this submission
// (idempotency) and short-circuits jobs that already ran to completion.
func (m *Machine) handleCheckRecord(ctx context.Context, req *fsm.Request[SubmitRequest, SubmitResponse]) (*fsm.Response[SubmitResponse], error) {
	slog.Info("pipeline_state_check_record", "archive", req.Msg.ArchivePath, "resume", req.Msg.ResumeJobID)

	if err := m.checkRetries(ctx, req.Msg.ArchivePath); err != nil {
		return nil, fsm.Abort(err)
	}

	resp := req.W.Msg
	if resp == nil {
		resp = &SubmitResponse{}
	}

	if req.Msg.ResumeJobID != "" {
		rec, err := m.repo.GetByJobID(req.Msg.ResumeJobID)
		if err != nil {
			return nil, fsm.Abort(errors.Wrap(err, "database error"))
		}
		if rec != nil {
			resp.RecordID = rec.ID
			resp.JobID = rec.JobID
			resp.Status = rec.Status
			if rec.Status == string(job.StateRunning) || rec.Status == string(job.StateDone) {
				slog.Info("job_already_submitted", "job", rec.JobID, "status", rec.Status)
				return fsm.NewResponse(resp), nil
			}
		}
	}

	return fsm.NewResponse(resp), nil
}

// handleInit inspects the local archive and performs protocol
// initialization (INIT, SFTP credentials, bootstrap).
func (m *Machine) handleInit(ctx context.Context, req *fsm.Request[SubmitRequest, SubmitResponse]) (*fsm.Response[SubmitResponse], error) {
	slog.Info("pipeline_state_init", "archive", req.Msg.ArchivePath)

	if err := m.checkRetries(ctx, req.Msg.ArchivePath); err != nil {
		return nil, fsm.Abort(err)
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}
	if resp.Status == string(job.StateRunning) || resp.Status == string(job.StateDone) {
		return fsm.NewResponse(resp), nil
	}

	info, err := m.inspector.Inspect(req.Msg.ArchivePath)
	if err != nil {
		return nil, fsm.Abort(errors.Wrap(err, "archive inspection failed"))
	}
	resp.ScansLocal = info.ScanCount

	params := job.InitParams{
		ProjectID:   req.Msg.ProjectID,
		PIVersion:   req.Msg.PIVersion,
		ScanCount:   info.ScanCount,
		MaxPoints:   req.Msg.MaxPoints,
		MinMass:     req.Msg.MinMass,
		MaxMass:     req.Msg.MaxMass,
		ResumeJobID: req.Msg.ResumeJobID,
	}

	j, err := m.engine.Init(ctx, job.New(), params)
	if err != nil {
		if !retryable(err) {
			return nil, fsm.Abort(errors.Wrap(err, "job init rejected"))
		}
		return nil, errors.Wrap(err, "job init failed")
	}

	resp.Job = j
	resp.JobID = j.ID
	resp.Funds = j.Funds

	rec, err := m.repo.GetByJobID(j.ID)
	if err != nil {
		return nil, fsm.Abort(errors.Wrap(err, "database error"))
	}
	if rec == nil {
		rec = &db.Record{
			JobID:     j.ID,
			ProjectID: j.ProjectID,
			Status:    string(j.State),
			PIVersion: req.Msg.PIVersion,
			Tier:      req.Msg.Tier,
			ScanCount: j.ScanCount,
			Funds:     j.Funds,
		}
		if err := m.repo.Create(rec); err != nil {
			return nil, fsm.Abort(errors.Wrap(err, "failed to create job record"))
		}
	}
	resp.RecordID = rec.ID

	slog.Info("pipeline_init_complete", "job", j.ID, "funds", j.Funds, "scans", info.ScanCount)
	return fsm.NewResponse(resp), nil
}

// handleUpload pushes the archive over the bulk channel. The put scheme
// is retry-safe, so a transfer failure is returned (not aborted) and the
// state retries under the budget.
func (m *Machine) handleUpload(ctx context.Context, req *fsm.Request[SubmitRequest, SubmitResponse]) (*fsm.Response[SubmitResponse], error) {
	slog.Info("pipeline_state_upload", "archive", req.Msg.ArchivePath)

	if err := m.checkRetries(ctx, req.Msg.ArchivePath); err != nil {
		return nil, fsm.Abort(err)
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}
	if resp.Status == string(job.StateRunning) || resp.Status == string(job.StateDone) {
		return fsm.NewResponse(resp), nil
	}

	j, err := m.engine.PutFile(ctx, resp.Job, req.Msg.ArchivePath)
	if err != nil {
		m.repo.UpdateStatus(resp.RecordID, string(job.StateFailed), err.Error())
		return nil, errors.Wrap(err, "upload failed")
	}

	resp.Job = j
	resp.RemoteFile = j.RemoteFile

	rec, _ := m.repo.GetByJobID(j.ID)
	if rec != nil {
		rec.RemoteFile = j.RemoteFile
		rec.Status = string(j.State)
		if err := m.repo.Update(rec); err != nil {
			return nil, errors.Wrap(err, "failed to update job record")
		}
	}

	slog.Info("pipeline_upload_complete", "job", j.ID, "remote_file", j.RemoteFile)
	return fsm.NewResponse(resp), nil
}

// handlePrep hands the upload off for analysis and polls until the server
// reports Ready. A scan-count mismatch declined by the engine's
// confirmation callback aborts the pipeline.
func (m *Machine) handlePrep(ctx context.Context, req *fsm.Request[SubmitRequest, SubmitResponse]) (*fsm.Response[SubmitResponse], error) {
	slog.Info("pipeline_state_prep", "archive", req.Msg.ArchivePath)

	if err := m.checkRetries(ctx, req.Msg.ArchivePath); err != nil {
		return nil, fsm.Abort(err)
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}
	if resp.Status == string(job.StateRunning) || resp.Status == string(job.StateDone) {
		return fsm.NewResponse(resp), nil
	}

	j := resp.Job
	for attempt := 0; attempt < prepPollLimit; attempt++ {
		next, prep, err := m.engine.Prep(ctx, j)
		if errors.Is(err, job.ErrScanCountRejected) {
			m.repo.UpdateStatus(resp.RecordID, string(job.StateFailed), err.Error())
			return nil, fsm.Abort(err)
		}
		if err != nil {
			if !retryable(err) {
				m.repo.UpdateStatus(resp.RecordID, string(job.StateFailed), err.Error())
				return nil, fsm.Abort(errors.Wrap(err, "prep rejected"))
			}
			return nil, errors.Wrap(err, "prep failed")
		}
		j = next

		if prep.Status == actions.PrepReady {
			resp.Job = j
			resp.ScansReported = prep.ScanCount
			resp.MSType = prep.MSType

			rec, _ := m.repo.GetByJobID(j.ID)
			if rec != nil {
				rec.ScanCount = j.ScanCount
				rec.Status = string(j.State)
				if err := m.repo.Update(rec); err != nil {
					return nil, errors.Wrap(err, "failed to update job record")
				}
			}

			slog.Info("pipeline_prep_complete", "job", j.ID, "scans", prep.ScanCount, "ms_type", prep.MSType)
			return fsm.NewResponse(resp), nil
		}

		slog.Info("pipeline_prep_analyzing", "job", j.ID, "percent", prep.PercentComplete)
		select {
		case <-ctx.Done():
			return nil, fsm.Abort(ctx.Err())
		case <-time.After(prepPollInterval):
		}
	}

	return nil, errors.Wrap(fmt.Errorf("server still analyzing after %d polls", prepPollLimit), "prep timed out")
}

// handleRun starts processing under the selected tier.
func (m *Machine) handleRun(ctx context.Context, req *fsm.Request[SubmitRequest, SubmitResponse]) (*fsm.Response[SubmitResponse], error) {
	slog.Info("pipeline_state_run", "archive", req.Msg.ArchivePath)

	if err := m.checkRetries(ctx, req.Msg.ArchivePath); err != nil {
		return nil, fsm.Abort(err)
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}
	if resp.Status == string(job.StateRunning) || resp.Status == string(job.StateDone) {
		return fsm.NewResponse(resp), nil
	}

	// RUN may rebind the job id; the record still lives under the
	// pre-RUN id.
	initID := resp.Job.ID

	j, err := m.engine.Run(ctx, resp.Job, req.Msg.Tier, req.Msg.PIVersion)
	if err != nil {
		if !retryable(err) {
			m.repo.UpdateStatus(resp.RecordID, string(job.StateFailed), err.Error())
			return nil, fsm.Abort(errors.Wrap(err, "run rejected"))
		}
		return nil, errors.Wrap(err, "run failed")
	}

	resp.Job = j
	resp.JobID = j.ID

	rec, _ := m.repo.GetByJobID(initID)
	if rec != nil {
		rec.JobID = j.ID
		rec.Tier = req.Msg.Tier
		rec.PIVersion = req.Msg.PIVersion
		rec.Status = string(j.State)
		if err := m.repo.Update(rec); err != nil {
			return nil, errors.Wrap(err, "failed to update job record")
		}
	}

	slog.Info("pipeline_run_complete", "job", j.ID, "tier", req.Msg.Tier)
	return fsm.NewResponse(resp), nil
}

// handleComplete records the final pipeline state. The job itself keeps
// running server-side; status polling is a separate concern.
func (m *Machine) handleComplete(ctx context.Context, req *fsm.Request[SubmitRequest, SubmitResponse]) (*fsm.Response[SubmitResponse], error) {
	slog.Info("pipeline_state_complete", "archive", req.Msg.ArchivePath)

	resp := req.W.Msg
	if resp == nil {
		resp = &SubmitResponse{}
	}
	if resp.Status == "" {
		resp.Status = string(job.StateRunning)
	}

	slog.Info("pipeline_complete", "job", resp.JobID, "status", resp.Status)
	return fsm.NewResponse(resp), nil
}
