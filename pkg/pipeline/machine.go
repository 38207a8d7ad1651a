// Package pipeline implements the durable job-submission workflow. It
// drives the protocol engine through init, upload, prep, and run as a
// persisted state machine using the superfly/fsm library, so an
// interrupted submission can be resumed where it stopped.
package pipeline

import (
	"context"

	"github.com/superfly/fsm"
	"github.com/veritomyx/peakinvestigator-go/pkg/db"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/job"
	"github.com/veritomyx/peakinvestigator-go/pkg/scans"
)

// Machine holds dependencies for pipeline transitions.
type Machine struct {
	repo       *db.Repository
	engine     *job.Orchestrator
	inspector  *scans.Inspector
	maxRetries int
}

// NewMachine creates a pipeline machine with dependencies.
func NewMachine(repo *db.Repository, engine *job.Orchestrator, inspector *scans.Inspector, maxRetries int) *Machine {
	return &Machine{
		repo:       repo,
		engine:     engine,
		inspector:  inspector,
		maxRetries: maxRetries,
	}
}

// Register registers the submission pipeline.
func (m *Machine) Register(ctx context.Context, manager *fsm.Manager) (fsm.Start[SubmitRequest, SubmitResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[SubmitRequest, SubmitResponse](manager, "job-submit").
		Start(StateCheckRecord, m.handleCheckRecord).
		To(StateInit, m.handleInit).
		To(StateUpload, m.handleUpload).
		To(StatePrep, m.handlePrep).
		To(StateRun, m.handleRun).
		To(StateComplete, m.handleComplete).
		End(StateFailed).
		Build(ctx)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register pipeline")
	}

	return start, resume, nil
}
