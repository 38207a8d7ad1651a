package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritomyx/peakinvestigator-go/internal/config"
	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
	"github.com/veritomyx/peakinvestigator-go/pkg/db"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/job"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Poll the processing status of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	jobID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config invalid")
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}
	if err := ensureDirectories(cfg.SQLitePath, "", ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	engine := newEngine(cfg, nil)

	j := job.Job{ID: jobID, ProjectID: cfg.ProjectID, State: job.StateRunning}
	j, resp, err := engine.PollStatus(ctx, j)
	if err != nil {
		return errors.Wrap(err, "status poll failed")
	}

	fmt.Printf("Job:      %s\n", resp.Job)
	fmt.Printf("Status:   %s\n", resp.Status)
	fmt.Printf("Datetime: %s\n", resp.Datetime.Format("2006-01-02 15:04:05"))
	if resp.Status == actions.StatusDone {
		fmt.Printf("Scans:    %d/%d complete\n", resp.ScansComplete, resp.ScansInput)
		fmt.Printf("Cost:     %.2f\n", resp.ActualCost)
		fmt.Printf("Results:  %s\n", resp.ResultsFile)
		fmt.Printf("Log:      %s\n", resp.LogFile)
	}

	// Keep the local record in step with the server.
	rec, err := repo.GetByJobID(jobID)
	if err != nil {
		return errors.Wrap(err, "record lookup failed")
	}
	if rec != nil {
		rec.Status = string(j.State)
		if resp.Status == actions.StatusDone {
			rec.ActualCost = resp.ActualCost
			rec.ResultsFile = resp.ResultsFile
			rec.LogFile = resp.LogFile
		}
		if err := repo.Update(rec); err != nil {
			return errors.Wrap(err, "record update failed")
		}
	}

	return nil
}
