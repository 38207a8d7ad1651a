package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritomyx/peakinvestigator-go/internal/config"
	"github.com/veritomyx/peakinvestigator-go/pkg/db"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/job"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and its remote data",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
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
	j, err = engine.Delete(ctx, j)
	if err != nil {
		return errors.Wrap(err, "delete failed")
	}
	fmt.Printf("Job %s deleted\n", jobID)

	rec, err := repo.GetByJobID(jobID)
	if err != nil {
		return errors.Wrap(err, "record lookup failed")
	}
	if rec != nil {
		if err := repo.UpdateStatus(rec.ID, string(job.StateDeleted), ""); err != nil {
			return errors.Wrap(err, "record update failed")
		}
	}

	return nil
}
