package commands

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/veritomyx/peakinvestigator-go/internal/config"
	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
	"github.com/veritomyx/peakinvestigator-go/pkg/db"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/job"
)

var fetchDelete bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <job-id>",
	Short: "Download the results of a completed job",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchDelete, "delete", false, "Delete the job server-side after a successful download")
}

func runFetch(cmd *cobra.Command, args []string) error {
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
	if err := ensureDirectories(cfg.SQLitePath, "", cfg.WorkDir); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	engine := newEngine(cfg, nil)

	// Pickup re-establishes the SFTP credentials for this job.
	j, err := engine.Init(ctx, job.New(), job.InitParams{
		ProjectID:   cfg.ProjectID,
		ResumeJobID: jobID,
	})
	if err != nil {
		return errors.Wrap(err, "job pickup failed")
	}

	j, status, err := engine.PollStatus(ctx, j)
	if err != nil {
		return errors.Wrap(err, "status poll failed")
	}
	if status.Status != actions.StatusDone {
		return fmt.Errorf("job %s is not done yet (status %s)", jobID, status.Status)
	}

	resultsName := path.Base(status.ResultsFile)
	if j, err = engine.GetFile(ctx, j, resultsName, cfg.WorkDir); err != nil {
		return errors.Wrapf(err, "download of %s failed", resultsName)
	}
	fmt.Printf("Results: %s\n", filepath.Join(cfg.WorkDir, resultsName))

	if logName := path.Base(status.LogFile); logName != "." && logName != "" {
		if j, err = engine.GetFile(ctx, j, logName, cfg.WorkDir); err != nil {
			// The log is best effort; results already landed.
			fmt.Printf("Log download failed: %v\n", err)
		} else {
			fmt.Printf("Log:     %s\n", filepath.Join(cfg.WorkDir, logName))
		}
	}

	if fetchDelete {
		if j, err = engine.Delete(ctx, j); err != nil {
			return errors.Wrap(err, "delete failed")
		}
		fmt.Printf("Job %s deleted\n", jobID)
	}

	rec, err := repo.GetByJobID(jobID)
	if err != nil {
		return errors.Wrap(err, "record lookup failed")
	}
	if rec != nil {
		rec.Status = string(j.State)
		rec.ActualCost = status.ActualCost
		rec.ResultsFile = status.ResultsFile
		rec.LogFile = status.LogFile
		if err := repo.Update(rec); err != nil {
			return errors.Wrap(err, "record update failed")
		}
	}

	return nil
}
