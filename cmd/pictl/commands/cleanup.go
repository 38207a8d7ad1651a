package commands

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/veritomyx/peakinvestigator-go/internal/config"
	"github.com/veritomyx/peakinvestigator-go/pkg/db"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/job"
)

var (
	cleanupAll      bool
	cleanupJob      string
	cleanupOrphaned bool
	cleanupRemote   bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up job resources (downloads, finished records)",
	Long: `Clean up resources associated with jobs:
  --all            Remove downloads and records for all finished jobs
  --job <job-id>   Remove downloads and the record for one job
  --orphaned       Remove work-dir files not tracked in the database
  --remote         Also delete done jobs server-side before dropping them`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanupAll, "all", false, "Clean all finished jobs")
	cleanupCmd.Flags().StringVar(&cleanupJob, "job", "", "Clean a specific job by id")
	cleanupCmd.Flags().BoolVar(&cleanupOrphaned, "orphaned", false, "Clean orphaned work-dir files")
	cleanupCmd.Flags().BoolVar(&cleanupRemote, "remote", false, "Delete done jobs server-side as well")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}
	if err := ensureDirectories(cfg.SQLitePath, "", cfg.WorkDir); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	var engine *job.Orchestrator
	if cleanupRemote {
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}
		engine = newEngine(cfg, nil)
	}

	if cleanupAll {
		return cleanupFinishedJobs(repo, engine, cfg)
	} else if cleanupJob != "" {
		return cleanupSpecificJob(repo, engine, cfg, cleanupJob)
	} else if cleanupOrphaned {
		return cleanupOrphanedFiles(repo, cfg)
	} else {
		return fmt.Errorf("must specify --all, --job, or --orphaned")
	}
}

// finished reports whether a record is in a terminal state that no
// command will ever advance again.
func finished(status string) bool {
	return status == string(job.StateDone) ||
		status == string(job.StateDeleted) ||
		status == string(job.StateFailed)
}

func cleanupFinishedJobs(repo *db.Repository, engine *job.Orchestrator, cfg *config.Config) error {
	records, err := repo.List()
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	cleaned := 0
	for _, rec := range records {
		if !finished(rec.Status) {
			continue
		}
		if err := cleanupJobResources(repo, engine, cfg, rec); err != nil {
			fmt.Printf("Failed to clean %s: %v\n", rec.JobID, err)
			continue
		}
		fmt.Printf("Cleaned: %s\n", rec.JobID)
		cleaned++
	}

	fmt.Printf("Cleaned %d finished jobs\n", cleaned)
	return nil
}

func cleanupSpecificJob(repo *db.Repository, engine *job.Orchestrator, cfg *config.Config, jobID string) error {
	rec, err := repo.GetByJobID(jobID)
	if err != nil {
		return errors.Wrap(err, "record lookup failed")
	}
	if rec == nil {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if !finished(rec.Status) {
		return fmt.Errorf("job %s is still %s; delete it first or wait for completion", jobID, rec.Status)
	}

	if err := cleanupJobResources(repo, engine, cfg, rec); err != nil {
		return errors.Wrapf(err, "cleanup of %s failed", jobID)
	}

	fmt.Printf("Cleaned: %s\n", jobID)
	return nil
}

// cleanupJobResources removes the job's downloaded artifacts from the
// work directory and drops its record. With a non-nil engine, done jobs
// are deleted server-side first; already-deleted jobs are skipped.
func cleanupJobResources(repo *db.Repository, engine *job.Orchestrator, cfg *config.Config, rec *db.Record) error {
	if engine != nil && rec.Status == string(job.StateDone) {
		j := job.Job{ID: rec.JobID, ProjectID: rec.ProjectID, State: job.StateDone}
		if _, err := engine.Delete(context.Background(), j); err != nil {
			return errors.Wrap(err, "server-side delete failed")
		}
	}

	for _, remote := range []string{rec.ResultsFile, rec.LogFile} {
		name := path.Base(remote)
		if name == "." || name == "/" || name == "" {
			continue
		}
		local := filepath.Join(cfg.WorkDir, name)
		if err := os.Remove(local); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Download cleanup warning: %v\n", err)
		}
	}

	return repo.Delete(rec.ID)
}

// cleanupOrphanedFiles removes work-dir files that no tracked job claims
// as its results or log file.
func cleanupOrphanedFiles(repo *db.Repository, cfg *config.Config) error {
	records, err := repo.List()
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	tracked := make(map[string]bool)
	for _, rec := range records {
		for _, remote := range []string{rec.ResultsFile, rec.LogFile} {
			if name := path.Base(remote); name != "." && name != "" {
				tracked[name] = true
			}
		}
	}

	entries, err := os.ReadDir(cfg.WorkDir)
	if err != nil {
		return errors.Wrap(err, "work dir read failed")
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || tracked[entry.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(cfg.WorkDir, entry.Name())); err != nil {
			fmt.Printf("Orphan cleanup warning: %v\n", err)
			continue
		}
		fmt.Printf("Removed orphan: %s\n", entry.Name())
		removed++
	}

	fmt.Printf("Removed %d orphaned files\n", removed)
	return nil
}
