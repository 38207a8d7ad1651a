package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritomyx/peakinvestigator-go/internal/config"
	"github.com/veritomyx/peakinvestigator-go/pkg/db"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tracked jobs and their status",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}

	// Ensure database directory exists
	if err := ensureDirectories(cfg.SQLitePath, "", ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	records, err := repo.List()
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	if len(records) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-14s %-12s %-10s %-8s %-10s %-20s\n", "JOB", "STATUS", "TIER", "SCANS", "COST", "CREATED")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, rec := range records {
		tier := rec.Tier
		if tier == "" {
			tier = "-"
		}
		cost := "-"
		if rec.ActualCost != 0 {
			cost = fmt.Sprintf("%.2f", rec.ActualCost)
		}

		fmt.Printf("%-14s %-12s %-10s %-8d %-10s %-20s\n",
			rec.JobID, rec.Status, tier, rec.ScanCount, cost, rec.CreatedAt)
	}

	return nil
}
