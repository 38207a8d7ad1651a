package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/superfly/fsm"
	"github.com/veritomyx/peakinvestigator-go/internal/config"
	"github.com/veritomyx/peakinvestigator-go/pkg/db"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/pipeline"
	"github.com/veritomyx/peakinvestigator-go/pkg/scans"
)

var (
	submitTier      string
	submitPIVersion string
	submitMinMass   int
	submitMaxMass   int
	submitResume    string
	submitYes       bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <scan-archive.tar>",
	Short: "Submit a scan archive for remote peak detection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitTier, "tier", "", "Response-time tier (e.g. RTO-24)")
	submitCmd.Flags().StringVar(&submitPIVersion, "pi-version", "", "Algorithm version (defaults to account current)")
	submitCmd.Flags().IntVar(&submitMinMass, "min-mass", 0, "Lower mass bound")
	submitCmd.Flags().IntVar(&submitMaxMass, "max-mass", 0, "Upper mass bound")
	submitCmd.Flags().StringVar(&submitResume, "resume", "", "Pick up an existing job by id instead of creating one")
	submitCmd.Flags().BoolVar(&submitYes, "yes", false, "Proceed without asking on a scan-count mismatch")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	archivePath := args[0]

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

	if err := ensureDirectories(cfg.SQLitePath, cfg.FSMDBPath, cfg.WorkDir); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	confirm := promptScanCountMismatch
	if submitYes {
		confirm = func(reported, local int) bool { return true }
	}
	engine := newEngine(cfg, confirm)
	inspector := scans.NewInspector(cfg.MaxArchiveSize)

	manager, err := fsm.New(fsm.Config{DBPath: cfg.FSMDBPath})
	if err != nil {
		return errors.Wrap(err, "pipeline manager failed")
	}
	defer manager.Shutdown(10 * time.Second)

	machine := pipeline.NewMachine(repo, engine, inspector, cfg.PipelineMaxRetries)
	start, _, err := machine.Register(ctx, manager)
	if err != nil {
		return errors.Wrap(err, "pipeline register failed")
	}

	tier := submitTier
	if tier == "" {
		tier = cfg.DefaultTier
	}
	piVersion := submitPIVersion
	if piVersion == "" {
		piVersion = cfg.DefaultPIVersion
	}

	req := &pipeline.SubmitRequest{
		ArchivePath: archivePath,
		ProjectID:   cfg.ProjectID,
		PIVersion:   piVersion,
		Tier:        tier,
		MinMass:     submitMinMass,
		MaxMass:     submitMaxMass,
		MaxPoints:   cfg.MaxPoints,
		ResumeJobID: submitResume,
	}
	resp := &pipeline.SubmitResponse{}

	version, err := start(ctx, archivePath, fsm.NewRequest(req, resp))
	if err != nil {
		return errors.Wrap(err, "pipeline start failed")
	}

	slog.Info("pipeline started", "version", version)

	if err := manager.Wait(ctx, version); err != nil {
		return errors.Wrap(err, "pipeline execution failed")
	}

	slog.Info("submit completed",
		"job", resp.JobID,
		"status", resp.Status,
		"funds", resp.Funds,
		"scans_local", resp.ScansLocal,
		"scans_reported", resp.ScansReported,
		"ms_type", resp.MSType,
	)

	return nil
}
