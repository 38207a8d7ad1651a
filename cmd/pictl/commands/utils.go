package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veritomyx/peakinvestigator-go/internal/config"
	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/job"
	"github.com/veritomyx/peakinvestigator-go/pkg/transport"
)

// ensureDirectories creates all necessary directories for the application
func ensureDirectories(sqlitePath, fsmDBPath, workDir string) error {
	// Create database directory
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}

	if fsmDBPath != "" {
		if err := os.MkdirAll(fsmDBPath, 0755); err != nil {
			return errors.Wrap(err, "failed to create pipeline directory")
		}
	}

	if workDir != "" {
		if err := os.MkdirAll(workDir, 0755); err != nil {
			return errors.Wrap(err, "failed to create work directory")
		}
	}

	return nil
}

// credentials builds the action credentials from configuration.
func credentials(cfg *config.Config) actions.Credentials {
	return actions.Credentials{
		Version: cfg.APIVersion,
		User:    cfg.Username,
		Code:    cfg.Code,
	}
}

// newEngine wires the orchestrator with its transports. confirm may be
// nil for commands that never reach PREP.
func newEngine(cfg *config.Config, confirm job.ConfirmScanCountFunc) *job.Orchestrator {
	httpClient := transport.NewHTTPClient(cfg.Endpoint, cfg.HTTPTimeout)
	bulk := transport.NewSftpTransport()
	opts := []job.Option{}
	if confirm != nil {
		opts = append(opts, job.WithConfirmScanCount(confirm))
	}
	return job.NewOrchestrator(credentials(cfg), httpClient, bulk, opts...)
}

// promptScanCountMismatch asks the user whether to proceed when the
// server's scan count disagrees with the local one.
func promptScanCountMismatch(reported, local int) bool {
	fmt.Printf("Server reported %d scans but the archive contains %d. Continue submitting? [y/N] ", reported, local)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
