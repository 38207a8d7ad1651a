package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veritomyx/peakinvestigator-go/internal/config"
	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
	"github.com/veritomyx/peakinvestigator-go/pkg/errors"
	"github.com/veritomyx/peakinvestigator-go/pkg/transport"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the algorithm versions available to this account",
	Args:  cobra.NoArgs,
	RunE:  runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	client := transport.NewHTTPClient(cfg.Endpoint, cfg.HTTPTimeout)
	body, err := client.Do(ctx, actions.PiVersionsRequest{}, credentials(cfg))
	if err != nil {
		return errors.Wrap(err, "version query failed")
	}
	resp, err := actions.DecodePiVersions(body)
	if err != nil {
		return errors.Wrap(err, "version reply invalid")
	}

	for _, v := range resp.Versions {
		marker := " "
		switch v {
		case resp.Current:
			marker = "*"
		case resp.LastUsed:
			marker = "-"
		}
		fmt.Printf("%s %s\n", marker, v)
	}
	fmt.Printf("\n* current")
	if resp.LastUsed != "" {
		fmt.Printf("   - last used")
	}
	fmt.Println()

	return nil
}
