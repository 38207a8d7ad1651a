package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "pictl",
	Short: "PeakInvestigator - remote peak-detection job management",
	Long:  `Submits mass-spectrometry peak-detection jobs to the PeakInvestigator service and tracks them to completion.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("endpoint", "https://peakinvestigator.veritomyx.com/api/", "Control plane endpoint")
	rootCmd.PersistentFlags().String("username", "", "Account username")
	rootCmd.PersistentFlags().String("code", "", "Account access code")
	rootCmd.PersistentFlags().Int("project-id", 0, "Project (account) id")
	rootCmd.PersistentFlags().String("sqlite-path", ".artifacts/jobs.db", "SQLite database path")
	rootCmd.PersistentFlags().String("fsm-db-path", ".artifacts/fsm.db", "Pipeline BoltDB path")
	rootCmd.PersistentFlags().String("work-dir", "/tmp/pictl", "Working directory for downloads")

	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("username", rootCmd.PersistentFlags().Lookup("username"))
	viper.BindPFlag("code", rootCmd.PersistentFlags().Lookup("code"))
	viper.BindPFlag("project-id", rootCmd.PersistentFlags().Lookup("project-id"))
	viper.BindPFlag("sqlite-path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	viper.BindPFlag("fsm-db-path", rootCmd.PersistentFlags().Lookup("fsm-db-path"))
	viper.BindPFlag("work-dir", rootCmd.PersistentFlags().Lookup("work-dir"))
}
