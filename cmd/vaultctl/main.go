package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vinnodrive/vinnodrive/cmd/vaultctl/cmd"
	"github.com/vinnodrive/vinnodrive/internal/config"
	"github.com/vinnodrive/vinnodrive/internal/logger"
)

func main() {
	cfg := config.LoadTool()
	logger.Init(logger.Options{Development: true})

	rootCmd := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Administrative tools for VinnoDrive",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.MigrateCmd(cfg))
	rootCmd.AddCommand(cmd.UsageCmd(cfg))
	rootCmd.AddCommand(cmd.QuotaCmd(cfg))
	rootCmd.AddCommand(cmd.FsckCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
