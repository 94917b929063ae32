package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/logging"
)

var (
	cfgFile string
	debug   bool
	rootCmd = &cobra.Command{
		Use:   "agentic-tdd",
		Short: "agentic-tdd runs autonomous TDD sessions against a kata",
		Long: "agentic-tdd reads a kata description and drives tester, implementer and\n" +
			"refactorer agents through red/green/refactor cycles, committing only green\n" +
			"states.",
	}
)

// Execute runs the root command.
func Execute(ctx context.Context) error {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Init(debug)
	}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(sessionsCmd())
	return rootCmd.ExecuteContext(ctx)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("json")
	}
}
