package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var driverFlag string
	ctx := newCommandContext(&driverFlag)

	rootCmd := &cobra.Command{
		Use:           "dictctl",
		Short:         "Manage the ingredient dictionary",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Override store driver (memory, redis, sqlite)")

	rootCmd.AddCommand(newNormalizeCommand())
	rootCmd.AddCommand(newUnitsCommand())
	rootCmd.AddCommand(newSeedCommand(ctx))
	rootCmd.AddCommand(newLookupCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newPromoteCommand(ctx))

	return rootCmd
}
