package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "timelinectl",
		Short:         "Inspect project timelines offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newNormalizeCommand())
	rootCmd.AddCommand(newStatesCommand())

	return rootCmd
}
