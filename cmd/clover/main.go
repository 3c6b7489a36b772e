package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFiles []string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "clover",
		Short:         "Deduplicate and merge business listings from two providers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "env files to load before reading the environment")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMergeCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "clover: %v\n", err)
		os.Exit(1)
	}
}
