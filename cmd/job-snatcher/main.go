// cmd/job-snatcher/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "job-snatcher",
		Short:         "Job posting pipeline: ingest, match, draft, notify",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: configs/config.yaml)")

	root.AddCommand(
		newServeCommand(&configPath),
		newRunCommand(&configPath),
		newRunIDsCommand(&configPath),
		newEnqueueCommand(&configPath),
		newMigrateCommand(&configPath),
	)
	return root
}
