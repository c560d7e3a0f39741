// cmd/job-snatcher/run.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"job-snatcher/internal/pipeline"

	"github.com/spf13/cobra"
)

func newRunCommand(configPath *string) *cobra.Command {
	var fromQueue bool
	var maxURLs int

	cmd := &cobra.Command{
		Use:   "run [url...]",
		Short: "Run one batch for the given posting URLs, or drain the pending queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !fromQueue {
				return fmt.Errorf("pass posting URLs or --from-queue")
			}
			return runBatch(cmd.Context(), *configPath, cmd.OutOrStdout(), func(ctx context.Context, a *app, o *pipeline.Orchestrator) (*pipeline.BatchReport, error) {
				urls := args
				if fromQueue {
					popped, err := a.queue.Pop(ctx, maxURLs)
					if err != nil {
						return nil, err
					}
					urls = append(urls, popped...)
				}
				return o.Run(ctx, urls)
			})
		},
	}

	cmd.Flags().BoolVar(&fromQueue, "from-queue", false, "Also take URLs from the pending queue")
	cmd.Flags().IntVar(&maxURLs, "max", 50, "Maximum URLs taken from the queue (0 = all)")
	return cmd
}

func newRunIDsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run-ids <job-id>...",
		Short: "Re-run matching, generation and notification for stored jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), *configPath, cmd.OutOrStdout(), func(ctx context.Context, _ *app, o *pipeline.Orchestrator) (*pipeline.BatchReport, error) {
				return o.RunIDs(ctx, args)
			})
		},
	}
}

type batchFunc func(ctx context.Context, a *app, o *pipeline.Orchestrator) (*pipeline.BatchReport, error)

func runBatch(ctx context.Context, configPath string, out io.Writer, fn batchFunc) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	o, err := a.buildOrchestrator(ctx)
	if err != nil {
		return err
	}

	report, runErr := fn(ctx, a, o)
	if report != nil {
		if err := printReport(out, report); err != nil {
			return err
		}
	}
	return runErr
}

func printReport(out io.Writer, report *pipeline.BatchReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if len(report.Drafted) > 0 {
		fmt.Fprintf(out, "drafted: %s\n", strings.Join(report.Drafted, ", "))
	}
	return nil
}

