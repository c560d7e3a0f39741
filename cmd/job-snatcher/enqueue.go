// cmd/job-snatcher/enqueue.go
package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newEnqueueCommand(configPath *string) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "enqueue [url...]",
		Short: "Add posting URLs to the pending queue for the next scheduled batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if fromStdin {
				read, err := readURLs(cmd.InOrStdin())
				if err != nil {
					return err
				}
				urls = append(urls, read...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			depth, err := a.queue.Push(ctx, urls...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d url(s), %d pending\n", len(urls), depth)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read URLs from stdin, one per line")
	return cmd
}

// readURLs returns the non-empty, non-comment lines of r.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
