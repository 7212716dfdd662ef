package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check that the server is up and report its storage backend.

With --wait the check is retried until the server answers or the duration
runs out, which is handy right after starting the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := checkHealth(wait)
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying for up to this long")

	return cmd
}

func checkHealth(wait time.Duration) (HealthResult, error) {
	const retryEvery = 250 * time.Millisecond

	deadline := time.Now().Add(wait)
	for {
		var result HealthResult
		err := client.Get("/api/v1/health", &result)
		if err == nil {
			return result, nil
		}
		if !time.Now().Add(retryEvery).Before(deadline) {
			if wait > 0 {
				return result, fmt.Errorf("server not healthy after %s: %w", wait, err)
			}
			return result, err
		}
		time.Sleep(retryEvery)
	}
}
