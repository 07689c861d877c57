// Command tally runs a statistics daemon: a management HTTP API over an in-process store,
// a periodic reporter publishing snapshots to the log and optionally to Redis, and optional
// OpenTelemetry and Prometheus exposure.
//
// Usage:
//
//	tally serve [--config tally.yaml]
//	tally version
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/urfave/cli/v3"
)

// Build information, injected with -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := createApp(stdout, stderr).Run(ctx, args)
	if err != nil {
		fmt.Fprintf(stderr, "tally: %v\n", err)

		return 1
	}

	return 0
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "tally",
		Usage:     "in-process statistics accumulator daemon",
		Version:   versionString(),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the management API and the reporter until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "path to a YAML or JSON config file",
						Sources: cli.EnvVars("TALLY_CONFIG"),
					},
				},
				Action: serveAction,
			},
			{
				Name:  "version",
				Usage: "print build information",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintln(cmd.Root().Writer, "tally", versionString())

					return err
				},
			},
		},
	}
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, %s)", Version, GitCommit, runtime.Version())
}
