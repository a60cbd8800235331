package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultSocketPath = "/tmp/carouseld.sock"
	defaultWSURL      = "ws://127.0.0.1:3001/ws/state"
)

// Exit codes.
const (
	exitFailure      = 1 // the daemon rejected the command
	exitCommandError = 2 // bad arguments or daemon unreachable
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Socket  string
	WSURL   string
	Timeout time.Duration
	Format  string // "text" | "json"
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the root command for carousel-ctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "carousel-ctl",
		Short: "Control a running carouseld",
		Long: `Control a running carouseld over its Unix socket, or watch its state feed.

Examples:
  carousel-ctl next
  carousel-ctl goto 2
  carousel-ctl state --format json
  carousel-ctl watch --count 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return commandError(fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Socket, "socket", defaultSocketPath, "carouseld IPC socket path")
	cmd.PersistentFlags().StringVar(&opts.WSURL, "ws", defaultWSURL, "carouseld state WebSocket URL")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Second, "IPC round-trip timeout")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewNextCommand(opts))
	cmd.AddCommand(NewPrevCommand(opts))
	cmd.AddCommand(NewGotoCommand(opts))
	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// cliError carries the process exit code for an error.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func commandError(err error) error { return &cliError{code: exitCommandError, err: err} }

func exitCode(err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitFailure
}
