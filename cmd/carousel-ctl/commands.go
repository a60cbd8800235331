package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/victorgvargas/carousel/internal/protocol"
)

func NewNextCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Advance to the next page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(cmd, opts, protocol.Next{})
		},
	}
}

func NewPrevCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prev",
		Short: "Go back to the previous page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(cmd, opts, protocol.Prev{})
		},
	}
}

func NewGotoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <index>",
		Short: "Jump to a page (0-based)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return commandError(fmt.Errorf("invalid page index %q", args[0]))
			}
			return sendAndPrint(cmd, opts, protocol.Navigate{Index: idx})
		},
	}
}

func NewStateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the current carousel state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(cmd, opts, protocol.StateRequest{})
		},
	}
}

func sendAndPrint(cmd *cobra.Command, opts *RootOptions, c protocol.Command) error {
	resp, err := protocol.Send(opts.Socket, c, opts.Timeout)
	if err != nil {
		if errors.Is(err, protocol.ErrRemote) {
			return err
		}
		return commandError(err)
	}
	if resp.State == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	}
	return printSnapshot(cmd.OutOrStdout(), opts.Format, *resp.State)
}

func printSnapshot(w io.Writer, format string, s protocol.Snapshot) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintf(w, "page %d/%d (%s)\n", s.ActiveIndex+1, s.PageCount, s.Phase)
	switch s.Phase {
	case "transitioning":
		fmt.Fprintf(w, "  moving to page %d/%d\n", s.DesiredIndex+1, s.PageCount)
	case "dragging":
		if s.DragOffset != nil {
			fmt.Fprintf(w, "  drag offset %gpx\n", *s.DragOffset)
		}
	}
	fmt.Fprintf(w, "  transform: %s\n", s.Translate)
	return nil
}
