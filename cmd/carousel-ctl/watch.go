package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/victorgvargas/carousel/internal/protocol"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Count int
}

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print state frames from the carouseld WebSocket feed",
		Long: `Connect to the carouseld state WebSocket and print every frame:
state_init on connect, then carousel_changed, swipe and tap as they happen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 0, "exit after this many frames (0 = until interrupted)")

	return cmd
}

func watch(ctx context.Context, w io.Writer, opts *WatchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	conn, _, err := d.DialContext(ctx, opts.WSURL, nil)
	if err != nil {
		return commandError(fmt.Errorf("connect to %s: %w", opts.WSURL, err))
	}
	defer conn.Close()

	// Unblock ReadMessage on interrupt.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for n := 0; opts.Count == 0 || n < opts.Count; n++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if err := printFrame(w, opts.Format, msg); err != nil {
			return err
		}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return nil
}

func printFrame(w io.Writer, format string, msg []byte) error {
	if format == "json" {
		_, err := fmt.Fprintf(w, "%s\n", msg)
		return err
	}

	var f protocol.RawFrame
	if err := json.Unmarshal(msg, &f); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	ts := "-"
	if f.Ts != nil {
		ts = f.Ts.Format("15:04:05.000")
	}

	switch f.Type {
	case protocol.FrameStateInit, protocol.FrameCarouselChanged:
		var s protocol.Snapshot
		if err := json.Unmarshal(f.Data, &s); err != nil {
			return fmt.Errorf("decode %s: %w", f.Type, err)
		}
		_, err := fmt.Fprintf(w, "%s %-16s active=%d desired=%d phase=%s %s\n",
			ts, f.Type, s.ActiveIndex, s.DesiredIndex, s.Phase, s.Translate)
		return err
	case protocol.FrameSwipe:
		var s protocol.SwipeData
		if err := json.Unmarshal(f.Data, &s); err != nil {
			return fmt.Errorf("decode swipe: %w", err)
		}
		_, err := fmt.Fprintf(w, "%s %-16s %s from (%g,%g) to (%g,%g) v=%.3f\n",
			ts, f.Type, s.Direction, s.Initial.X, s.Initial.Y, s.Position.X, s.Position.Y, s.Velocity)
		return err
	case protocol.FrameTap:
		var s protocol.TapData
		if err := json.Unmarshal(f.Data, &s); err != nil {
			return fmt.Errorf("decode tap: %w", err)
		}
		_, err := fmt.Fprintf(w, "%s %-16s at (%g,%g)\n", ts, f.Type, s.X, s.Y)
		return err
	default:
		_, err := fmt.Fprintf(w, "%s %-16s %s\n", ts, f.Type, f.Data)
		return err
	}
}
