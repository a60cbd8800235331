package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const version = "0.3.0"

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "carouseld v%s\n", version)
	fmt.Fprintln(w, "Touch carousel daemon: swipe gestures in, carousel state out")
}

func printUsage() {
	w := os.Stdout
	printVersion(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  carouseld [OPTIONS]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "DESCRIPTION:")
	fmt.Fprintln(w, "  Reads touchscreen and mouse events from Linux input devices, recognizes")
	fmt.Fprintln(w, "  swipes and drives an auto-advancing carousel. State is published over a")
	fmt.Fprintln(w, "  WebSocket feed and can be controlled through a Unix socket or the HTTP")
	fmt.Fprintln(w, "  endpoints /api/command and /api/state on the WebSocket listen address.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -config string")
	fmt.Fprintln(w, "        Path to a YAML (.yaml/.yml) or TOML (.toml) config file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -pages int")
	fmt.Fprintf(w, "        Number of carousel pages (default %d)\n", defaultPages)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -auto-advance-ms int")
	fmt.Fprintf(w, "        Auto-advance interval in ms (default %d)\n", defaultAutoAdvanceMS)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -threshold-px float")
	fmt.Fprintf(w, "        Swipe distance threshold in px (default %.0f)\n", defaultThresholdPx)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -input-device string")
	fmt.Fprintln(w, "        Comma separated Linux input event devices (default \"/dev/input/event0\")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -ipc-socket string")
	fmt.Fprintf(w, "        Unix domain socket path for IPC (default %q)\n", defaultSocketPath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -ws-listen string")
	fmt.Fprintf(w, "        State WebSocket listen address, empty disables (default %q)\n", defaultWSListen)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -track-mouse")
	fmt.Fprintln(w, "        Also recognize mouse drags")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -log-level string")
	fmt.Fprintln(w, "        Log level: error, warn, info, debug (default \"info\")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -log-format string")
	fmt.Fprintln(w, "        Log format: text or json (default \"text\")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -version")
	fmt.Fprintln(w, "        Print version and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -help")
	fmt.Fprintln(w, "        Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  carouseld -input-device /dev/input/event3 -pages 5")
	fmt.Fprintln(w, "  carouseld -config ~/.config/carouseld.toml -log-level debug")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "NOTES:")
	fmt.Fprintln(w, "  - Requires read access to the input devices (run as root or add user to 'input' group)")
	fmt.Fprintln(w, "  - Control it with carousel-ctl")
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath    = flag.String("config", "", "Path to a YAML or TOML config file")
		pages         = flag.Int("pages", defaultPages, "Number of carousel pages")
		autoAdvanceMS = flag.Int("auto-advance-ms", defaultAutoAdvanceMS, "Auto-advance interval in ms")
		thresholdPx   = flag.Float64("threshold-px", defaultThresholdPx, "Swipe distance threshold in px")
		inputDevices  = flag.String("input-device", "/dev/input/event0", "Comma separated Linux input event devices")
		inputReader   = flag.String("input-reader", "epoll", "Input reader: epoll|select|goroutine")
		ipcSocketPath = flag.String("ipc-socket", defaultSocketPath, "Unix domain socket path for IPC")
		wsListen      = flag.String("ws-listen", defaultWSListen, "State WebSocket listen address (empty disables)")
		trackMouse    = flag.Bool("track-mouse", false, "Also recognize mouse drags")
		logLevelStr   = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		logFormat     = flag.String("log-format", "text", "Log format: text or json")
		showVersion   = flag.Bool("version", false, "Print version and exit")
		showHelp      = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return 0
	}
	if *showVersion {
		printVersion(os.Stdout)
		return 0
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var ov FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pages":
			ov.Pages = pages
		case "auto-advance-ms":
			ov.AutoAdvanceMS = autoAdvanceMS
		case "threshold-px":
			ov.ThresholdPx = thresholdPx
		case "input-device":
			ov.InputDevices = inputDevices
		case "input-reader":
			ov.InputReader = inputReader
		case "ipc-socket":
			ov.IPCSocketPath = ipcSocketPath
		case "ws-listen":
			ov.WSListen = wsListen
		case "track-mouse":
			ov.TrackMouse = trackMouse
		case "log-level":
			ov.LogLevel = logLevelStr
		case "log-format":
			ov.LogFormat = logFormat
		}
	})
	ov.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logger := newLogger(logLevel, cfg.Logging.Format, os.Stderr)

	// Open input devices
	files := make([]*os.File, 0, len(cfg.Input.Devices))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, dev := range cfg.Input.Devices {
		f, err := os.Open(ExpandPath(dev))
		if err != nil {
			logger.Error("failed to open input device", "device", dev, "error", err, "tip", "run as root or add user to 'input' group")
			return 1
		}
		files = append(files, f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan Event, eventQueueSize)
	broadcasts := make(chan StateBroadcast, cfg.StateWS.BroadcastBuf)

	sched := loopScheduler{events: events, done: ctx.Done()}
	d, err := newDaemon(cfg, sched, broadcasts, logger)
	if err != nil {
		logger.Error("failed to start carousel", "error", err)
		return 1
	}

	var wg sync.WaitGroup
	goFn := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Error(name+" failed", "error", err)
				stop()
			}
		}()
	}

	goFn("IPC server", func() error {
		return runIPCServer(ctx, ExpandPath(cfg.IPC.SocketPath), events, logger)
	})

	if cfg.StateWS.Listen != "" {
		srv := newStateServer(logger, events, FeedConfig{
			SendBuf:  cfg.StateWS.SendBuf,
			FrameBuf: cfg.StateWS.BroadcastBuf,
		})
		mux := http.NewServeMux()
		srv.Register(mux, cfg.StateWS.Path)
		registerControl(ctx, mux, events, ipcReplyTimeout, logger)

		goFn("state feed", func() error { srv.Feed().Run(ctx); return nil })
		goFn("ws broadcaster", func() error {
			window := time.Duration(cfg.StateWS.DragCoalesceMS) * time.Millisecond
			RunBroadcaster(ctx, srv.Feed(), broadcasts, window, logger)
			return nil
		})
		goFn("http server", func() error {
			return runHTTPServer(ctx, cfg.StateWS.Listen, mux, logger)
		})
	}

	// Raw input is forwarded onto the event queue so the daemon goroutine
	// stays the only consumer.
	raw := make(chan deviceEvent, eventQueueSize)
	readErr := make(chan error, len(files))
	startInputReaders(cfg.Input.Reader, files, raw, readErr)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-raw:
				select {
				case events <- InputEvent(ev):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	logger.Debug("configuration", cfg.LogFields()...)
	logger.Info("starting carouseld", "version", version, "devices", len(files), "ipc", cfg.IPC.SocketPath, "ws", cfg.StateWS.Listen)

	runErr := d.run(ctx, events, readErr)
	stop()

	// Unblock readers stuck in read(2).
	for _, f := range files {
		f.Close()
	}
	wg.Wait()

	if runErr != nil {
		logger.Error("daemon stopped", "error", runErr)
		return 1
	}
	logger.Info("shut down")
	return 0
}
