// Package cmd wires up the CLI flags and starts the server.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"iris/config"
	"iris/internal/core"
	"iris/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X iris/cmd.version=2.0.0"
var version = "0.3.0" //nolint:gochecknoglobals

// Execute parses args and runs the server until ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("iris", flag.ContinueOnError)

	// ── protocol ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.ServerName, "name", "n", cfg.ServerName, "Server name used as the reply prefix")
	fs.StringArrayVarP(&cfg.Channels, "channel", "c", cfg.Channels, "Create a channel at startup (repeatable)")
	fs.IntVar(&cfg.OutboxSize, "outbox", cfg.OutboxSize, "Outbound messages queued per client before senders wait")

	// ── operator surfaces ────────────────────────────────────────
	fs.StringVar(&cfg.MetricsAddress, "metrics", cfg.MetricsAddress, "Serve /healthz, /stats, /channels and /metrics on this address")
	noConsole := fs.Bool("no-console", !cfg.Console, "Do not read operator input from stdin")

	// ── output ───────────────────────────────────────────────────
	verbose := fs.CountP("verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("iris %s\n", version)
		return nil
	}

	cfg.Console = !*noConsole
	if *verbose > 0 {
		cfg.Verbose = config.DefaultVerbosity + *verbose
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── build ────────────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		printPlan(cfg)
		return nil
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional accepts [ip] [port].
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
	case 2:
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
		fallthrough
	case 1:
		if _, err := util.ParseIP(remaining[0]); err != nil {
			return fmt.Errorf("address: %w", err)
		}
		cfg.Address = remaining[0]
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}
	return nil
}

func printPlan(cfg *config.Config) {
	fmt.Printf("listen:   %s\n", cfg.ListenAddr())
	fmt.Printf("name:     %s\n", cfg.ServerName)
	if len(cfg.Channels) > 0 {
		fmt.Printf("channels: %s\n", strings.Join(cfg.Channels, ", "))
	}
	fmt.Printf("outbox:   %d\n", cfg.OutboxSize)
	if cfg.MetricsAddress != "" {
		fmt.Printf("admin:    http://%s\n", cfg.MetricsAddress)
	}
	fmt.Printf("console:  %v\n", cfg.Console)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `iris - a small IRC server v%s

Usage:
  iris [options] [ip] [port]        defaults: %s %d

Options:
`, version, config.DefaultAddress, config.DefaultPort)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  IRIS_ADDRESS IRIS_PORT IRIS_NAME IRIS_CHANNELS IRIS_OUTBOX
  IRIS_METRICS IRIS_NO_CONSOLE IRIS_VERBOSE    (flags take precedence)

Examples:
  iris                                        Serve on 127.0.0.1:6991
  iris 0.0.0.0 6667 -c '#general' -c '#ops'   Public, with two channels
  iris --metrics :9090 --no-console           Headless, with Prometheus
  echo '@alice restarting soon' | iris        Operator notice from stdin
`)
}
