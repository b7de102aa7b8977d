// traccarctl is a command-line client for the Traccar proxy API. The session is persisted
// in the store selected by SESSION_STORE; see internal/config for every setting.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"traccar-client/internal/cli"
	"traccar-client/internal/config"
	"traccar-client/internal/output"
)

func main() {
	format := flag.String("o", "json", "Output format: json or yaml")
	flag.Usage = func() {
		cli.Usage(flag.CommandLine.Output())
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	outFormat, err := output.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.Bootstrap(ctx, cfg, os.Stdout, os.Stderr, outFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup:", err)
		os.Exit(1)
	}

	runErr := app.Run(ctx, flag.Args())
	_ = app.Close(context.WithoutCancel(ctx))

	switch {
	case runErr == nil:
	case errors.Is(runErr, cli.ErrUsage):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
}
