package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"
	"goa.design/clue/log"

	harness "github.com/viant/mcp-harness"
	"github.com/viant/mcp-harness/report"
	"github.com/viant/mcp-harness/scenario"
)

// Run parses args, executes the harness and returns the process exit code.
func Run(args []string) int {
	options := &harness.Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return report.ExitOK
		}
		return report.ExitConfigError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logContext(ctx, options.Debug)

	if err := options.Load(ctx); err != nil {
		log.Error(ctx, err)
		return harness.ExitCode(nil, err)
	}
	if options.List {
		if err := list(os.Stdout); err != nil {
			log.Error(ctx, err)
		}
		return report.ExitOK
	}
	aReport, err := harness.Run(ctx, options, os.Stdout)
	if err != nil {
		log.Error(ctx, err)
	}
	return harness.ExitCode(aReport, err)
}

func logContext(ctx context.Context, debug bool) context.Context {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx = log.Context(ctx, log.WithFormat(format), log.WithOutput(os.Stderr))
	if debug {
		ctx = log.Context(ctx, log.WithDebug())
	}
	return ctx
}

func list(w io.Writer) error {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, aScenario := range scenario.Catalog() {
		if _, err := fmt.Fprintf(writer, "%v\t%v\n", aScenario.Name, aScenario.Description); err != nil {
			return err
		}
	}
	return writer.Flush()
}
