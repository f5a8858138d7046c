package harness

import (
	"context"
	"io"
	"sync"

	"goa.design/clue/log"

	"github.com/viant/mcp-harness/bridge"
	"github.com/viant/mcp-harness/client"
	"github.com/viant/mcp-harness/report"
	"github.com/viant/mcp-harness/scenario"
	"github.com/viant/mcp-harness/service"
	"github.com/viant/mcp-harness/transport"
)

// Run executes one harness run and writes the report to w. The returned error is a
// *ConfigError when options are invalid and a *FatalError when the run was aborted;
// scenario failures are only reflected in the report.
func Run(ctx context.Context, options *Options, w io.Writer) (*report.Report, error) {
	options.Init()
	if err := options.Validate(); err != nil {
		return nil, err
	}
	scenarios, err := scenario.Select(scenario.Catalog(), options.Scenarios)
	if err != nil {
		return nil, &ConfigError{Problems: []string{err.Error()}}
	}
	var reportOptions []report.Option
	if !options.JSON {
		reportOptions = append(reportOptions, report.WithProgress(w))
	}
	aReport := report.New(reportOptions...)
	aRun := &run{options: options}
	aRun.transition(ctx, NotStarted)

	err = aRun.execute(ctx, scenarios, aReport)
	if err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "run aborted"})
		aReport.Abort(err)
	}
	aRun.teardown(ctx)

	if options.JSON {
		if printErr := aReport.PrintJSON(w); printErr != nil && err == nil {
			err = printErr
		}
	} else if printErr := aReport.Print(w); printErr != nil && err == nil {
		err = printErr
	}
	aRun.transition(ctx, Reported)
	return aReport, err
}

type run struct {
	options      *Options
	process      *bridge.Process
	teardownOnce sync.Once
}

func (r *run) execute(ctx context.Context, scenarios []*scenario.Scenario, aReport *report.Report) error {
	probe := service.New(r.options.ServiceURL, service.WithTimeout(r.options.ServiceTimeout))
	if err := probe.Health(ctx); err != nil {
		return &FatalError{Phase: PhaseService, Err: err}
	}
	r.transition(ctx, BackendChecked)

	process, err := bridge.New(bridge.WithOptions(&r.options.Bridge)).Start(ctx)
	if err != nil {
		return &FatalError{Phase: PhaseBridge, Err: err}
	}
	r.process = process
	defer r.teardown(ctx)
	r.transition(ctx, BridgeStarted)

	channel := transport.New(process.Stdin(), process.Stdout(), transport.WithListener(r.listener(ctx)))
	defer channel.Close()
	aClient := client.New(r.options.ClientName, r.options.ClientVersion, channel,
		client.WithTimeout(r.options.Timeout),
		client.WithStartupTimeout(r.options.StartupTimeout),
		client.WithProtocolVersion(r.options.ProtocolVersion))

	result, err := aClient.Initialize(ctx)
	if err != nil {
		return &FatalError{Phase: PhaseInitialize, Stderr: process.StderrTail(), Err: err}
	}
	log.Info(ctx, log.KV{K: "msg", V: "bridge initialized"}, log.KV{K: "server", V: result.ServerInfo.Name},
		log.KV{K: "version", V: result.ServerInfo.Version}, log.KV{K: "protocol", V: result.ProtocolVersion})
	if result.ProtocolVersion != r.options.ProtocolVersion {
		log.Warn(ctx, log.KV{K: "msg", V: "bridge negotiated a different protocol version"},
			log.KV{K: "requested", V: r.options.ProtocolVersion}, log.KV{K: "negotiated", V: result.ProtocolVersion})
	}
	r.transition(ctx, Initialized)

	r.transition(ctx, RunningScenarios)
	env := &scenario.Env{Client: aClient, Oracle: probe, KeepJobs: r.options.KeepJobs}
	runner := scenario.NewRunner(env, scenario.WithThrottle(r.options.Throttle))
	if err = runner.Run(ctx, scenarios, aReport); err != nil {
		return &FatalError{Phase: PhaseScenario, Stderr: process.StderrTail(), Err: err}
	}
	return nil
}

// teardown stops the bridge, if one was started. It runs once per run.
func (r *run) teardown(ctx context.Context) {
	r.teardownOnce.Do(func() {
		if r.process != nil {
			if err := r.process.Stop(); err != nil {
				log.Error(ctx, err, log.KV{K: "msg", V: "failed to stop bridge"})
			}
			if exitErr := r.process.ExitErr(); exitErr != nil {
				log.Debug(ctx, log.KV{K: "msg", V: "bridge exit"}, log.KV{K: "status", V: exitErr.Error()})
			}
		}
		r.transition(ctx, TornDown)
	})
}

// listener traces every line exchanged with the bridge.
func (r *run) listener(ctx context.Context) transport.Listener {
	return func(direction transport.Direction, line []byte) {
		if r.options.Debug {
			log.Debug(ctx, log.KV{K: "msg", V: "line"}, log.KV{K: "direction", V: string(direction)}, log.KV{K: "line", V: string(line)})
		}
		if r.options.onLine != nil {
			r.options.onLine(direction, line)
		}
	}
}

func (r *run) transition(ctx context.Context, state State) {
	log.Debug(ctx, log.KV{K: "msg", V: "state"}, log.KV{K: "state", V: state.String()})
	if r.options.onTransition != nil {
		r.options.onTransition(state)
	}
}
