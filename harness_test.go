package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mcp-harness/bridge"
	"github.com/viant/mcp-harness/internal/fakebridge"
	"github.com/viant/mcp-harness/internal/fakeservice"
	"github.com/viant/mcp-harness/report"
	"github.com/viant/mcp-harness/schema"
	"github.com/viant/mcp-harness/transport"
)

// TestHelperProcess runs the fake bridge when the test binary is re-executed as the bridge under test.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	config := fakebridge.Config{}
	if err := json.Unmarshal([]byte(os.Getenv("FAKE_BRIDGE_CONFIG")), &config); err != nil {
		os.Exit(2)
	}
	if err := fakebridge.Serve(context.Background(), os.Stdin, os.Stdout, config); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

type recorder struct {
	states []State
	lines  []transport.Direction
}

func newOptions(t *testing.T, serviceURL string, config fakebridge.Config, aRecorder *recorder) *Options {
	t.Helper()
	config.ServiceURL = serviceURL
	encoded, err := json.Marshal(config)
	require.NoError(t, err)
	return &Options{
		ServiceURL: serviceURL,
		Bridge: bridge.Options{
			Command: os.Args[0],
			Args:    []string{"-test.run=TestHelperProcess", "--"},
			Env:     []string{"GO_WANT_HELPER_PROCESS=1", "FAKE_BRIDGE_CONFIG=" + string(encoded)},
		},
		NoThrottle:   true,
		onTransition: func(state State) { aRecorder.states = append(aRecorder.states, state) },
		onLine: func(direction transport.Direction, line []byte) {
			aRecorder.lines = append(aRecorder.lines, direction)
		},
	}
}

func (r *recorder) count(state State) int {
	ret := 0
	for _, candidate := range r.states {
		if candidate == state {
			ret++
		}
	}
	return ret
}

func TestRun(t *testing.T) {
	srv := fakeservice.New(schema.Job{Name: "backup", Mode: "command", Command: "echo backup"})
	defer srv.Close()
	aRecorder := &recorder{}
	output := &bytes.Buffer{}

	aReport, err := Run(context.Background(), newOptions(t, srv.URL, fakebridge.Config{}, aRecorder), output)
	require.NoError(t, err)
	assert.Equal(t, report.ExitOK, ExitCode(aReport, err), output.String())
	assert.Equal(t, []State{NotStarted, BackendChecked, BridgeStarted, Initialized, RunningScenarios, TornDown, Reported}, aRecorder.states)
	assert.Contains(t, output.String(), "passed 14/14")

	require.NotEmpty(t, aRecorder.lines)
	for i, direction := range aRecorder.lines {
		expect := transport.Outbound
		if i%2 == 1 {
			expect = transport.Inbound
		}
		require.Equal(t, expect, direction, "line %d: one request in flight at a time", i)
	}
}

func TestRun_Aborted(t *testing.T) {
	var testCases = []struct {
		description  string
		config       fakebridge.Config
		serviceDown  bool
		expectPhase  string
		expectStates []State
		expectRun    []string
	}{
		{
			description:  "service down",
			serviceDown:  true,
			expectPhase:  PhaseService,
			expectStates: []State{NotStarted, TornDown, Reported},
		},
		{
			description:  "initialize fails",
			config:       fakebridge.Config{FailInitialize: true},
			expectPhase:  PhaseInitialize,
			expectStates: []State{NotStarted, BackendChecked, BridgeStarted, TornDown, Reported},
		},
		{
			description:  "bridge exits mid run",
			config:       fakebridge.Config{ExitOn: map[string]bool{schema.ToolListJobs: true}},
			expectPhase:  PhaseScenario,
			expectStates: []State{NotStarted, BackendChecked, BridgeStarted, Initialized, RunningScenarios, TornDown, Reported},
			expectRun:    []string{"tools_list", "list_jobs"},
		},
	}

	for _, testCase := range testCases {
		srv := fakeservice.New()
		aRecorder := &recorder{}
		options := newOptions(t, srv.URL, testCase.config, aRecorder)
		if testCase.serviceDown {
			srv.SetHealthy(false)
			options.Bridge.Command = "/nonexistent/xiaohu-mcp-stdio"
		}
		output := &bytes.Buffer{}
		aReport, err := Run(context.Background(), options, output)
		srv.Close()

		var fatalErr *FatalError
		require.ErrorAs(t, err, &fatalErr, testCase.description)
		assert.Equal(t, testCase.expectPhase, fatalErr.Phase, testCase.description)
		assert.Equal(t, testCase.expectStates, aRecorder.states, testCase.description)
		assert.Equal(t, 1, aRecorder.count(TornDown), testCase.description)
		assert.Equal(t, report.ExitAborted, ExitCode(aReport, err), testCase.description)

		var names []string
		for _, entry := range aReport.Entries() {
			names = append(names, entry.Name)
		}
		assert.Equal(t, testCase.expectRun, names, testCase.description)
		assert.Contains(t, output.String(), "ABORTED", testCase.description)
	}
}

func TestRun_ScenarioFailure(t *testing.T) {
	srv := fakeservice.New()
	defer srv.Close()
	aRecorder := &recorder{}
	options := newOptions(t, srv.URL, fakebridge.Config{NoPrompts: true}, aRecorder)
	options.Scenarios = []string{"resource_health", "prompt_system_health_report"}

	aReport, err := Run(context.Background(), options, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, report.ExitFailures, ExitCode(aReport, err))
	assert.Equal(t, report.Summary{Total: 2, Passed: 1, Failed: 1}, aReport.Summary())
	assert.Equal(t, 1, aRecorder.count(TornDown))
}

func TestRun_JSON(t *testing.T) {
	srv := fakeservice.New()
	defer srv.Close()
	options := newOptions(t, srv.URL, fakebridge.Config{}, &recorder{})
	options.Scenarios = []string{"list_jobs", "get_job"}
	options.JSON = true
	output := &bytes.Buffer{}

	_, err := Run(context.Background(), options, output)
	require.NoError(t, err)
	document := struct {
		Scenarios []report.Entry `json:"scenarios"`
		Summary   report.Summary `json:"summary"`
	}{}
	require.NoError(t, json.Unmarshal(output.Bytes(), &document), output.String())
	require.Len(t, document.Scenarios, 2)
	assert.Equal(t, report.Pass, document.Scenarios[0].Outcome, "zero jobs listed is a pass")
	assert.Equal(t, report.Skip, document.Scenarios[1].Outcome, "no job to fetch is a skip")
	assert.Equal(t, 1, document.Summary.Skipped)
}

func TestRun_ConfigError(t *testing.T) {
	options := &Options{Scenarios: []string{"bogus"}}
	aReport, err := Run(context.Background(), options, &bytes.Buffer{})
	assert.Nil(t, aReport)
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, report.ExitConfigError, ExitCode(aReport, err))
}
