package scenario

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mcp-harness/client"
	"github.com/viant/mcp-harness/internal/fakebridge"
	"github.com/viant/mcp-harness/internal/fakeservice"
	"github.com/viant/mcp-harness/report"
	"github.com/viant/mcp-harness/schema"
	"github.com/viant/mcp-harness/service"
	"github.com/viant/mcp-harness/transport"
)

// newEnv wires an initialized client to an in-process fake bridge backed by srv.
func newEnv(t *testing.T, srv *fakeservice.Service, config fakebridge.Config, options ...client.Option) *Env {
	t.Helper()
	config.ServiceURL = srv.URL
	inReader, inWriter := io.Pipe()
	outReader, outWriter := io.Pipe()
	go func() {
		_ = fakebridge.Serve(context.Background(), inReader, outWriter, config)
		_ = outWriter.Close()
		_ = inReader.Close()
	}()
	channel := transport.New(inWriter, outReader)
	t.Cleanup(func() {
		_ = inWriter.Close()
		channel.Close()
	})
	aClient := client.New("test-client", "1.0.0", channel, options...)
	_, err := aClient.Initialize(context.Background())
	require.NoError(t, err)
	return &Env{Client: aClient, Oracle: service.New(srv.URL)}
}

func run(t *testing.T, env *Env, scenarios []*Scenario) (*report.Report, error) {
	t.Helper()
	aReport := report.New()
	err := NewRunner(env, WithThrottle(0)).Run(context.Background(), scenarios, aReport)
	return aReport, err
}

func outcomes(aReport *report.Report) map[string]report.Outcome {
	ret := map[string]report.Outcome{}
	for _, entry := range aReport.Entries() {
		ret[entry.Name] = entry.Outcome
	}
	return ret
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []string{
		"tools_list", "list_jobs", "get_job", "create_job", "stop_start_job",
		"get_scheduler_status", "get_job_functions", "get_jobs_config", "get_ip_control_status", "get_system_logs",
		"resource_health", "resource_jobs_overview", "resource_config", "prompt_system_health_report",
	}, Names(Catalog()))
}

func TestSelect(t *testing.T) {
	var testCases = []struct {
		description   string
		names         []string
		expect        []string
		expectUnknown []string
	}{
		{description: "all", expect: Names(Catalog())},
		{description: "catalog order kept", names: []string{"resource_health", "tools_list"}, expect: []string{"tools_list", "resource_health"}},
		{description: "unknown", names: []string{"tools_list", "bogus", "nope"}, expectUnknown: []string{"bogus", "nope"}},
	}
	for _, testCase := range testCases {
		selected, err := Select(Catalog(), testCase.names)
		if len(testCase.expectUnknown) > 0 {
			var unknownErr *UnknownScenarioError
			require.ErrorAs(t, err, &unknownErr, testCase.description)
			assert.Equal(t, testCase.expectUnknown, unknownErr.Names, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, Names(selected), testCase.description)
	}
}

func TestCatalog_Run(t *testing.T) {
	var testCases = []struct {
		description string
		jobs        []schema.Job
		expectSkip  []string
	}{
		{description: "no jobs", expectSkip: []string{"get_job", "stop_start_job"}},
		{description: "with jobs", jobs: []schema.Job{
			{Name: "backup", Mode: "command", Command: "echo backup", CronExpr: "0 0 * * * *"},
			{Name: "报表", Mode: "http", Command: "http://localhost/report", CronExpr: "0 */5 * * * *", State: schema.JobStopped},
		}},
	}
	for _, testCase := range testCases {
		srv := fakeservice.New(testCase.jobs...)
		env := newEnv(t, srv, fakebridge.Config{})
		aReport, err := run(t, env, Catalog())
		require.NoError(t, err, testCase.description)

		skipped := map[string]bool{}
		for _, name := range testCase.expectSkip {
			skipped[name] = true
		}
		for _, entry := range aReport.Entries() {
			expect := report.Pass
			if skipped[entry.Name] {
				expect = report.Skip
			}
			assert.Equal(t, expect, entry.Outcome, "%v: %v %v", testCase.description, entry.Name, entry.Detail)
		}
		assert.Len(t, aReport.Entries(), len(Catalog()), testCase.description)
		assert.Equal(t, report.ExitOK, aReport.ExitCode(), testCase.description)
		assert.Len(t, srv.Jobs(), len(testCase.jobs), "%v: created job is cleaned up", testCase.description)
		for i, job := range srv.Jobs() {
			assert.Equal(t, testCase.jobs[i].State, job.State, "%v: job state is restored", testCase.description)
		}
		srv.Close()
	}
}

func TestCreateJob_KeepJobs(t *testing.T) {
	srv := fakeservice.New()
	defer srv.Close()
	env := newEnv(t, srv, fakebridge.Config{})
	env.KeepJobs = true

	result := createJob(context.Background(), env)
	assert.Equal(t, report.Pass, result.Outcome, result.Detail)
	jobs := srv.Jobs()
	require.Len(t, jobs, 1)
	assert.Contains(t, jobs[0].Name, "harness-")
}

func TestCreateJob_CleanupOnFailure(t *testing.T) {
	var testCases = []struct {
		description  string
		config       fakebridge.Config
		cron         string
		expectDetail []string
		expectJobs   int
	}{
		{
			description:  "stored job differs",
			cron:         "0 */5 * * * *",
			expectDetail: []string{"stored as"},
		},
		{
			description:  "create_job without success text",
			config:       fakebridge.Config{ToolText: map[string]string{schema.ToolCreateJob: "done"}},
			expectDetail: []string{"did not report success"},
		},
		{
			description:  "delete fails",
			config:       fakebridge.Config{ToolErrors: map[string]string{schema.ToolDeleteJob: "API error: locked"}},
			expectDetail: []string{"cleanup:", "locked"},
			expectJobs:   1,
		},
		{
			description:  "stored job differs and delete fails",
			config:       fakebridge.Config{ToolErrors: map[string]string{schema.ToolDeleteJob: "API error: locked"}},
			cron:         "0 */5 * * * *",
			expectDetail: []string{"stored as", "cleanup:", "locked"},
			expectJobs:   1,
		},
	}
	for _, testCase := range testCases {
		srv := fakeservice.New()
		env := newEnv(t, srv, testCase.config)
		if testCase.cron != "" {
			env.Oracle = &normalizingOracle{Oracle: env.Oracle, cron: testCase.cron}
		}

		result := createJob(context.Background(), env)
		assert.Equal(t, report.Fail, result.Outcome, testCase.description)
		for _, fragment := range testCase.expectDetail {
			assert.Contains(t, result.Detail, fragment, testCase.description)
		}
		assert.Len(t, srv.Jobs(), testCase.expectJobs, testCase.description)
		srv.Close()
	}
}

func TestStopStartJob(t *testing.T) {
	waiting := schema.Job{Name: "backup", Mode: "command", CronExpr: "0 0 * * * *"}
	stopped := schema.Job{Name: "报表", Mode: "http", CronExpr: "0 */5 * * * *", State: schema.JobStopped}

	var testCases = []struct {
		description   string
		jobs          []schema.Job
		staleChecks   int
		expectOutcome report.Outcome
		expectDetail  string
	}{
		{description: "scheduled job preferred over a stopped one", jobs: []schema.Job{stopped, waiting}, expectOutcome: report.Pass, expectDetail: "backup"},
		{description: "only stopped jobs", jobs: []schema.Job{stopped}, expectOutcome: report.Pass, expectDetail: "报表"},
		{description: "state check after stop fails", jobs: []schema.Job{waiting}, staleChecks: 1, expectOutcome: report.Fail, expectDetail: "after stop_job"},
	}
	for _, testCase := range testCases {
		srv := fakeservice.New(testCase.jobs...)
		env := newEnv(t, srv, fakebridge.Config{})
		env.Oracle = &staleOracle{Oracle: env.Oracle, stale: testCase.staleChecks}

		result := stopStartJob(context.Background(), env)
		assert.Equal(t, testCase.expectOutcome, result.Outcome, "%v: %v", testCase.description, result.Detail)
		assert.Contains(t, result.Detail, testCase.expectDetail, testCase.description)
		for i, job := range srv.Jobs() {
			assert.Equal(t, testCase.jobs[i].State, job.State, "%v: %v state", testCase.description, job.Name)
		}
		srv.Close()
	}
}

func TestRunner_BridgeFaults(t *testing.T) {
	srv := fakeservice.New(schema.Job{Name: "backup", Mode: "command"})
	defer srv.Close()
	env := newEnv(t, srv, fakebridge.Config{
		HiddenTools: []string{schema.ToolJobFunctions},
		ToolErrors:  map[string]string{schema.ToolJobsConfig: "API error: config unavailable"},
		NoPrompts:   true,
		Delay:       map[string]time.Duration{schema.ToolSchedulerStatus: time.Second},
	}, client.WithTimeout(300*time.Millisecond))

	aReport, err := run(t, env, Catalog())
	require.NoError(t, err, "faults are scenario scoped")
	actual := outcomes(aReport)
	assert.Equal(t, report.Fail, actual["tools_list"])
	assert.Equal(t, report.Error, actual["get_scheduler_status"], "timeout")
	assert.Equal(t, report.Fail, actual["get_job_functions"], "application error after discarding the late response")
	assert.Equal(t, report.Fail, actual["get_jobs_config"], "tool error")
	assert.Equal(t, report.Pass, actual["get_ip_control_status"])
	assert.Equal(t, report.Fail, actual["prompt_system_health_report"])
	assert.Equal(t, report.Pass, actual["resource_health"])
	assert.Equal(t, report.ExitFailures, aReport.ExitCode())
}

func TestRunner_Abort(t *testing.T) {
	srv := fakeservice.New()
	defer srv.Close()
	env := newEnv(t, srv, fakebridge.Config{Garbage: map[string]bool{schema.ToolListJobs: true}})

	aReport, err := run(t, env, Catalog())
	var abortErr *AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Equal(t, "list_jobs", abortErr.Scenario)
	var parseErr *client.ParseError
	assert.ErrorAs(t, err, &parseErr)

	assert.Equal(t, []string{"tools_list", "list_jobs"}, entryNames(aReport), "no scenario runs after a fatal error")
	assert.Equal(t, report.ExitAborted, aReport.ExitCode())
}

func TestRunner_Panic(t *testing.T) {
	scenarios := []*Scenario{
		{Name: "boom", Exec: func(ctx context.Context, env *Env) Result { panic("boom") }},
		{Name: "after", Exec: func(ctx context.Context, env *Env) Result { return Pass() }},
	}
	aReport, err := run(t, &Env{}, scenarios)
	require.NoError(t, err)
	actual := outcomes(aReport)
	assert.Equal(t, report.Error, actual["boom"])
	assert.Equal(t, report.Pass, actual["after"])
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scenarios := []*Scenario{
		{Name: "first", Exec: func(ctx context.Context, env *Env) Result { cancel(); return Pass() }},
		{Name: "second", Exec: func(ctx context.Context, env *Env) Result { return Pass() }},
	}
	aReport := report.New()
	err := NewRunner(&Env{}, WithThrottle(time.Second)).Run(ctx, scenarios, aReport)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, entryNames(aReport))
}

func TestOracleDisagreement(t *testing.T) {
	srv := fakeservice.New(schema.Job{Name: "backup"})
	defer srv.Close()
	env := newEnv(t, srv, fakebridge.Config{})
	env.Oracle = &skewedOracle{Oracle: env.Oracle, extra: 1}

	var testCases = []struct {
		description string
		exec        func(ctx context.Context, env *Env) Result
	}{
		{description: "list_jobs total", exec: listJobs},
		{description: "overview total", exec: jobsOverview},
	}
	for _, testCase := range testCases {
		result := testCase.exec(context.Background(), env)
		assert.Equal(t, report.Fail, result.Outcome, testCase.description)
	}

	env.Oracle = &skewedOracle{Oracle: env.Oracle, err: errors.New("connection refused")}
	result := getJob(context.Background(), env)
	assert.Equal(t, report.Error, result.Outcome)
	assert.Contains(t, result.Detail, "oracle")
}

type skewedOracle struct {
	Oracle
	extra int64
	err   error
}

func (o *skewedOracle) ListJobs(ctx context.Context, page, size int) (*service.JobList, error) {
	list, err := o.Oracle.ListJobs(ctx, page, size)
	if err != nil {
		return nil, err
	}
	list.Total += o.extra
	return list, nil
}

func (o *skewedOracle) CountJobs(ctx context.Context) (int64, error) {
	count, err := o.Oracle.CountJobs(ctx)
	return count + o.extra, err
}

func (o *skewedOracle) FirstJob(ctx context.Context) (*schema.Job, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.Oracle.FirstJob(ctx)
}

// normalizingOracle reports created jobs with a rewritten cron expression.
type normalizingOracle struct {
	Oracle
	cron string
}

func (o *normalizingOracle) FindJobByName(ctx context.Context, name string) (*schema.Job, error) {
	job, err := o.Oracle.FindJobByName(ctx, name)
	if job != nil {
		job.CronExpr = o.cron
	}
	return job, err
}

// staleOracle reports the first stale job reads as scheduled.
type staleOracle struct {
	Oracle
	stale int
}

func (o *staleOracle) Job(ctx context.Context, id string) (*schema.Job, error) {
	job, err := o.Oracle.Job(ctx, id)
	if err == nil && o.stale > 0 {
		o.stale--
		job.State = schema.JobWaiting
	}
	return job, err
}

func entryNames(aReport *report.Report) []string {
	var ret []string
	for _, entry := range aReport.Entries() {
		ret = append(ret, entry.Name)
	}
	return ret
}
