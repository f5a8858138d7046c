package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/viant/mcp-harness/report"
	"github.com/viant/mcp-harness/schema"
)

const (
	noJobs       = "service holds no jobs"
	pickPageSize = 100
)

func listJobs(ctx context.Context, env *Env) Result {
	expected, err := env.Oracle.ListJobs(ctx, 1, 10)
	if err != nil {
		return oracleError(err)
	}
	result, failed := callTool(ctx, env, schema.ToolListJobs, &schema.ListJobsArgs{Page: 1, Size: 10})
	if failed != nil {
		return *failed
	}
	page := &schema.JobPage{}
	if err = result.Decode(page); err != nil {
		return Fail("unexpected list_jobs payload: %v", err)
	}
	if len(page.Jobs) != len(expected.Jobs) {
		return Fail("bridge listed %d jobs, service listed %d", len(page.Jobs), len(expected.Jobs))
	}
	if page.Total != expected.Total {
		return Fail("bridge reported %d jobs in total, service reported %d", page.Total, expected.Total)
	}
	for i, job := range expected.Jobs {
		if page.Jobs[i].ID != job.IDString() || page.Jobs[i].Name != job.Name {
			return Fail("job %d: bridge returned %v/%q, service %v/%q", i, page.Jobs[i].ID, page.Jobs[i].Name, job.IDString(), job.Name)
		}
	}
	if expected.Empty() {
		return Pass("no jobs")
	}
	return Pass(fmt.Sprintf("%d jobs", len(page.Jobs)))
}

func getJob(ctx context.Context, env *Env) Result {
	job, err := env.Oracle.FirstJob(ctx)
	if err != nil {
		return oracleError(err)
	}
	if job == nil {
		return Skip(noJobs)
	}
	result, failed := callTool(ctx, env, schema.ToolGetJob, &schema.JobIDArgs{JobID: job.IDString()})
	if failed != nil {
		return *failed
	}
	actual := &schema.BridgeJob{}
	if err = result.Decode(actual); err != nil {
		return Fail("unexpected get_job payload: %v", err)
	}
	if actual.ID != job.IDString() {
		return Fail("bridge returned job %v, expected %v", actual.ID, job.IDString())
	}
	if actual.Name != job.Name {
		return Fail("bridge returned name %q, service holds %q", actual.Name, job.Name)
	}
	return Pass(job.Name)
}

func createJob(ctx context.Context, env *Env) (ret Result) {
	args := &schema.CreateJobArgs{
		Name:     "harness-" + uuid.New().String(),
		Command:  "echo 'Hello World'",
		CronExpr: "*/5 * * * * *",
		Mode:     "command",
		Desc:     "created by mcp-harness",
	}
	result, failed := callTool(ctx, env, schema.ToolCreateJob, args)
	if failed != nil {
		return *failed
	}
	created, err := env.Oracle.FindJobByName(ctx, args.Name)
	if err != nil {
		return oracleError(err)
	}
	if created == nil {
		return Fail("job %v is not visible in the service", args.Name)
	}
	if !env.KeepJobs {
		defer func() {
			ret = cleanup(ret, "cleanup", func() *Result {
				return deleteJob(ctx, env, created.IDString(), args.Name)
			})
		}()
	}
	if !strings.Contains(strings.ToLower(result.Text()), "success") {
		return Fail("create_job did not report success: %v", result.Text())
	}
	if created.Command != args.Command || created.CronExpr != args.CronExpr {
		return Fail("job %v stored as %q/%q", args.Name, created.Command, created.CronExpr)
	}
	if env.KeepJobs {
		return Pass(fmt.Sprintf("created job %v (kept)", created.IDString()))
	}
	return Pass(fmt.Sprintf("created job %v", created.IDString()))
}

// deleteJob removes a job through the bridge and checks the service no longer holds it.
func deleteJob(ctx context.Context, env *Env, id, name string) *Result {
	if _, failed := callTool(ctx, env, schema.ToolDeleteJob, &schema.JobIDArgs{JobID: id}); failed != nil {
		return failed
	}
	remaining, err := env.Oracle.FindJobByName(ctx, name)
	if err != nil {
		ret := oracleError(err)
		return &ret
	}
	if remaining != nil {
		ret := Fail("job %v is still present after delete_job", id)
		return &ret
	}
	return nil
}

func stopStartJob(ctx context.Context, env *Env) (ret Result) {
	job, err := pickJob(ctx, env)
	if err != nil {
		return oracleError(err)
	}
	if job == nil {
		return Skip(noJobs)
	}
	defer func() {
		ret = cleanup(ret, "restore", func() *Result {
			return restoreState(ctx, env, job)
		})
	}()
	args := &schema.JobIDArgs{JobID: job.IDString()}
	if _, failed := callTool(ctx, env, schema.ToolStopJob, args); failed != nil {
		return *failed
	}
	if result := expectState(ctx, env, job.IDString(), schema.ToolStopJob); result != nil {
		return *result
	}
	if _, failed := callTool(ctx, env, schema.ToolStartJob, args); failed != nil {
		return *failed
	}
	if result := expectState(ctx, env, job.IDString(), schema.ToolStartJob); result != nil {
		return *result
	}
	return Pass(job.Name)
}

// pickJob returns the first job that is not stopped, or the first job when all are stopped.
// start_job schedules a stopped job, so a stopped one is only used when nothing else exists.
func pickJob(ctx context.Context, env *Env) (*schema.Job, error) {
	list, err := env.Oracle.ListJobs(ctx, 1, pickPageSize)
	if err != nil {
		return nil, err
	}
	if list.Empty() {
		return nil, nil
	}
	for i := range list.Jobs {
		if list.Jobs[i].State != schema.JobStopped {
			return &list.Jobs[i], nil
		}
	}
	return &list.Jobs[0], nil
}

// restoreState puts a job back into the stopped or scheduled state it had before the scenario.
func restoreState(ctx context.Context, env *Env, original *schema.Job) *Result {
	current, err := env.Oracle.Job(ctx, original.IDString())
	if err != nil {
		ret := oracleError(err)
		return &ret
	}
	wasStopped := original.State == schema.JobStopped
	if (current.State == schema.JobStopped) == wasStopped {
		return nil
	}
	tool := schema.ToolStartJob
	if wasStopped {
		tool = schema.ToolStopJob
	}
	if _, failed := callTool(ctx, env, tool, &schema.JobIDArgs{JobID: original.IDString()}); failed != nil {
		return failed
	}
	return nil
}

// cleanup runs undo once a scenario has changed service state and folds an undo failure into ret.
// Nothing is undone after a fatal result; the bridge is gone.
func cleanup(ret Result, step string, undo func() *Result) Result {
	if ret.Fatal() {
		return ret
	}
	failed := undo()
	if failed == nil {
		return ret
	}
	detail := step + ": " + failed.Detail
	if ret.Outcome != report.Pass {
		detail = ret.Detail + "; " + detail
	}
	if ret.Outcome == report.Pass || failed.Fatal() {
		failed.Detail = detail
		return *failed
	}
	ret.Detail = detail
	return ret
}

// expectState checks the service state of a job after a stop_job or start_job call.
func expectState(ctx context.Context, env *Env, id string, tool string) *Result {
	stopped := tool == schema.ToolStopJob
	job, err := env.Oracle.Job(ctx, id)
	if err != nil {
		ret := oracleError(err)
		return &ret
	}
	if (job.State == schema.JobStopped) != stopped {
		ret := Fail("job %v is %v in the service after %v", id, schema.Status(job.State), tool)
		return &ret
	}
	return nil
}
