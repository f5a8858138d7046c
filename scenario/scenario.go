package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/mcp-harness/client"
	"github.com/viant/mcp-harness/report"
	"github.com/viant/mcp-harness/schema"
	"github.com/viant/mcp-harness/service"
)

type (
	// Scenario is one named conformance check.
	Scenario struct {
		Name        string
		Description string
		Exec        func(ctx context.Context, env *Env) Result
	}

	// Oracle supplies ground truth read directly from the service.
	Oracle interface {
		ListJobs(ctx context.Context, page, size int) (*service.JobList, error)
		Job(ctx context.Context, id string) (*schema.Job, error)
		FirstJob(ctx context.Context) (*schema.Job, error)
		FindJobByName(ctx context.Context, name string) (*schema.Job, error)
		CountJobs(ctx context.Context) (int64, error)
	}

	// Env is what a scenario runs against.
	Env struct {
		Client   client.Interface
		Oracle   Oracle
		KeepJobs bool
	}

	// Result is the outcome of one scenario execution.
	Result struct {
		Outcome report.Outcome
		Detail  string
		Err     error
	}
)

var _ Oracle = &service.Probe{}

// Pass reports success with an optional detail.
func Pass(detail ...string) Result {
	ret := Result{Outcome: report.Pass}
	if len(detail) > 0 {
		ret.Detail = detail[0]
	}
	return ret
}

// Fail reports a bridge response that did not meet expectations.
func Fail(format string, args ...interface{}) Result {
	return Result{Outcome: report.Fail, Detail: fmt.Sprintf(format, args...)}
}

// Skip reports a scenario that could not be exercised, e.g. because the service holds no jobs.
func Skip(reason string) Result {
	return Result{Outcome: report.Skip, Detail: reason}
}

// Error reports a scenario that could not complete.
func Error(err error) Result {
	return Result{Outcome: report.Error, Detail: err.Error(), Err: err}
}

// FromError classifies a bridge call error. Application errors and unexpected result shapes
// are failures of the bridge; everything else is an execution error.
func FromError(err error) Result {
	if rpcErr, ok := client.ApplicationError(err); ok {
		return Result{Outcome: report.Fail, Detail: "bridge error " + schema.DescribeError(rpcErr), Err: err}
	}
	var shapeErr *client.ShapeError
	if errors.As(err, &shapeErr) {
		return Result{Outcome: report.Fail, Detail: shapeErr.Error(), Err: err}
	}
	return Error(err)
}

// oracleError reports that ground truth could not be obtained.
func oracleError(err error) Result {
	return Error(fmt.Errorf("oracle: %w", err))
}

// Fatal reports whether the result must abort the run.
func (r Result) Fatal() bool {
	return r.Err != nil && client.IsFatal(r.Err)
}
