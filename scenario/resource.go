package scenario

import (
	"context"
	"fmt"

	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcp-harness/schema"
)

func readResource(ctx context.Context, env *Env, uri string) (*schema.ReadResourceResult, *Result) {
	result, err := env.Client.ReadResource(ctx, &mcpschema.ReadResourceRequestParams{Uri: uri})
	if err != nil {
		ret := FromError(err)
		return nil, &ret
	}
	if len(result.Contents) == 0 {
		ret := Fail("%v returned no contents", uri)
		return nil, &ret
	}
	return result, nil
}

func resourceContent(uri string) func(ctx context.Context, env *Env) Result {
	return func(ctx context.Context, env *Env) Result {
		if _, failed := readResource(ctx, env, uri); failed != nil {
			return *failed
		}
		return Pass()
	}
}

func jobsOverview(ctx context.Context, env *Env) Result {
	total, err := env.Oracle.CountJobs(ctx)
	if err != nil {
		return oracleError(err)
	}
	result, failed := readResource(ctx, env, schema.ResourceJobsOverview)
	if failed != nil {
		return *failed
	}
	overview := &schema.JobsOverview{}
	if err = result.Decode(overview); err != nil {
		return Fail("unexpected overview payload: %v", err)
	}
	if int64(overview.TotalJobs) != total {
		return Fail("overview reports %d jobs, service holds %d", overview.TotalJobs, total)
	}
	if sum := overview.RunningJobs + overview.StoppedJobs + overview.WaitingJobs; sum > overview.TotalJobs {
		return Fail("overview state counts (%d) exceed the total (%d)", sum, overview.TotalJobs)
	}
	return Pass(fmt.Sprintf("%d jobs", total))
}

func systemHealthPrompt(ctx context.Context, env *Env) Result {
	result, err := env.Client.GetPrompt(ctx, &mcpschema.GetPromptRequestParams{Name: schema.PromptSystemHealthReport})
	if err != nil {
		return FromError(err)
	}
	if len(result.Messages) == 0 {
		return Fail("%v rendered no messages", schema.PromptSystemHealthReport)
	}
	return Pass()
}
