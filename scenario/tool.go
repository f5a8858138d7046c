package scenario

import (
	"context"
	"strings"

	"github.com/viant/mcp-harness/schema"
)

// callTool calls a bridge tool and converts transport, application and tool level errors into a result.
func callTool[T any](ctx context.Context, env *Env, name string, args *T) (*schema.CallToolResult, *Result) {
	params, err := schema.NewCallToolRequestParams(name, args)
	if err != nil {
		ret := Error(err)
		return nil, &ret
	}
	result, err := env.Client.CallTool(ctx, params)
	if err != nil {
		ret := FromError(err)
		return nil, &ret
	}
	if result.IsError {
		ret := Fail("%v returned a tool error: %v", name, result.Text())
		return nil, &ret
	}
	return result, nil
}

func toolsList(ctx context.Context, env *Env) Result {
	result, err := env.Client.ListTools(ctx)
	if err != nil {
		return FromError(err)
	}
	if len(result.Tools) == 0 {
		return Fail("no tools advertised")
	}
	var missing []string
	for _, name := range schema.Tools() {
		if !result.HasTool(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Fail("tools not advertised: %v", strings.Join(missing, ", "))
	}
	return Pass()
}

// toolContent checks that a read-only tool answers with non-empty content.
func toolContent[T any](name string, args *T) func(ctx context.Context, env *Env) Result {
	return func(ctx context.Context, env *Env) Result {
		result, failed := callTool(ctx, env, name, args)
		if failed != nil {
			return *failed
		}
		if len(result.Content) == 0 || strings.TrimSpace(result.Text()) == "" {
			return Fail("%v returned no content", name)
		}
		return Pass()
	}
}
