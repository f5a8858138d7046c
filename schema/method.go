package schema

import mcpschema "github.com/viant/mcp-protocol/schema"

// ProtocolVersion is the MCP revision negotiated during initialize.
const ProtocolVersion = "2024-11-05"

// Methods the harness sends to the bridge.
const (
	MethodInitialize    = mcpschema.MethodInitialize
	MethodToolsList     = mcpschema.MethodToolsList
	MethodToolsCall     = mcpschema.MethodToolsCall
	MethodResourcesRead = mcpschema.MethodResourcesRead
	MethodPromptsGet    = mcpschema.MethodPromptsGet
)

// Tools exposed by the bridge.
const (
	ToolListJobs        = "list_jobs"
	ToolGetJob          = "get_job"
	ToolCreateJob       = "create_job"
	ToolDeleteJob       = "delete_job"
	ToolStartJob        = "start_job"
	ToolStopJob         = "stop_job"
	ToolSchedulerStatus = "get_scheduler_status"
	ToolJobFunctions    = "get_job_functions"
	ToolJobsConfig      = "get_jobs_config"
	ToolIPControlStatus = "get_ip_control_status"
	ToolSystemLogs      = "get_system_logs"
)

// Resources and prompts exposed by the bridge.
const (
	ResourceHealth       = "xiaohu://health"
	ResourceJobsOverview = "xiaohu://jobs/overview"
	ResourceConfig       = "xiaohu://config"

	PromptSystemHealthReport = "system_health_report"
)

// Tools returns every tool name the harness calls.
func Tools() []string {
	return []string{
		ToolListJobs,
		ToolGetJob,
		ToolCreateJob,
		ToolDeleteJob,
		ToolStartJob,
		ToolStopJob,
		ToolSchedulerStatus,
		ToolJobFunctions,
		ToolJobsConfig,
		ToolIPControlStatus,
		ToolSystemLogs,
	}
}
