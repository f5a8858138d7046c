package scenario

import (
	"github.com/viant/mcp-harness/schema"
)

// Catalog returns the built-in scenarios in execution order.
func Catalog() []*Scenario {
	return []*Scenario{
		{Name: "tools_list", Description: "tools/list advertises every tool the harness exercises", Exec: toolsList},
		{Name: "list_jobs", Description: "list_jobs agrees with the service job list", Exec: listJobs},
		{Name: "get_job", Description: "get_job returns the job the service holds", Exec: getJob},
		{Name: "create_job", Description: "create_job creates a job visible to the service, delete_job removes it", Exec: createJob},
		{Name: "stop_start_job", Description: "stop_job and start_job change the job state in the service", Exec: stopStartJob},
		{Name: "get_scheduler_status", Description: "get_scheduler_status returns content", Exec: toolContent[struct{}](schema.ToolSchedulerStatus, nil)},
		{Name: "get_job_functions", Description: "get_job_functions returns content", Exec: toolContent[struct{}](schema.ToolJobFunctions, nil)},
		{Name: "get_jobs_config", Description: "get_jobs_config returns content", Exec: toolContent[struct{}](schema.ToolJobsConfig, nil)},
		{Name: "get_ip_control_status", Description: "get_ip_control_status returns content", Exec: toolContent[struct{}](schema.ToolIPControlStatus, nil)},
		{Name: "get_system_logs", Description: "get_system_logs returns the first page of logs", Exec: toolContent(schema.ToolSystemLogs, &schema.ListJobsArgs{Page: 1, Size: 5})},
		{Name: "resource_health", Description: "xiaohu://health is readable", Exec: resourceContent(schema.ResourceHealth)},
		{Name: "resource_jobs_overview", Description: "xiaohu://jobs/overview agrees with the service job count", Exec: jobsOverview},
		{Name: "resource_config", Description: "xiaohu://config is readable", Exec: resourceContent(schema.ResourceConfig)},
		{Name: "prompt_system_health_report", Description: "system_health_report prompt renders messages", Exec: systemHealthPrompt},
	}
}

// Names returns the names of the supplied scenarios.
func Names(scenarios []*Scenario) []string {
	var ret []string
	for _, aScenario := range scenarios {
		ret = append(ret, aScenario.Name)
	}
	return ret
}

// Select returns the named scenarios in catalog order; no names selects all of them.
func Select(catalog []*Scenario, names []string) ([]*Scenario, error) {
	if len(names) == 0 {
		return catalog, nil
	}
	wanted := map[string]bool{}
	for _, name := range names {
		wanted[name] = true
	}
	var ret []*Scenario
	for _, aScenario := range catalog {
		if wanted[aScenario.Name] {
			ret = append(ret, aScenario)
			delete(wanted, aScenario.Name)
		}
	}
	if len(wanted) > 0 {
		var unknown []string
		for _, name := range names {
			if wanted[name] {
				unknown = append(unknown, name)
				delete(wanted, name)
			}
		}
		return nil, &UnknownScenarioError{Names: unknown}
	}
	return ret, nil
}
