// Package service is a thin client for the job service REST API.
//
// The harness uses it for two things only: the upfront health check that gates a run,
// and oracle lookups whose results are compared with what the bridge reports.
package service
