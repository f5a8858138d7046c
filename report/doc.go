// Package report aggregates scenario outcomes and renders them.
package report
