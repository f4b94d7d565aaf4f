// Package scheduler runs cron-scheduled test executions.
package scheduler

import "time"

// Schedule triggers executions on a cron expression.
type Schedule struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Expression string     `json:"expression"`
	Mode       string     `json:"mode"`
	CaseIDs    []string   `json:"case_ids,omitempty"`
	Enabled    bool       `json:"enabled"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
