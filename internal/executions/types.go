// Package executions orchestrates test runs: it owns the execution
// lifecycle, the per-execution browser session registry, and the persisted
// execution and case outcome records.
package executions

import (
	"math"
	"time"
)

// Mode selects how the target case set is resolved when none is given.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeBatch  Mode = "batch"
)

// Status is the execution lifecycle state. Transitions only move forward:
// pending -> running -> completed|failed, with stop() forcing failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Case outcome states. Skipped is reserved for cases the job never reached.
const (
	OutcomeRunning = "running"
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Execution is one orchestrated run of a set of test cases against a browser.
type Execution struct {
	ID           string     `json:"id"`
	Mode         Mode       `json:"mode"`
	Browser      string     `json:"browser"`
	Headless     bool       `json:"headless"`
	WindowSize   string     `json:"window_size,omitempty"`
	CaseIDs      []string   `json:"case_ids"`
	Status       Status     `json:"status"`
	TotalCount   int        `json:"total_count"`
	SuccessCount int        `json:"success_count"`
	FailCount    int        `json:"fail_count"`
	SkipCount    int        `json:"skip_count"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PassRate returns the success percentage rounded to two decimals.
// Zero cases means a zero rate, not a division error.
func (e *Execution) PassRate() float64 {
	if e.TotalCount == 0 {
		return 0
	}
	rate := float64(e.SuccessCount) * 100 / float64(e.TotalCount)
	return math.Round(rate*100) / 100
}

// DurationMs returns the run duration in milliseconds, or nil while the
// execution has no end time yet.
func (e *Execution) DurationMs() *int64 {
	if e.StartTime == nil || e.EndTime == nil {
		return nil
	}
	ms := e.EndTime.Sub(*e.StartTime).Milliseconds()
	return &ms
}

// CaseOutcome is the persisted result of one case within one execution.
type CaseOutcome struct {
	ID             string     `json:"id"`
	ExecutionID    string     `json:"execution_id"`
	CaseID         string     `json:"case_id"`
	CaseName       string     `json:"case_name"`
	CaseOrder      int        `json:"case_order"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	ErrorDetail    string     `json:"error_detail,omitempty"`
	ScreenshotPath string     `json:"screenshot_path,omitempty"`
	StepLogs       string     `json:"step_logs,omitempty"` // JSON array of step outcomes
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	DurationMs     *int64     `json:"duration_ms,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateRequest describes a new execution. Empty CaseIDs are resolved by
// mode: the oldest case for single, every case for batch.
type CreateRequest struct {
	Mode       Mode     `json:"mode"`
	Browser    string   `json:"browser"`
	Headless   *bool    `json:"headless,omitempty"`
	WindowSize string   `json:"window_size,omitempty"`
	CaseIDs    []string `json:"case_ids,omitempty"`
}
