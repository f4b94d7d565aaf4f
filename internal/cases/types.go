// Package cases manages test case and test step records.
package cases

import "time"

// Priority levels for test cases, highest first.
var Priorities = []string{"P0", "P1", "P2", "P3"}

// TestCase is an ordered sequence of steps driven against a browser.
type TestCase struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Tags        string     `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Steps       []TestStep `json:"steps,omitempty"`
}

// TestStep is one atomic browser action within a case.
type TestStep struct {
	ID             string    `json:"id"`
	CaseID         string    `json:"case_id"`
	Order          int       `json:"step_order"`
	ActionType     string    `json:"action_type"`
	LocatorType    string    `json:"locator_type,omitempty"`
	Locator        string    `json:"element_locator,omitempty"`
	Params         string    `json:"action_params,omitempty"` // JSON object
	ExpectedResult string    `json:"expected_result,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
