// Package runner executes test case steps against a browser session and
// aggregates per-step results into case outcomes.
package runner

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/uiproof/internal/browser"
	"github.com/watzon/uiproof/internal/cases"
	"github.com/watzon/uiproof/internal/metrics"
)

// Action is the closed set of step action types. Dispatch is a switch over
// this type so an unhandled kind is a visible gap, not a silent string miss.
type Action string

const (
	ActionNavigate      Action = "navigate"
	ActionClick         Action = "click"
	ActionInput         Action = "input"
	ActionClear         Action = "clear"
	ActionWait          Action = "wait"
	ActionVerifyText    Action = "verify_text"
	ActionVerifyElement Action = "verify_element"
)

// StepOutcome records the result of one executed step.
type StepOutcome struct {
	Order      int    `json:"step_order"`
	ActionType string `json:"action_type"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
	Screenshot string `json:"screenshot,omitempty"`
}

// Executor runs individual steps against one browser session.
type Executor struct {
	session     browser.Session
	defaultWait time.Duration
}

// NewExecutor creates an executor bound to a session. defaultWait is used
// when a wait step carries no timeout parameter.
func NewExecutor(session browser.Session, defaultWait time.Duration) *Executor {
	return &Executor{session: session, defaultWait: defaultWait}
}

// ExecuteStep dispatches one step to the matching session primitive. It
// validates required fields before touching the session, and it never lets a
// panic or error escape: whatever goes wrong comes back as a failed outcome.
func (e *Executor) ExecuteStep(step cases.TestStep) (outcome StepOutcome) {
	outcome = StepOutcome{Order: step.Order, ActionType: step.ActionType}

	// The metric moves in the defer so validation failures, unknown actions
	// and recovered panics count too.
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int("step_order", step.Order).
				Str("action_type", step.ActionType).
				Interface("panic", r).
				Msg("step execution panicked")
			outcome.Success = false
			outcome.Message = fmt.Sprintf("unexpected failure executing %s", step.ActionType)
			outcome.Error = fmt.Sprint(r)
		}
		metrics.StepsRun.WithLabelValues(step.ActionType, resultLabel(outcome.Success)).Inc()
	}()

	params := normalizeParams(step.Params)

	var result browser.Result
	switch Action(step.ActionType) {
	case ActionNavigate:
		url := stringParam(params, "url")
		if url == "" {
			return outcome.failf("navigate requires a url parameter")
		}
		result = e.session.Navigate(url)

	case ActionClick:
		if step.Locator == "" {
			return outcome.failf("click requires an element locator")
		}
		result = e.session.Click(step.LocatorType, step.Locator)

	case ActionInput:
		if step.Locator == "" {
			return outcome.failf("input requires an element locator")
		}
		result = e.session.Fill(step.LocatorType, step.Locator, stringParam(params, "text"))

	case ActionClear:
		if step.Locator == "" {
			return outcome.failf("clear requires an element locator")
		}
		result = e.session.Clear(step.LocatorType, step.Locator)

	case ActionWait:
		if step.Locator == "" {
			return outcome.failf("wait requires an element locator")
		}
		timeout := timeoutParam(params, "timeout", e.defaultWait)
		result = e.session.WaitVisible(step.LocatorType, step.Locator, timeout)

	case ActionVerifyText:
		text := stringParam(params, "text")
		if text == "" {
			return outcome.failf("verify_text requires a text parameter")
		}
		result = e.session.TextExists(text)

	case ActionVerifyElement:
		if step.Locator == "" {
			return outcome.failf("verify_element requires an element locator")
		}
		result = e.session.ElementExists(step.LocatorType, step.Locator)

	default:
		return outcome.failf("unsupported action type: %s", step.ActionType)
	}

	outcome.Success = result.Success
	outcome.Message = result.Message
	outcome.Error = result.Error
	return outcome
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (o StepOutcome) failf(format string, args ...any) StepOutcome {
	o.Success = false
	o.Message = fmt.Sprintf(format, args...)
	return o
}
