package runner

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/watzon/uiproof/internal/cases"
)

func loginCase() *cases.TestCase {
	return &cases.TestCase{
		ID:   "case-1",
		Name: "login",
		Steps: []cases.TestStep{
			{Order: 1, ActionType: "navigate", Params: `{"url":"https://example.com"}`},
			{Order: 2, ActionType: "click", LocatorType: "css", Locator: "#go"},
			{Order: 3, ActionType: "verify_text", Params: `{"text":"Welcome"}`},
		},
	}
}

func TestRunCase_AllPass(t *testing.T) {
	session := newFakeSession()
	e := NewExecutor(session, 30*time.Second)

	result := e.RunCase(loginCase())
	require.True(t, result.Success)
	require.Equal(t, "all 3 steps passed", result.Message)
	require.Len(t, result.Steps, 3)
	require.Empty(t, result.Error)
	require.Empty(t, result.Screenshot)
	require.Zero(t, session.screenshots)
	require.False(t, result.EndTime.Before(result.StartTime))
}

func TestRunCase_NoShortCircuit(t *testing.T) {
	session := newFakeSession()
	session.failOn["click:css:#go"] = true
	e := NewExecutor(session, 30*time.Second)

	result := e.RunCase(loginCase())
	require.False(t, result.Success)
	require.Equal(t, "1 of 3 steps failed", result.Message)
	require.Equal(t, "driver error", result.Error)

	// Every step ran, in stored order, despite the failure in the middle.
	require.Len(t, result.Steps, 3)
	require.Equal(t, []int{1, 2, 3}, []int{result.Steps[0].Order, result.Steps[1].Order, result.Steps[2].Order})
	require.True(t, result.Steps[0].Success)
	require.False(t, result.Steps[1].Success)
	require.True(t, result.Steps[2].Success)

	// Failure triggered a screenshot, attached to the failed step and the case.
	require.NotEmpty(t, result.Steps[1].Screenshot)
	require.Equal(t, result.Steps[1].Screenshot, result.Screenshot)
	require.Equal(t, 1, session.screenshots)
}

func TestRunCase_ScreenshotFailureNotEscalated(t *testing.T) {
	session := newFakeSession()
	session.failOn["click:css:#go"] = true
	session.screenshotErr = errShotFailed
	e := NewExecutor(session, 30*time.Second)

	result := e.RunCase(loginCase())
	require.False(t, result.Success)
	require.Len(t, result.Steps, 3)
	require.Empty(t, result.Steps[1].Screenshot)
	require.Empty(t, result.Screenshot)
}

func TestRunCase_EmptyCase(t *testing.T) {
	session := newFakeSession()
	e := NewExecutor(session, 30*time.Second)

	result := e.RunCase(&cases.TestCase{ID: "empty", Name: "empty"})
	require.True(t, result.Success)
	require.Equal(t, "all 0 steps passed", result.Message)
	require.NotNil(t, result.Steps)
	require.Empty(t, result.Steps)
}

func TestCaseResult_StepLogJSON(t *testing.T) {
	session := newFakeSession()
	session.failOn["click:css:#go"] = true
	e := NewExecutor(session, 30*time.Second)

	result := e.RunCase(loginCase())

	var decoded []StepOutcome
	require.NoError(t, json.Unmarshal([]byte(result.StepLogJSON()), &decoded))
	require.Len(t, decoded, 3)
	require.Equal(t, "click", decoded[1].ActionType)
	require.False(t, decoded[1].Success)

	require.Equal(t, "[]", CaseResult{}.StepLogJSON())
}
