package runner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/uiproof/internal/cases"
)

// CaseResult is the aggregated outcome of running every step of one case.
type CaseResult struct {
	CaseID     string        `json:"case_id"`
	CaseName   string        `json:"case_name"`
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	Error      string        `json:"error,omitempty"`
	Screenshot string        `json:"screenshot,omitempty"`
	Steps      []StepOutcome `json:"steps"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	DurationMs int64         `json:"duration_ms"`
}

// StepLogJSON serializes the ordered step outcomes for persistence.
func (r CaseResult) StepLogJSON() string {
	steps := r.Steps
	if steps == nil {
		steps = []StepOutcome{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// RunCase executes every step of the snapshot in stored order. Execution
// never short-circuits: a failing step does not stop the remaining steps,
// since later steps can surface independent problems. Each failure triggers
// a best-effort screenshot; losing the screenshot is recorded, never fatal.
func (e *Executor) RunCase(snapshot *cases.TestCase) CaseResult {
	result := CaseResult{
		CaseID:    snapshot.ID,
		CaseName:  snapshot.Name,
		StartTime: time.Now().UTC(),
		Steps:     make([]StepOutcome, 0, len(snapshot.Steps)),
	}

	failed := 0
	for _, step := range snapshot.Steps {
		outcome := e.ExecuteStep(step)

		if !outcome.Success {
			failed++
			path, err := e.session.ScreenshotOnFailure()
			if err != nil {
				log.Warn().
					Err(err).
					Str("case_id", snapshot.ID).
					Int("step_order", step.Order).
					Msg("failed to capture failure screenshot")
			} else {
				outcome.Screenshot = path
				if result.Screenshot == "" {
					result.Screenshot = path
				}
			}
			if result.Error == "" {
				if outcome.Error != "" {
					result.Error = outcome.Error
				} else {
					result.Error = outcome.Message
				}
			}
		}

		result.Steps = append(result.Steps, outcome)
	}

	result.EndTime = time.Now().UTC()
	result.DurationMs = result.EndTime.Sub(result.StartTime).Milliseconds()
	result.Success = failed == 0
	if result.Success {
		result.Message = fmt.Sprintf("all %d steps passed", len(result.Steps))
	} else {
		result.Message = fmt.Sprintf("%d of %d steps failed", failed, len(result.Steps))
	}

	log.Debug().
		Str("case_id", snapshot.ID).
		Str("case_name", snapshot.Name).
		Bool("success", result.Success).
		Int("steps", len(result.Steps)).
		Int("failed", failed).
		Int64("duration_ms", result.DurationMs).
		Msg("case finished")

	return result
}
