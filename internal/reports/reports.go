// Package reports renders execution results into standalone HTML files.
package reports

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/uiproof/internal/executions"
	"github.com/watzon/uiproof/internal/runner"
)

//go:embed templates/*.html
var templates embed.FS

// Service generates and serves HTML reports for finished executions.
type Service struct {
	store *executions.Store
	dir   string
	tmpl  *template.Template
}

// NewService creates a report service writing into dir.
func NewService(store *executions.Store, dir string) (*Service, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing report templates: %w", err)
	}
	return &Service{store: store, dir: dir, tmpl: tmpl}, nil
}

// reportData is the template context for one execution report.
type reportData struct {
	Execution  *executions.Execution
	Cases      []caseData
	PassRate   float64
	DurationMs int64
	Generated  time.Time
}

type caseData struct {
	Outcome *executions.CaseOutcome
	Steps   []runner.StepOutcome
}

// Generate renders the report for an execution and returns the file name.
func (s *Service) Generate(ctx context.Context, executionID string) (string, error) {
	e, err := s.store.Get(ctx, executionID)
	if err != nil {
		return "", err
	}

	outcomes, err := s.store.ListOutcomes(ctx, executionID)
	if err != nil {
		return "", err
	}

	data := reportData{
		Execution: e,
		PassRate:  e.PassRate(),
		Generated: time.Now().UTC(),
	}
	if ms := e.DurationMs(); ms != nil {
		data.DurationMs = *ms
	}

	for _, outcome := range outcomes {
		cd := caseData{Outcome: outcome}
		if outcome.StepLogs != "" {
			if err := json.Unmarshal([]byte(outcome.StepLogs), &cd.Steps); err != nil {
				log.Warn().Err(err).Str("case_id", outcome.CaseID).Msg("unreadable step logs in report")
			}
		}
		data.Cases = append(data.Cases, cd)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}

	name := fmt.Sprintf("report_%s_%s.html", executionID, time.Now().UTC().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := s.tmpl.ExecuteTemplate(f, "report.html", data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	log.Info().Str("execution_id", executionID).Str("report", name).Msg("report generated")
	return name, nil
}

// Path resolves a report file name inside the reports dir. Names that try to
// escape the directory are rejected.
func (s *Service) Path(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid report name: %q", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("report not found: %s", name)
	}
	return path, nil
}

// List returns the report file names, newest first.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			names = append(names, entry.Name())
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}
