package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/uiproof/internal/browser"
	"github.com/watzon/uiproof/internal/cases"
	"github.com/watzon/uiproof/internal/database"
	"github.com/watzon/uiproof/internal/executions"
)

var (
	runMode     string
	runBrowser  string
	runHeadless bool
	runCaseIDs  []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run test cases once and wait for the result",
	Long: `Create an execution, start it, and block until it finishes.

By default a single-mode execution against the oldest test case is run.
Use --mode batch to run every case, or --case to pick specific ones.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "single", "Execution mode: single or batch")
	runCmd.Flags().StringVar(&runBrowser, "browser", "chrome", "Browser: chrome, firefox or edge")
	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "Run the browser headless")
	runCmd.Flags().StringSliceVar(&runCaseIDs, "case", nil, "Case IDs to run (repeatable)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	caseStore := cases.NewStore(db)
	orchestrator := executions.NewOrchestrator(executions.NewStore(db), caseStore, browser.NewSession, cfg)

	ctx := context.Background()
	e, err := orchestrator.Create(ctx, executions.CreateRequest{
		Mode:     executions.Mode(runMode),
		Browser:  runBrowser,
		Headless: &runHeadless,
		CaseIDs:  runCaseIDs,
	})
	if err != nil {
		return err
	}

	if _, err := orchestrator.Start(ctx, e.ID); err != nil {
		return err
	}

	log.Info().Str("execution_id", e.ID).Int("cases", e.TotalCount).Msg("Execution running")
	<-orchestrator.Wait(e.ID)

	final, err := orchestrator.Get(ctx, e.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Execution %s: %s\n", final.ID, final.Status)
	fmt.Printf("  cases: %d total, %d passed, %d failed (%.2f%% pass rate)\n",
		final.TotalCount, final.SuccessCount, final.FailCount, final.PassRate())
	if ms := final.DurationMs(); ms != nil {
		fmt.Printf("  duration: %d ms\n", *ms)
	}

	outcomes, err := orchestrator.ListCaseOutcomes(ctx, e.ID)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		line := fmt.Sprintf("  [%s] %s", o.Status, o.CaseName)
		if o.ErrorMessage != "" {
			line += ": " + o.ErrorMessage
		}
		fmt.Println(line)
	}

	if final.Status != executions.StatusCompleted {
		return fmt.Errorf("execution %s", final.Status)
	}
	return nil
}
