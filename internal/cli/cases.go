package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watzon/uiproof/internal/cases"
	"github.com/watzon/uiproof/internal/database"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage test cases",
}

var casesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import test cases from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasesImport,
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List test cases",
	RunE:  runCasesList,
}

func init() {
	casesCmd.AddCommand(casesImportCmd)
	casesCmd.AddCommand(casesListCmd)
	rootCmd.AddCommand(casesCmd)
}

func runCasesImport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	created, err := cases.NewStore(db).ImportFile(context.Background(), args[0])
	if err != nil {
		return err
	}

	for _, tc := range created {
		fmt.Printf("imported %s (%s, %d steps)\n", tc.Name, tc.ID, len(tc.Steps))
	}
	fmt.Printf("%d case(s) imported\n", len(created))
	return nil
}

func runCasesList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	list, err := cases.NewStore(db).List(context.Background(), nil, 0, 0)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("no test cases")
		return nil
	}

	for _, tc := range list {
		fmt.Printf("%s  [%s]  %s\n", tc.ID, tc.Priority, tc.Name)
	}
	return nil
}
