package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watzon/uiproof/internal/database"
	"github.com/watzon/uiproof/internal/database/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  `Open the database and apply any pending schema migrations.`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	// Open applies pending migrations itself.
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	applied, err := migrations.GetApplied(cmd.Context(), db.DB)
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}

	for _, m := range applied {
		fmt.Printf("applied %s at %s\n", m.ID, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("database %s is up to date (%d migration(s))\n", cfg.Database.Path, len(applied))
	return nil
}
