package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"bird-quiz-service/internal/config"
	"bird-quiz-service/internal/domain"
	pgstore "bird-quiz-service/internal/infra/postgres"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewSeedCmd loads a birds JSON file into the catalog.
func NewSeedCmd(configPath *string) *cobra.Command {
	var birdsPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the bird catalog from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			data, err := os.ReadFile(birdsPath)
			if err != nil {
				return err
			}
			var birds []domain.Bird
			if err := json.Unmarshal(data, &birds); err != nil {
				return fmt.Errorf("parse %s: %w", birdsPath, err)
			}

			sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
			db := bun.NewDB(sqldb, pgdialect.New())
			defer db.Close()

			if err := pgstore.NewStore(db).SeedBirds(cmd.Context(), birds); err != nil {
				return err
			}
			log.Printf("seeded %d birds", len(birds))
			return nil
		},
	}
	cmd.Flags().StringVar(&birdsPath, "birds", "config/birds.json", "path to birds JSON file")
	return cmd
}
