package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/importer"
	"github.com/iliyamo/movie-catalog/internal/repository"
)

// NewImportCmd creates the import subcommand.
func NewImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Seed an empty catalog from a CSV file",
		Long: `Load movies from a CSV export into the catalog. Nothing is imported
when the catalog already holds movies. Bad rows are logged and skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			if file == "" {
				file = cfg.ImportCSVPath
			}
			if file == "" {
				return oops.Code("CONFIG_INVALID").Errorf("no CSV file given: use --file or set IMPORT_CSV_PATH")
			}

			db, err := database.Open(cmd.Context(), cfg.Database())
			if err != nil {
				return oops.Code("DB_CONNECT_FAILED").With("host", cfg.DBHost).Wrap(err)
			}
			defer db.Close()

			rep, err := importer.New(repository.NewMovieRepo(db), logger).ImportFile(cmd.Context(), file)
			if err != nil {
				return err
			}
			if rep.NotEmpty {
				cmd.Println("Catalog already has movies, nothing imported")
				return nil
			}
			cmd.Printf("Imported %d movies (%d duplicates, %d skipped)\n", rep.Inserted, rep.Duplicates, rep.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import (defaults to IMPORT_CSV_PATH)")
	return cmd
}
