package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rg0now/wd-pollution-survey/internal/config"
	"github.com/rg0now/wd-pollution-survey/internal/logging"
	"github.com/rg0now/wd-pollution-survey/pkg/analyzer"
	"github.com/rg0now/wd-pollution-survey/pkg/catalog"
	"github.com/rg0now/wd-pollution-survey/pkg/models"
	"github.com/rg0now/wd-pollution-survey/pkg/output"
	"github.com/rg0now/wd-pollution-survey/pkg/store"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:   "wd-pollution-survey",
		Short: "Identify known polluted white dwarfs from catalog classifications",
		Long: `A survey tool that decides whether white dwarfs, identified by Gaia
source ID, are known to be polluted by planetary debris. It consults the
GF21 x SDSS spectral classes, the Montreal White Dwarf Database and the
Planetary Enriched White Dwarf Database, and combines their verdicts.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (YAML or TOML, default: $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(classifyCmd(&opts))
	rootCmd.AddCommand(lookupCmd(&opts))
	rootCmd.AddCommand(evaluateCmd(&opts))
	rootCmd.AddCommand(reportCmd(&opts))
	rootCmd.AddCommand(fetchCmd(&opts))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger.
func setup(opts *globalOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if opts.verbose {
		level = "debug"
	}
	return cfg, logging.New(os.Stderr, level), nil
}

// newAnalyzer loads the catalogs and wraps them in an analyzer.
func newAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*analyzer.Analyzer, error) {
	set, err := catalog.LoadSet(ctx, cfg.Catalogs.Sources(), logger.With("component", "catalog"))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogs: %w", err)
	}
	return analyzer.NewAnalyzer(set, logger.With("component", "analyzer")), nil
}

// classifyCmd classifies a working sample.
func classifyCmd(opts *globalOptions) *cobra.Command {
	var (
		idsFile    string
		idColumn   string
		rawIDs     []string
		outputFile string
		format     string
		detailed   bool
		persist    bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a sample of Gaia sources",
		Long: `Classify every object of a working sample and write one verdict per
object: 1 (polluted), 0 (not polluted) or -1 (unknown).

Examples:
  # Classify the XP sample, one ID per line
  wd-pollution-survey classify --ids=xp_ids.txt --output=is_polluted.csv

  # Classify IDs from a CSV column, with per-catalog verdicts
  wd-pollution-survey classify --ids=sample.csv --id-column=source_id --detailed --output=results.jsonl

  # Classify and store the run in PostgreSQL
  SURVEY_DATABASE_DSN=postgres://... wd-pollution-survey classify --ids=xp_ids.txt --database`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}

			// Collect the sample.
			var ids []models.ID
			if idsFile != "" {
				if idColumn == "" {
					idColumn = cfg.Classify.IDColumn
				}
				fileIDs, err := loadIDsFromFile(idsFile, idColumn)
				if err != nil {
					return fmt.Errorf("failed to load ids from file: %w", err)
				}
				ids = append(ids, fileIDs...)
			}
			for _, raw := range rawIDs {
				id, err := models.ParseID(raw)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if len(ids) == 0 {
				return fmt.Errorf("no identifiers specified")
			}

			f, err := output.ParseFormat(format, outputFile)
			if err != nil {
				return err
			}

			// Open the store first so a bad DSN fails before the work is done.
			var st *store.Store
			if persist {
				if cfg.Database.DSN == "" {
					return fmt.Errorf("--database needs a dsn (set database.dsn or $%s)", config.EnvDatabaseDSN)
				}
				st, err = store.Open(ctx, cfg.Database.DSN, cfg.Database.Table, cfg.Database.ConnTimeoutDuration(), logger)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.EnsureTable(ctx); err != nil {
					return err
				}
			}

			a, err := newAnalyzer(ctx, cfg, logger)
			if err != nil {
				return err
			}

			if workers == 0 {
				workers = cfg.Classify.Workers
			}
			runID := uuid.New()
			logger.Info("classifying sample", "run_id", runID, "objects", len(ids))

			results, err := a.ClassifyAll(ctx, ids, analyzer.BatchOptions{
				Workers:  workers,
				Detailed: detailed,
				RunID:    runID,
			})
			if err != nil {
				return err
			}

			// Write results.
			w, err := output.NewWriter(outputFile, f)
			if err != nil {
				return fmt.Errorf("failed to create output writer: %w", err)
			}
			if err := w.WriteResults(results); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}

			if st != nil {
				if err := st.SaveResults(ctx, runID, results); err != nil {
					return err
				}
			}

			// Print summary.
			summary := output.GenerateSummary("", results)
			output.PrintSummary(os.Stderr, summary)
			fmt.Fprintf(os.Stderr, "Run ID: %s\n", runID)

			return nil
		},
	}

	cmd.Flags().StringVarP(&idsFile, "ids", "i", "", "File with the working sample (one ID per line, or CSV with --id-column)")
	cmd.Flags().StringVar(&idColumn, "id-column", "", "CSV column holding the IDs in --ids")
	cmd.Flags().StringSliceVar(&rawIDs, "id", nil, "Individual Gaia source ID(s) to classify")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv or jsonl (default: from --output extension, else csv)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Record per-catalog verdicts (jsonl)")
	cmd.Flags().BoolVar(&persist, "database", false, "Store the run in the configured PostgreSQL database")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent classification workers (default: config, else GOMAXPROCS)")

	return cmd
}

// lookupCmd explains the verdict of individual objects.
func lookupCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup ID...",
		Short: "Show per-catalog and combined verdicts for Gaia source IDs",
		Long: `Show how each catalog classifies the given objects and the combined
verdict. IDs may be given as integers or float-formatted keys ("12345.0").

Examples:
  wd-pollution-survey lookup 4295806720 38655544960`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]models.ID, 0, len(args))
			for _, arg := range args {
				id, err := models.ParseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			a, err := newAnalyzer(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range ids {
				r := a.Explain(id)
				fmt.Fprintf(out, "%s: %s\n", r.ID, r.Verdict)
				for _, name := range a.Catalogs() {
					fmt.Fprintf(out, "  %-9s %s\n", string(name)+":", r.Sources[name])
				}
			}
			return nil
		},
	}

	return cmd
}

// loadIDsFromFile loads the working sample from a file.
func loadIDsFromFile(path, column string) ([]models.ID, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return catalog.ReadIDs(file, column)
}
