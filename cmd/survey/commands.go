package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rg0now/wd-pollution-survey/internal/config"
	"github.com/rg0now/wd-pollution-survey/internal/retry"
	"github.com/rg0now/wd-pollution-survey/pkg/analyzer"
	"github.com/rg0now/wd-pollution-survey/pkg/catalog"
	"github.com/rg0now/wd-pollution-survey/pkg/fetch"
	"github.com/rg0now/wd-pollution-survey/pkg/models"
	"github.com/rg0now/wd-pollution-survey/pkg/output"
	"github.com/rg0now/wd-pollution-survey/pkg/store"
)

// evaluateCmd checks samples of polluted candidates from previous work
// against the known classifications.
func evaluateCmd(opts *globalOptions) *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Check reference samples from previous work against known classifications",
		Long: `Classify each configured reference sample (candidate polluted white
dwarfs selected by earlier methods) and print how many are known polluted,
known not polluted, or unknown.

Examples:
  wd-pollution-survey evaluate
  wd-pollution-survey evaluate --reference=vincent24`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}

			refs := cfg.References
			if len(names) > 0 {
				refs = slices.DeleteFunc(slices.Clone(refs), func(r config.ReferenceConfig) bool {
					return !slices.Contains(names, r.Name)
				})
				if len(refs) == 0 {
					return fmt.Errorf("no configured reference matches %v", names)
				}
			}

			a, err := newAnalyzer(ctx, cfg, logger)
			if err != nil {
				return err
			}

			for _, ref := range refs {
				ids, err := loadReference(ref)
				if errors.Is(err, fs.ErrNotExist) && ref.Optional {
					logger.Warn("skipping unavailable reference sample", "reference", ref.Name, "path", ref.Path)
					continue
				}
				if err != nil {
					return fmt.Errorf("reference %s: %w", ref.Name, err)
				}

				results, err := a.ClassifyAll(ctx, ids, analyzer.BatchOptions{
					Workers:  cfg.Classify.Workers,
					Detailed: true,
				})
				if err != nil {
					return err
				}

				output.PrintSummary(cmd.OutOrStdout(), output.GenerateSummary(ref.Name, results))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&names, "reference", nil, "Reference sample name(s) to evaluate (default: all configured)")

	return cmd
}

func loadReference(ref config.ReferenceConfig) ([]models.ID, error) {
	file, err := os.Open(ref.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return catalog.ReadSample(file, ref.SampleSpec())
}

// reportCmd generates reports from classification results.
func reportCmd(opts *globalOptions) *cobra.Command {
	var (
		inputFile string
		format    string
		runID     string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate reports from classification results",
		Long: `Generate a verdict summary from a results file or from a run stored
in the database.

Examples:
  # Generate report from results file
  wd-pollution-survey report --input=is_polluted.csv

  # Generate report from a stored run
  wd-pollution-survey report --run-id=1f0c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (inputFile == "") == (runID == "") {
				return fmt.Errorf("exactly one of --input and --run-id is required")
			}

			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}

			var results []models.Result
			if inputFile != "" {
				f, err := output.ParseFormat(format, inputFile)
				if err != nil {
					return err
				}
				results, err = output.LoadResults(inputFile, f)
				if err != nil {
					return fmt.Errorf("failed to load results: %w", err)
				}
			} else {
				id, err := uuid.Parse(runID)
				if err != nil {
					return fmt.Errorf("invalid run id: %w", err)
				}
				if cfg.Database.DSN == "" {
					return fmt.Errorf("--run-id needs a dsn (set database.dsn or $%s)", config.EnvDatabaseDSN)
				}
				st, err := store.Open(ctx, cfg.Database.DSN, cfg.Database.Table, cfg.Database.ConnTimeoutDuration(), logger)
				if err != nil {
					return err
				}
				defer st.Close()
				if results, err = st.Results(ctx, id); err != nil {
					return err
				}
			}

			output.PrintSummary(cmd.OutOrStdout(), output.GenerateSummary("", results))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Results file (csv or jsonl)")
	cmd.Flags().StringVar(&format, "format", "", "Input format: csv or jsonl (default: from extension)")
	cmd.Flags().StringVar(&runID, "run-id", "", "Stored run to report on")

	return cmd
}

// fetchCmd downloads the PEWDD catalog.
func fetchCmd(opts *globalOptions) *cobra.Command {
	var (
		url        string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the Planetary Enriched White Dwarf Database",
		Long: `Download the PEWDD table to the configured catalog path.

Examples:
  wd-pollution-survey fetch
  wd-pollution-survey fetch --output=data/external/pewdd.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}

			if url == "" {
				url = cfg.Catalogs.PEWDD.URL
			}
			if outputFile == "" {
				outputFile = cfg.Catalogs.PEWDD.Path
			}
			if url == "" || outputFile == "" {
				return fmt.Errorf("pewdd url and path must be configured")
			}

			fetcher := fetch.New(nil, cfg.Fetch.TimeoutDuration(), retry.Config{
				MaxRetries:      cfg.Fetch.MaxRetries,
				BaseDelay:       cfg.Fetch.BaseDelayDuration(),
				MaxDelay:        cfg.Fetch.MaxDelayDuration(),
				BackoffMultiple: 2,
			}, logger)

			n, err := fetcher.Download(cmd.Context(), url, outputFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", n, outputFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Source URL (default: catalogs.pewdd.url)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Destination path (default: catalogs.pewdd.path)")

	return cmd
}
