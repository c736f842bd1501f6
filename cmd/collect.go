package cmd

import (
	"fmt"
	"polarionlint/internal/adapter/inbound/itemsfile"
	"polarionlint/internal/adapter/outbound/treesitter"
	"polarionlint/internal/application/common/slogger"
	"polarionlint/internal/application/service"
	"polarionlint/internal/config"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Export Polarion test case metadata for collected tests",
		Long: `Export Polarion test case metadata for collected tests.

The items file lists the tests discovered by the test runner (YAML or JSON).
Data is written only when the session runs in collect-only mode with JSON
generation requested; the flags below override the values in the items file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := currentConfig()
			if err != nil {
				return err
			}
			return runCollect(cmd, afero.NewOsFs(), conf)
		},
	}

	cmd.Flags().String("items", "", "Items file describing the collected tests")
	cmd.Flags().Bool("collect-only", false, "Treat the session as collect-only")
	cmd.Flags().Bool("generate-json", false, "Request generation of the test data file")
	cmd.Flags().String("out-dir", "", "Directory for tests_data.json and duplicates.log (default from config)")
	_ = cmd.MarkFlagRequired("items")
	return cmd
}

func runCollect(cmd *cobra.Command, fs afero.Fs, conf *config.Config) error {
	flags := cmd.Flags()

	itemsPath, err := flags.GetString("items")
	if err != nil {
		return err
	}
	session, err := itemsfile.Load(fs, itemsPath)
	if err != nil {
		return err
	}
	if flags.Changed("collect-only") {
		if session.CollectOnlyMode, err = flags.GetBool("collect-only"); err != nil {
			return err
		}
	}
	if flags.Changed("generate-json") {
		if session.GenerateJSONMode, err = flags.GetBool("generate-json"); err != nil {
			return err
		}
	}

	output := conf.Collect
	if flags.Changed("out-dir") {
		if output.OutputDir, err = flags.GetString("out-dir"); err != nil {
			return err
		}
	}

	start := time.Now()
	parser := service.NewFileParser(treesitter.NewPythonSourceParser())
	report, err := service.NewCollectionService(fs, parser, output).Collect(cmd.Context(), session)
	if err != nil {
		return err
	}

	slogger.WithComponent("collect").LogPerformance(cmd.Context(), "collect_items", time.Since(start), slogger.Fields{
		"items":   len(session.Items()),
		"skipped": report.Skipped,
	})

	out := cmd.OutOrStdout()
	if report.Skipped {
		fmt.Fprintln(out, "Collection skipped: requires --collect-only and --generate-json")
		return nil
	}
	fmt.Fprintf(out, "Wrote %d test cases to %s\n", report.Testcases, report.DataFile)
	if len(report.Duplicates) > 0 {
		fmt.Fprintf(out, "Found %d duplicate test names, see %s\n", len(report.Duplicates), report.DuplicatesFile)
	}
	return nil
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newCollectCmd())
}
