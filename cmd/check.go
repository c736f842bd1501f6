package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"polarionlint/internal/adapter/outbound/treesitter"
	"polarionlint/internal/application/common/slogger"
	"polarionlint/internal/application/service"
	"polarionlint/internal/config"
	"polarionlint/internal/domain/valueobject"
	"polarionlint/internal/port/inbound"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errDiagnosticsFound makes the check command exit non-zero without printing usage.
var errDiagnosticsFound = errors.New("docstring diagnostics found")

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check Polarion docstrings in Python test files",
		Long: `Check Polarion docstrings in Python test files.

Each path may be a file or a directory. Directories are walked for *.py files,
skipping hidden directories. Diagnostics are printed one per line as
path:line:col: message, and the command exits with status 1 when any are found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := currentConfig()
			if err != nil {
				return err
			}
			return runCheck(cmd, afero.NewOsFs(), args, conf)
		},
	}

	cmd.Flags().Int("jobs", 0, "Number of files checked in parallel (default from config)")
	cmd.Flags().Bool("all-files", false, "Check every file, not only files below a tests directory")
	return cmd
}

// checkSettings folds the command flags over the configured defaults.
func checkSettings(cmd *cobra.Command, conf config.CheckConfig) (config.CheckConfig, error) {
	settings := conf
	if cmd.Flags().Changed("jobs") {
		jobs, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return settings, err
		}
		settings.Jobs = jobs
	}
	if cmd.Flags().Changed("all-files") {
		allFiles, err := cmd.Flags().GetBool("all-files")
		if err != nil {
			return settings, err
		}
		settings.AllFiles = allFiles
	}
	if settings.Jobs < 1 {
		return settings, fmt.Errorf("jobs must be at least 1, got %d", settings.Jobs)
	}
	return settings, nil
}

func runCheck(cmd *cobra.Command, fs afero.Fs, args []string, conf *config.Config) error {
	settings, err := checkSettings(cmd, conf.Check)
	if err != nil {
		return err
	}

	files, err := pythonFiles(fs, args)
	if err != nil {
		return err
	}

	start := time.Now()
	opts := []service.CheckerOption{service.WithFs(fs)}
	if settings.AllFiles {
		opts = append(opts, service.WithAllFiles())
	}
	if !conf.Checker.HasSchema() {
		slogger.Warn(cmd.Context(), "No known fields configured, unknown field check disabled", nil)
	}
	parser := service.NewFileParser(treesitter.NewPythonSourceParser())
	var checker inbound.DocstringChecker = service.NewDiagnosticsChecker(parser, conf.Checker, opts...)

	results := make([][]valueobject.DocstringError, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(settings.Jobs)
	for i, file := range files {
		g.Go(func() error {
			results[i] = checker.Check(ctx, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	total := 0
	for i, diags := range results {
		for _, d := range diags {
			fmt.Fprintln(out, d.Format(files[i]))
		}
		total += len(diags)
	}

	slogger.WithComponent("check").LogPerformance(cmd.Context(), "check_files", time.Since(start), slogger.Fields{
		"files":       len(files),
		"diagnostics": total,
		"jobs":        settings.Jobs,
	})

	if total > 0 {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return errDiagnosticsFound
	}
	return nil
}

// pythonFiles expands the given paths into the files to check, in argument
// order. Directories contribute their *.py files in lexical order.
func pythonFiles(fs afero.Fs, paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := fs.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot check %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".py" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot walk %s: %w", root, err)
		}
	}
	return files, nil
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newCheckCmd())
}
