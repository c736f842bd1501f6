package cmd

import (
	"fmt"
	"os"
	"polarionlint/internal/application/common/logging"
	"polarionlint/internal/application/common/slogger"
	"polarionlint/internal/config"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "polarionlint",
		Short: "Lint and collect Polarion metadata in Python test docstrings",
		Long: `polarionlint reads the "Polarion:" section of Python test docstrings.

It provides:
- A flake8-style checker reporting unknown, invalid, missing and misplaced fields
- A collection step that exports test case metadata to tests_data.json`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(logging.WithCorrelationID(cmd.Context(), logging.NewCorrelationID()))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return runVersion(cmd, false)
			}
			return cmd.Help()
		},
	}

	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./polarion_tools.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (json, text)")
}

func initConfig() {
	v := viper.New()

	// Set defaults
	config.SetDefaults(v)

	// Bind flags to this viper instance
	if err := v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
	}
	if err := v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-format flag: %v\n", err)
	}

	// Set config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("polarion_tools")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// Environment variables
	v.SetEnvPrefix("POLARIONLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read configuration
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
		// Config file not found; use defaults and environment
	}

	// Load configuration
	loaded, err := config.New(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	if err := slogger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// currentConfig returns the loaded configuration, or the defaults when no
// configuration has been loaded yet.
func currentConfig() (*config.Config, error) {
	if loaded := GetConfig(); loaded != nil {
		return loaded, nil
	}
	v := viper.New()
	config.SetDefaults(v)
	return config.New(v)
}
