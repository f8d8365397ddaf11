package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lumos-Labs-HQ/provision/internal/config"
	"github.com/Lumos-Labs-HQ/provision/internal/logger"
)

var (
	cfgFile string
	Version = "1.0.0"

	opts runOptions
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════╗",
		"║                                              ║",
		"║        🌱  provision  ·  DDL + seed data     ║",
		"║                                              ║",
		"╚══════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Fprintln(os.Stderr, line)
	}

	color.New(color.FgCyan, color.Bold).Fprint(os.Stderr, "   Version: ")
	color.New(color.FgYellow, color.Bold).Fprintf(os.Stderr, "%s\n\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "provision",
	Short: "Replay SQL DDL against a database or seed its tables with synthetic rows",
	Long: `
provision reads CREATE/DROP/ALTER TABLE statements from .sql files.

Modes:
- provision (default): every statement is sent to the database unchanged
- insert (-i): CREATE TABLE definitions are parsed and each table gets
  generated rows, parents before children

Database Support:
- PostgreSQL
- MySQL
- SQLite`,
	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("provision version %s\n", Version)
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		if !opts.DryRun {
			showBanner()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		log := logger.New(opts.Verbose, os.Stderr)
		report, err := run(ctx, cfg, opts, log, os.Stdout)
		if err != nil {
			return err
		}

		printSummary(report, opts)
		if !report.OK() {
			return fmt.Errorf("%d of %d items failed", len(report.Failed), len(report.Failed)+len(report.Succeeded))
		}
		return nil
	},
}

// applyFlags lets command line flags win over file and environment settings.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("rows") {
		cfg.Seed.Rows = opts.Rows
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Seed.Concurrency = opts.Concurrency
	}
	if cmd.Flags().Changed("schema-dir") {
		cfg.SchemaDir = opts.SchemaDir
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./provision.config.json)")
	rootCmd.PersistentFlags().StringVarP(&opts.File, "file", "f", "", "Read a single .sql file instead of the schema directory")
	rootCmd.PersistentFlags().StringVar(&opts.SchemaDir, "schema-dir", "", "Directory searched recursively for .sql files")
	rootCmd.PersistentFlags().BoolVar(&opts.Strict, "strict", false, "Abort on the first statement that fails to parse")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log every statement sent to the database")

	rootCmd.Flags().BoolVarP(&opts.Insert, "insert", "i", false, "Generate and insert rows instead of replaying the DDL")
	rootCmd.Flags().IntVarP(&opts.Rows, "rows", "n", 5, "Rows generated per table")
	rootCmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Tables seeded at once")
	rootCmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print statements instead of executing them")
	rootCmd.Flags().BoolVar(&opts.Literal, "literal", false, "Send INSERTs with inline values instead of bound parameters")
	rootCmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed for generated values")
	rootCmd.Flags().Bool("version", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("provision.config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && opts.Verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
