package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Global flags, bound through viper so ${REORDERCTL_*} environment
// variables and a --config file resolve the same settings a flag would.
var (
	cfgFile           string
	backend           string
	csvDataDir        string
	sqlitePath        string
	databaseURL       string
	runMigrationsFlag bool

	rootCmd = &cobra.Command{
		Use:   "reorderctl",
		Short: "Operate the reorder engine without the HTTP facade",
		Long: `reorderctl drives the reorder engine's repository and decision core
directly: seed a demonstration dataset, propose or batch-propose orders
against any configured backend, and apply schema migrations.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; none is read when unset)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "repository backend: csv | sqlite | postgres")
	rootCmd.PersistentFlags().StringVar(&csvDataDir, "data-dir", "", "CSV data directory (backend=csv)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file (backend=sqlite)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres DSN (backend=postgres)")
	rootCmd.PersistentFlags().BoolVar(&runMigrationsFlag, "migrate", false, "apply schema migrations before connecting")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(migrateCmd)
}

// cliConfig is the subset of internal/config.Config the CLI needs, filled by
// viper from flags, environment (REORDERCTL_ prefix), and an optional config
// file, in that precedence order (spf13/viper's normal override chain).
type cliConfig struct {
	Backend       string `mapstructure:"backend"`
	CSVDataDir    string `mapstructure:"data_dir"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	DatabaseURL   string `mapstructure:"database_url"`
	RunMigrations bool   `mapstructure:"migrate"`
}

var resolvedConfig cliConfig

func initConfig() error {
	v := viper.New()
	v.SetEnvPrefix("REORDERCTL")
	v.AutomaticEnv()

	v.SetDefault("backend", "csv")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("sqlite_path", "./reorder.db")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	if backend != "" {
		v.Set("backend", backend)
	}
	if csvDataDir != "" {
		v.Set("data_dir", csvDataDir)
	}
	if sqlitePath != "" {
		v.Set("sqlite_path", sqlitePath)
	}
	if databaseURL != "" {
		v.Set("database_url", databaseURL)
	}
	if runMigrationsFlag {
		v.Set("migrate", true)
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}

	switch cfg.Backend {
	case "csv", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown backend %q: must be csv, sqlite, or postgres", cfg.Backend)
	}
	if cfg.Backend == "postgres" && cfg.DatabaseURL == "" {
		return fmt.Errorf("--database-url is required when backend=postgres")
	}

	resolvedConfig = cfg
	return nil
}
