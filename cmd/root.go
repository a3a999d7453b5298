// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jdfalk/book-library/internal/config"
)

// NewRootCmd builds the command tree. Each call returns fresh flags.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "book-library",
		Short: "Manage a personal book library",
		Long: `Book Library keeps a personal book collection: add, edit and list books,
scan or type an ISBN to fetch its details from Google Books, Open Library,
the BnF or WorldCat, and browse the collection in the terminal or over HTTP.

It also prints distributor round sheets from a spreadsheet export.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is config.yaml next to the database)")
	flags.StringSlice("env-file", []string{".env"}, "dotenv files to load before reading the environment")
	flags.String("db", "", "path to database (default: ./book-library.db)")
	flags.String("db-type", "", "database type: pebble (default), bolt, sqlite, postgres, mysql or memory")
	flags.String("db-dsn", "", "connection string for postgres and mysql")
	flags.Bool("enable-sqlite3-i-know-the-risks", false, "enable SQLite3 database (WARNING: cross-compilation issues, PebbleDB recommended)")
	flags.String("storage-key", "", "key the collection is stored under")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newListCmd(),
		newAddCmd(),
		newEditCmd(),
		newRemoveCmd(),
		newStatsCmd(),
		newSearchCmd(),
		newImportCmd(),
		newExportCmd(),
		newImportISBNsCmd(),
		newLookupCmd(),
		newCoversCmd(),
		newScanCmd(),
		newServeCmd(),
		newBrowseCmd(),
		newPrintSheetCmd(),
		newBackupCmd(),
		newConfigCmd(),
		newDiagnosticsCmd(),
	)
	return rootCmd
}

// Execute runs the command tree with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"db":                              "database_path",
	"db-type":                         "database_type",
	"db-dsn":                          "database_dsn",
	"enable-sqlite3-i-know-the-risks": "enable_sqlite3_i_know_the_risks",
	"storage-key":                     "storage_key",
	"log-level":                       "log_level",
}

// bindFlags binds flags to viper keys. Only flags set on the command line
// override the environment and the config file.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

func initConfig(cmd *cobra.Command) error {
	root := cmd.Root()
	bindFlags(root.PersistentFlags(), flagKeys)
	bindFlags(cmd.Flags(), serveFlagKeys)

	envFiles, _ := root.PersistentFlags().GetStringSlice("env-file")
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return err
	}

	config.InitConfig()

	cfgFile, _ := root.PersistentFlags().GetString("config")
	if err := config.LoadConfigFromFile(config.ConfigFilePath(cfgFile)); err != nil {
		return err
	}

	config.SetupLogging(cmd.ErrOrStderr(), config.AppConfig.LogLevel)

	if err := config.AppConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Ensure database directory exists
	if usesFile(config.AppConfig.DatabaseType) && config.AppConfig.DatabasePath != "" {
		dbDir := filepath.Dir(config.AppConfig.DatabasePath)
		if dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o755); err != nil {
				return fmt.Errorf("error creating database directory: %w", err)
			}
		}
	}
	return nil
}

func usesFile(dbType string) bool {
	switch strings.ToLower(dbType) {
	case "pebble", "bolt", "bbolt", "sqlite", "sqlite3", "":
		return true
	}
	return false
}
