package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markb/driveshelf/internal/auth"
	"github.com/markb/driveshelf/internal/db"
	"github.com/markb/driveshelf/internal/log"
	"github.com/markb/driveshelf/internal/secrets"
)

// Version information set via ldflags at build time
var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

var rootCmd = &cobra.Command{
	Use:     "driveshelf",
	Short:   "Sync a PDF bookshelf from Google Drive",
	Long:    `A local bookshelf synced from Google Drive folders, with OAuth device-local authorization.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logConfig := log.DefaultConfig()
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			logConfig.Level = level
		}
		return log.Init(logConfig)
	},
}

func init() {
	rootCmd.SetVersionTemplate("driveshelf version {{.Version}}\n")
	rootCmd.PersistentFlags().String("db", defaultDBPath(), "Path to database file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("keyring", false, "Store credentials and tokens in the OS keyring instead of the database")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDBPath() string {
	config, err := os.UserConfigDir()
	if err != nil {
		return "driveshelf.db"
	}
	return filepath.Join(config, "driveshelf", "driveshelf.db")
}

// openDatabase opens the configured database file, creating it with the
// schema on first use.
func openDatabase(cmd *cobra.Command) (*db.DB, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	database, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return database, nil
}

// openAuthStore picks the token store: the OS keyring when --keyring is set
// and available, the database otherwise.
func openAuthStore(cmd *cobra.Command, database *db.DB) (auth.Store, error) {
	useKeyring, _ := cmd.Flags().GetBool("keyring")
	if !useKeyring {
		return auth.NewDBStore(database.DB), nil
	}

	vault := secrets.NewKeyringVault()
	if !vault.Available() {
		return nil, fmt.Errorf("--keyring requested but no OS keyring is available")
	}
	return secrets.NewVaultStore(vault), nil
}

// openManager wires the auth manager over the selected store.
func openManager(cmd *cobra.Command, database *db.DB) (*auth.Manager, error) {
	store, err := openAuthStore(cmd, database)
	if err != nil {
		return nil, err
	}
	return auth.NewManager(store), nil
}
