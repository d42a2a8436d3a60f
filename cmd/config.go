package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markb/driveshelf/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Application settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		value, err := settings.NewStore(database.DB).Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		store := settings.NewStore(database.DB)
		if args[0] == settings.KeyDownloadDir {
			return store.SetDownloadDir(args[1])
		}
		return store.Set(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
