package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		manager, err := openManager(cmd, database)
		if err != nil {
			return err
		}

		status, err := manager.Status()
		if err != nil {
			return err
		}

		switch {
		case !status.Configured:
			fmt.Println("Not configured. Run 'driveshelf configure' first.")
		case !status.Authenticated:
			fmt.Println("Configured but not authorized. Run 'driveshelf login'.")
		case status.AccountEmail != "":
			fmt.Printf("Authorized as %s\n", status.AccountEmail)
		default:
			fmt.Println("Authorized")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
