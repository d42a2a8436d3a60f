package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard stored Drive tokens",
	Long:  `Remove the stored access and refresh tokens. Client credentials are kept.`,
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

		if err := manager.Logout(); err != nil {
			return fmt.Errorf("failed to log out: %w", err)
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
