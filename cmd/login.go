package cmd

import (
	"errors"
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/markb/driveshelf/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize access to Google Drive",
	Long: `Start the OAuth authorization flow.

A browser window opens for consent; the command waits for Google to redirect
back to the local callback listener. Use --no-browser to print the URL instead
of opening it.`,
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

		authURL, err := manager.StartFlow(cmd.Context())
		if errors.Is(err, auth.ErrNotConfigured) {
			return fmt.Errorf("no credentials configured. Run 'driveshelf configure' first")
		}
		if err != nil {
			return err
		}

		noBrowser, _ := cmd.Flags().GetBool("no-browser")
		if noBrowser {
			fmt.Printf("Open this URL in your browser:\n\n%s\n\n", authURL)
		} else if err := browser.OpenURL(authURL); err != nil {
			fmt.Printf("Could not open a browser. Open this URL manually:\n\n%s\n\n", authURL)
		}

		fmt.Println("Waiting for authorization...")
		manager.Wait()

		status, err := manager.Status()
		if err != nil {
			return err
		}
		if !status.Authenticated {
			return fmt.Errorf("authorization did not complete")
		}
		if status.AccountEmail != "" {
			fmt.Printf("Authorized as %s\n", status.AccountEmail)
		} else {
			fmt.Println("Authorized")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().Bool("no-browser", false, "Print the authorization URL instead of opening a browser")
}
