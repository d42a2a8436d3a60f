package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/markb/driveshelf/internal/auth"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store Google OAuth client credentials",
	Long: `Store the OAuth client ID and secret used for the authorization flow.

Create a "Desktop app" OAuth client in the Google Cloud console and paste its
credentials here. The secret is prompted without echo when not passed as a flag.

Examples:
  driveshelf configure --client-id xyz.apps.googleusercontent.com
  driveshelf configure --forget`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		store, err := openAuthStore(cmd, database)
		if err != nil {
			return err
		}

		if forget, _ := cmd.Flags().GetBool("forget"); forget {
			if err := store.DeleteCredentials(); err != nil {
				return fmt.Errorf("failed to delete credentials: %w", err)
			}
			fmt.Println("Credentials and tokens removed")
			return nil
		}

		clientID, _ := cmd.Flags().GetString("client-id")
		clientSecret, _ := cmd.Flags().GetString("client-secret")

		if clientID == "" {
			clientID, err = promptLine("Client ID: ")
			if err != nil {
				return err
			}
		}
		if clientID == "" {
			return fmt.Errorf("a client ID is required")
		}

		if clientSecret == "" {
			clientSecret, err = promptSecret("Client secret: ")
			if err != nil {
				return err
			}
		}

		if err := store.SaveCredentials(&auth.Credentials{ClientID: clientID, ClientSecret: clientSecret}); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}
		fmt.Println("Credentials saved. Run 'driveshelf login' to authorize.")
		return nil
	},
}

// stdinReader is reused for non-terminal input to avoid losing buffered data
var stdinReader *bufio.Reader

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	if stdinReader == nil {
		stdinReader = bufio.NewReader(os.Stdin)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	// Hide input on a real terminal
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	// Fallback for piped input
	if stdinReader == nil {
		stdinReader = bufio.NewReader(os.Stdin)
	}
	secret, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(secret), nil
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().String("client-id", "", "OAuth client ID")
	configureCmd.Flags().String("client-secret", "", "OAuth client secret (prompted when omitted)")
	configureCmd.Flags().Bool("forget", false, "Delete the stored credentials and tokens")
}
