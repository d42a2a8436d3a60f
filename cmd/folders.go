package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/markb/driveshelf/internal/bookshelf"
	"github.com/markb/driveshelf/internal/drive"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Manage synced Drive folders",
	Long:  `Commands for choosing which Google Drive folders are synced into the bookshelf.`,
}

var foldersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List synced folders",
	Long: `List the folders registered for syncing. With --remote, list the
folders in the Drive account instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		if remote, _ := cmd.Flags().GetBool("remote"); remote {
			manager, err := openManager(cmd, database)
			if err != nil {
				return err
			}
			folders, err := drive.NewClient(manager).ListFolders(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, f := range folders {
				fmt.Fprintf(w, "%s\t%s\n", f.ID, f.Name)
			}
			w.Flush()
			if len(folders) == 0 {
				fmt.Println("No folders found")
			}
			return nil
		}

		store := bookshelf.NewStore(database.DB)
		folders, err := store.Folders()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLAST SYNCED")
		for _, f := range folders {
			synced := "never"
			if f.LastSynced != nil {
				synced = f.LastSynced.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.FolderID, f.FolderName, synced)
		}
		w.Flush()
		if len(folders) == 0 {
			fmt.Println("No folders registered. Run 'driveshelf folders add <id> <name>'")
		}
		return nil
	},
}

var foldersAddCmd = &cobra.Command{
	Use:   "add <folder-id> <name>",
	Short: "Register a folder for syncing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		store := bookshelf.NewStore(database.DB)
		if err := store.AddFolder(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add folder: %w", err)
		}
		fmt.Printf("Added folder %q\n", args[1])
		return nil
	},
}

var foldersRemoveCmd = &cobra.Command{
	Use:   "remove <folder-id>",
	Short: "Stop syncing a folder",
	Long:  `Deactivate a folder. Its items are removed on the next sync; downloaded files stay on disk.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		store := bookshelf.NewStore(database.DB)
		if err := store.RemoveFolder(args[0]); err != nil {
			return fmt.Errorf("failed to remove folder: %w", err)
		}
		fmt.Printf("Removed folder %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(foldersCmd)
	foldersCmd.AddCommand(foldersListCmd)
	foldersCmd.AddCommand(foldersAddCmd)
	foldersCmd.AddCommand(foldersRemoveCmd)

	foldersListCmd.Flags().Bool("remote", false, "List folders in the Drive account")
}
