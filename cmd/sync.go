package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markb/driveshelf/internal/bookshelf"
	"github.com/markb/driveshelf/internal/drive"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the bookshelf against Drive",
	Long: `Reconcile the bookshelf with the registered Drive folders: new PDFs
are added, changed metadata is updated, and files deleted on Drive are removed
from the shelf. Downloaded files are never deleted by a sync.`,
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

		store := bookshelf.NewStore(database.DB)
		if err := store.ResetStaleDownloads(); err != nil {
			return err
		}
		if _, err := store.VerifyLocalFiles(); err != nil {
			return err
		}

		syncer := bookshelf.NewSyncer(store, drive.NewClient(manager))
		res, err := syncer.SyncAll(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Sync complete: %d new, %d updated, %d removed\n",
			res.NewFiles, res.UpdatedFiles, res.RemovedFiles)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
