package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/markb/driveshelf/internal/bookshelf"
	"github.com/markb/driveshelf/internal/drive"
	"github.com/markb/driveshelf/internal/settings"
)

var shelfCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Browse and download the bookshelf",
}

var shelfListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookshelf items",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		items, err := bookshelf.NewStore(database.DB).Items()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FILE ID\tNAME\tSIZE\tSTATUS")
		for _, it := range items {
			size := "-"
			if it.FileSize != nil {
				size = fmt.Sprintf("%d", *it.FileSize)
			}
			status := it.DownloadStatus
			if status == bookshelf.StatusDownloading {
				status = fmt.Sprintf("downloading %.0f%%", it.DownloadProgress)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.DriveFileID, it.FileName, size, status)
		}
		w.Flush()
		if len(items) == 0 {
			fmt.Println("Bookshelf is empty. Run 'driveshelf sync'")
		}
		return nil
	},
}

var shelfDownloadCmd = &cobra.Command{
	Use:   "download <file-id>",
	Short: "Download a bookshelf item",
	Args:  cobra.ExactArgs(1),
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

		dir, err := settings.NewStore(database.DB).DownloadDir()
		if err != nil {
			return err
		}

		store := bookshelf.NewStore(database.DB)
		downloader := bookshelf.NewDownloader(store, drive.NewClient(manager), drive.NewRegistry(), dir)
		if err := downloader.Download(cmd.Context(), args[0]); err != nil {
			return err
		}

		item, err := store.Item(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Downloaded to %s\n", *item.LocalPath)
		return nil
	},
}

var shelfRmLocalCmd = &cobra.Command{
	Use:   "rm-local <file-id>",
	Short: "Delete an item's downloaded file",
	Long:  `Delete the local copy of an item and reset it to pending. The Drive file is untouched.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := bookshelf.NewStore(database.DB).DeleteLocalCopy(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed local copy of %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shelfCmd)
	shelfCmd.AddCommand(shelfListCmd)
	shelfCmd.AddCommand(shelfDownloadCmd)
	shelfCmd.AddCommand(shelfRmLocalCmd)
}
