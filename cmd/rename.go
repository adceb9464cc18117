package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taulu.fi/dataset-curator/backend/library"
	"taulu.fi/dataset-curator/backend/renamer"
)

var (
	renamePrefix string
	renameStart  int
	renamePad    int
)

var renameCmd = &cobra.Command{
	Use:   "rename <folder> [image...]",
	Short: "Rename images to <prefix>_<index>.<ext>",
	Long: `Rename the given images (relative paths) to a sequential
<prefix>_<index>.<ext> scheme. Without explicit images the whole sorted
inventory is renamed. Caption sidecars move with their images and the
rating and crop status entries are migrated to the new paths.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]
		relativePaths := args[1:]
		if len(relativePaths) == 0 {
			scanner := library.NewScanner(reporter)
			scanner.SetReadDimensions(false)
			entries, err := scanner.Scan(root)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				relativePaths = append(relativePaths, entry.RelativePath())
			}
		}

		result, err := renamer.NewRenamer(reporter).RenameBatch(root, relativePaths, renamePrefix, renameStart, renamePad)
		if err != nil {
			return err
		}

		fmt.Printf("%d of %d files renamed\n", result.RenamedCount(), len(relativePaths))
		if !result.Success() {
			for _, message := range result.Errors() {
				fmt.Fprintln(os.Stderr, message)
			}
			return fmt.Errorf("%d files could not be renamed", len(result.Errors()))
		}
		return nil
	},
}

func init() {
	renameCmd.Flags().StringVar(&renamePrefix, "prefix", "", "file name prefix (required)")
	renameCmd.Flags().IntVar(&renameStart, "start", 1, "first index")
	renameCmd.Flags().IntVar(&renamePad, "pad", 3, "zero padding width, 1 to 12")
	_ = renameCmd.MarkFlagRequired("prefix")
	rootCmd.AddCommand(renameCmd)
}
