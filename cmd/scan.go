package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"taulu.fi/dataset-curator/backend/library"
)

var scanDimensions bool

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Scan a dataset folder and list its images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := library.NewScanner(reporter)
		scanner.SetReadDimensions(scanDimensions)
		entries, err := scanner.Scan(args[0])
		if err != nil {
			return err
		}

		captioned := 0
		for _, entry := range entries {
			line := entry.RelativePath()
			if scanDimensions && entry.Width() > 0 {
				line += fmt.Sprintf("  %dx%d", entry.Width(), entry.Height())
			}
			if !entry.Rating().IsNone() {
				line += fmt.Sprintf("  [%s]", entry.Rating())
			}
			if entry.HasCaption() {
				line += fmt.Sprintf("  (%d tags)", len(entry.Tags()))
				captioned++
			}
			fmt.Println(line)
		}
		fmt.Printf("%d images, %d captioned\n", len(entries), captioned)
		return nil
	},
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <folder>",
	Short: "Find images with identical content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := library.NewScanner(reporter).FindDuplicates(args[0])
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Println("No duplicates found")
			return nil
		}
		for groupNumber, group := range groups {
			if groupNumber > 0 {
				fmt.Println()
			}
			for _, relativePath := range group {
				fmt.Println(relativePath)
			}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanDimensions, "dimensions", false, "read image dimensions while scanning")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(duplicatesCmd)
}
