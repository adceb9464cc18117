package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"taulu.fi/dataset-curator/backend/export"
)

var (
	exportOnlyCaptioned bool
	exportSequential    bool
	exportTrigger       string
	exportFormat        string
	exportPaths         []string
	exportByRating      bool
	exportKohyaRepeats  int
	exportKohyaConcept  string
)

var exportCmd = &cobra.Command{
	Use:   "export <source> <dest>",
	Short: "Export images and captions into a training folder",
	Long: `Copy images and their captions into a destination folder. Supports
sequential naming, a trigger word prefix on captions, the Kohya
<repeat>_<concept> subfolder convention, a metadata.json caption format
and grouping the output by rating.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != export.CaptionFormatTxt && exportFormat != export.CaptionFormatMetadata {
			return fmt.Errorf("unknown caption format '%s'", exportFormat)
		}

		options := &export.Options{
			SourcePath:       args[0],
			DestPath:         args[1],
			OnlyCaptioned:    exportOnlyCaptioned,
			TriggerWord:      exportTrigger,
			SequentialNaming: exportSequential,
			CaptionFormat:    exportFormat,
		}
		if cmd.Flags().Changed("paths") {
			options.RelativePaths = exportPaths
		}
		if exportKohyaConcept != "" {
			options.KohyaFolder = &export.KohyaFolder{
				RepeatCount: exportKohyaRepeats,
				ConceptName: exportKohyaConcept,
			}
		}

		exporter := export.NewExporter(reporter)
		var result *export.Result
		var err error
		if exportByRating {
			result, err = exporter.ExportByRating(options)
		} else {
			result, err = exporter.Export(options)
		}
		if err != nil {
			return err
		}

		fmt.Printf("%d images exported to %s", result.ExportedCount(), result.OutputPath())
		if result.SkippedCount() > 0 {
			fmt.Printf(" (%d skipped)", result.SkippedCount())
		}
		fmt.Println()
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportOnlyCaptioned, "only-captioned", false, "skip images without a caption sidecar")
	exportCmd.Flags().BoolVar(&exportSequential, "sequential", false, "rename outputs to 0001.ext, 0002.ext")
	exportCmd.Flags().StringVar(&exportTrigger, "trigger", "", "trigger word prepended to every caption")
	exportCmd.Flags().StringVar(&exportFormat, "format", export.CaptionFormatTxt, "caption format: txt or metadata")
	exportCmd.Flags().StringSliceVar(&exportPaths, "paths", nil, "only export these relative paths")
	exportCmd.Flags().BoolVar(&exportByRating, "by-rating", false, "group output into good/, bad/ and needs_edit/")
	exportCmd.Flags().IntVar(&exportKohyaRepeats, "kohya-repeats", 10, "repeat count for the Kohya folder name")
	exportCmd.Flags().StringVar(&exportKohyaConcept, "kohya-concept", "", "concept name, enables the Kohya folder layout")
	rootCmd.AddCommand(exportCmd)
}
