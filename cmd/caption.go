package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/backend/caption"
	"taulu.fi/dataset-curator/backend/captioner"
	"taulu.fi/dataset-curator/backend/library"
)

var (
	captionWrite       bool
	captionOnlyMissing bool
)

var captionCmd = &cobra.Command{
	Use:   "caption <folder> [image...]",
	Short: "Generate captions for images",
	Long: `Generate captions through the configured backend ("lmstudio" for an
OpenAI compatible chat endpoint, "script" for a local tagger script).
Without explicit images the whole inventory is captioned. With --write
the results are stored as .txt sidecars next to the images.`,
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
				if captionOnlyMissing && entry.HasCaption() {
					continue
				}
				relativePaths = append(relativePaths, entry.RelativePath())
			}
		}
		if len(relativePaths) == 0 {
			fmt.Println("Nothing to caption")
			return nil
		}

		imagePaths := make([]string, len(relativePaths))
		for i, relativePath := range relativePaths {
			imagePaths[i] = filepath.Join(root, filepath.FromSlash(relativePath))
		}

		backend, err := newCaptionBackend()
		if err != nil {
			return err
		}
		batch := captioner.NewBatchCaptioner(backend, reporter, appConfig.Captioner.Concurrency)
		results := batch.CaptionBatch(cmd.Context(), imagePaths)

		failures := 0
		for i, result := range results {
			if !result.Success() {
				failures++
				fmt.Fprintf(os.Stderr, "%s: %s\n", relativePaths[i], result.ErrorMessage())
				continue
			}
			fmt.Printf("%s: %s\n", relativePaths[i], result.Caption())
			if captionWrite {
				if err := caption.Write(result.Path(), caption.ParseTags(result.Caption())); err != nil {
					fmt.Fprintf(os.Stderr, "Could not write caption for %s: %s\n", relativePaths[i], err)
				}
			}
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d images could not be captioned", failures, len(results))
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the caption backend is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.Captioner.Backend == "script" {
			if _, err := os.Stat(appConfig.Captioner.ScriptPath); err != nil {
				return fmt.Errorf("tagger script not found: %s", appConfig.Captioner.ScriptPath)
			}
			fmt.Printf("Tagger script found: %s\n", appConfig.Captioner.ScriptPath)
			return nil
		}

		backend := captioner.NewLmStudioCaptioner(appConfig.Captioner).(*captioner.LmStudioCaptioner)
		models, err := backend.TestConnection(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Connected to %s, %d models loaded\n", appConfig.Captioner.BaseURL, len(models))
		for _, model := range models {
			fmt.Printf("  %s\n", model)
		}
		return nil
	},
}

func newCaptionBackend() (api.Captioner, error) {
	switch appConfig.Captioner.Backend {
	case "script":
		return captioner.NewScriptCaptioner(appConfig.Captioner), nil
	case "", "lmstudio":
		return captioner.NewLmStudioCaptioner(appConfig.Captioner), nil
	default:
		return nil, fmt.Errorf("unknown caption backend '%s'", appConfig.Captioner.Backend)
	}
}

func init() {
	captionCmd.Flags().BoolVar(&captionWrite, "write", false, "write captions to .txt sidecars")
	captionCmd.Flags().BoolVar(&captionOnlyMissing, "only-missing", false, "skip images that already have a caption")
	rootCmd.AddCommand(captionCmd)
	rootCmd.AddCommand(checkCmd)
}
