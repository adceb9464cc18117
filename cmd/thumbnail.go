package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taulu.fi/dataset-curator/backend/thumbnailer"
)

var (
	thumbnailSize    int
	thumbnailOut     string
	thumbnailDataURL bool
)

var thumbnailCmd = &cobra.Command{
	Use:   "thumbnail <image>",
	Short: "Render a cached thumbnail for an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cacheDir := appConfig.Thumbnails.Dir
		if cacheDir == "" {
			cacheDir = thumbnailer.DefaultCacheDir()
		}
		size := thumbnailSize
		if size == 0 {
			size = appConfig.Thumbnails.Size
		}

		cache, err := thumbnailer.NewCache(cacheDir, thumbnailer.NewImagingCodec())
		if err != nil {
			return err
		}

		if thumbnailDataURL {
			dataURL, err := cache.DataURL(args[0], size)
			if err != nil {
				return err
			}
			fmt.Println(dataURL)
			return nil
		}

		data, err := cache.GetOrRender(args[0], size)
		if err != nil {
			return err
		}
		if thumbnailOut != "" {
			if err := os.WriteFile(thumbnailOut, data, 0644); err != nil {
				return err
			}
			fmt.Printf("Thumbnail written to %s (%d bytes)\n", thumbnailOut, len(data))
			return nil
		}
		fmt.Printf("Thumbnail rendered, %d bytes, cached under %s\n", len(data), cache.Dir())
		return nil
	},
}

func init() {
	thumbnailCmd.Flags().IntVar(&thumbnailSize, "size", 0, "thumbnail size in pixels, longest side")
	thumbnailCmd.Flags().StringVar(&thumbnailOut, "out", "", "write the thumbnail JPEG to this file")
	thumbnailCmd.Flags().BoolVar(&thumbnailDataURL, "data-url", false, "print the thumbnail as a base64 data URL")
	rootCmd.AddCommand(thumbnailCmd)
}
