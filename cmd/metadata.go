package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/backend/caption"
	"taulu.fi/dataset-curator/backend/store"
	"taulu.fi/dataset-curator/common/util"
)

var (
	rateClearAll bool
	cropClearAll bool

	tagAdd    string
	tagRemove string
	tagSet    string
)

var rateCmd = &cobra.Command{
	Use:   "rate <folder> [image] [none|good|bad|needs_edit]",
	Short: "Show or set image ratings",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ratings, err := store.LoadRatingStore(args[0])
		if err != nil {
			return err
		}

		if rateClearAll {
			cleared := ratings.Clear()
			if err := ratings.Save(); err != nil {
				return err
			}
			fmt.Printf("%d ratings cleared\n", cleared)
			return nil
		}

		switch len(args) {
		case 1:
			for relativePath, value := range ratings.All() {
				fmt.Printf("%s: %s\n", relativePath, value)
			}
		case 2:
			fmt.Println(ratings.Rating(args[1]))
		case 3:
			rating, err := parseRating(args[2])
			if err != nil {
				return err
			}
			ratings.SetRating(args[1], rating)
			if err := ratings.Save(); err != nil {
				return err
			}
		}
		return nil
	},
}

func parseRating(value string) (apitype.Rating, error) {
	switch value {
	case "none", "good", "bad", "needs_edit":
		return apitype.RatingFromString(value), nil
	default:
		return apitype.RatingNone, fmt.Errorf("unknown rating '%s'", value)
	}
}

var cropCmd = &cobra.Command{
	Use:   "crop <folder> [image] [status]",
	Short: "Show or set image crop status",
	Long: `Show or set the crop status of an image. Setting the status to
"uncropped" removes the entry, any other non-empty value is stored as is.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, err := store.LoadCropStatusStore(args[0])
		if err != nil {
			return err
		}

		if cropClearAll {
			cleared := statuses.Clear()
			if err := statuses.Save(); err != nil {
				return err
			}
			fmt.Printf("%d statuses cleared\n", cleared)
			return nil
		}

		switch len(args) {
		case 1:
			for relativePath, value := range statuses.All() {
				fmt.Printf("%s: %s\n", relativePath, value)
			}
		case 2:
			fmt.Println(statuses.Status(args[1]))
		case 3:
			status := strings.TrimSpace(args[2])
			if status == "" {
				return fmt.Errorf("crop status cannot be blank")
			}
			statuses.SetStatus(args[1], apitype.CropStatus(status))
			if err := statuses.Save(); err != nil {
				return err
			}
		}
		return nil
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag <folder> <image>",
	Short: "Show or edit the caption tags of an image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := util.ResolveRoot(args[0])
		if err != nil {
			return err
		}
		imagePath := joinRelative(root, args[1])

		switch {
		case tagSet != "":
			tags := caption.ParseTags(tagSet)
			if err := caption.Write(imagePath, tags); err != nil {
				return err
			}
			printTags(tags)
		case tagAdd != "":
			tags, err := caption.AddTag(imagePath, tagAdd)
			if err != nil {
				return err
			}
			printTags(tags)
		case tagRemove != "":
			tags, err := caption.RemoveTag(imagePath, tagRemove)
			if err != nil {
				return err
			}
			printTags(tags)
		default:
			exists, tags, err := caption.Read(imagePath)
			if err != nil {
				return err
			}
			if !exists {
				fmt.Println("No caption")
				return nil
			}
			printTags(tags)
		}
		return nil
	},
}

func joinRelative(root string, relativePath string) string {
	return filepath.Join(root, filepath.FromSlash(store.NormalizeKey(relativePath)))
}

func printTags(tags []string) {
	fmt.Println(strings.Join(tags, ", "))
}

func init() {
	rateCmd.Flags().BoolVar(&rateClearAll, "clear-all", false, "remove all ratings")
	cropCmd.Flags().BoolVar(&cropClearAll, "clear-all", false, "remove all crop statuses")
	tagCmd.Flags().StringVar(&tagAdd, "add", "", "add a tag")
	tagCmd.Flags().StringVar(&tagRemove, "remove", "", "remove a tag, case-insensitive")
	tagCmd.Flags().StringVar(&tagSet, "set", "", "replace all tags with this comma separated list")
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(cropCmd)
	rootCmd.AddCommand(tagCmd)
}
