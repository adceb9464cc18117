// Package export copies curated images and their captions into a
// training-ready folder layout: flat, Kohya <repeat>_<concept>, or
// grouped by rating.
package export

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/backend/caption"
	"taulu.fi/dataset-curator/backend/library"
	"taulu.fi/dataset-curator/backend/store"
	"taulu.fi/dataset-curator/common/logger"
	"taulu.fi/dataset-curator/common/util"
)

const (
	CaptionFormatTxt      = "txt"
	CaptionFormatMetadata = "metadata"

	metadataFileName   = "metadata.json"
	defaultConceptName = "concept"

	exportProgressName = "export"
)

// KohyaFolder describes the <repeat>_<concept> subfolder convention the
// Kohya trainers expect.
type KohyaFolder struct {
	RepeatCount int
	ConceptName string
}

type Options struct {
	SourcePath string
	DestPath   string
	// OnlyCaptioned skips images without a caption sidecar.
	OnlyCaptioned bool
	// RelativePaths, when non-nil, whitelists which images to export.
	RelativePaths []string
	// TriggerWord is prepended to every exported caption.
	TriggerWord string
	// SequentialNaming renames outputs to 0001.ext, 0002.ext over the
	// sorted inventory instead of keeping original file names.
	SequentialNaming bool
	// CaptionFormat is "txt" (sidecar per image, the default) or
	// "metadata" (single metadata.json mapping file name to caption).
	CaptionFormat string
	KohyaFolder   *KohyaFolder
}

type Result struct {
	exportedCount int
	skippedCount  int
	outputPath    string
}

func (s *Result) ExportedCount() int {
	return s.exportedCount
}

func (s *Result) SkippedCount() int {
	return s.skippedCount
}

func (s *Result) OutputPath() string {
	return s.outputPath
}

type Exporter struct {
	reporter api.ProgressReporter
}

func NewExporter(reporter api.ProgressReporter) *Exporter {
	return &Exporter{
		reporter: reporter,
	}
}

// Export copies the selected images (and captions) into the destination
// folder. Unreadable source images are counted as skipped, not fatal.
func (s *Exporter) Export(options *Options) (*Result, error) {
	images, err := s.collectImages(options)
	if err != nil {
		return nil, err
	}

	destDir := options.DestPath
	if options.KohyaFolder != nil {
		destDir = filepath.Join(destDir, kohyaFolderName(options.KohyaFolder))
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create '%s': %w", destDir, apitype.ErrIoFailure)
	}

	result := &Result{outputPath: options.DestPath}
	useMetadata := options.CaptionFormat == CaptionFormatMetadata
	metadata := map[string]string{}

	s.reporter.Update(exportProgressName, 0, len(images))
	for index, imagePath := range images {
		newName := outputName(imagePath, index, options.SequentialNaming)
		if err := util.CopyFile(filepath.Dir(imagePath), filepath.Base(imagePath), destDir, newName); err != nil {
			logger.Warn.Printf("Could not copy '%s': %s", imagePath, err)
			result.skippedCount++
			s.reporter.Update(exportProgressName, index+1, len(images))
			continue
		}

		captionText := s.readCaption(imagePath, options.TriggerWord)
		if useMetadata {
			metadata[newName] = captionText
		} else if captionText != "" {
			captionFile := caption.PathFor(filepath.Join(destDir, newName))
			if err := os.WriteFile(captionFile, []byte(captionText), 0644); err != nil {
				logger.Warn.Printf("Could not write caption '%s': %s", captionFile, err)
			}
		}

		result.exportedCount++
		s.reporter.Update(exportProgressName, index+1, len(images))
	}

	if useMetadata {
		if err := s.writeMetadata(destDir, metadata); err != nil {
			return nil, err
		}
	}

	logger.Info.Printf("Exported %d images to '%s' (%d skipped)",
		result.exportedCount, destDir, result.skippedCount)
	return result, nil
}

// ExportByRating groups the export into good/, bad/ and needs_edit/
// subfolders under the destination. Unrated images are left out.
func (s *Exporter) ExportByRating(options *Options) (*Result, error) {
	canonicalRoot, err := util.ResolveRoot(options.SourcePath)
	if err != nil {
		return nil, err
	}
	ratings := store.LoadRatingStoreOrEmpty(options.SourcePath)

	byRating := map[apitype.Rating][]string{}
	err = walkImages(canonicalRoot, func(imagePath string, relativePath string) {
		rating := ratings.Rating(relativePath)
		if rating.IsNone() {
			return
		}
		byRating[rating] = append(byRating[rating], imagePath)
	})
	if err != nil {
		return nil, err
	}

	total := &Result{outputPath: options.DestPath}
	for _, rating := range []apitype.Rating{apitype.RatingGood, apitype.RatingBad, apitype.RatingNeedsEdit} {
		images := byRating[rating]
		if len(images) == 0 {
			continue
		}
		sort.Strings(images)

		subDir := filepath.Join(options.DestPath, string(rating))
		if err := os.MkdirAll(subDir, 0755); err != nil {
			return nil, fmt.Errorf("could not create '%s': %w", subDir, apitype.ErrIoFailure)
		}

		for index, imagePath := range images {
			newName := outputName(imagePath, index, options.SequentialNaming)
			if err := util.CopyFile(filepath.Dir(imagePath), filepath.Base(imagePath), subDir, newName); err != nil {
				logger.Warn.Printf("Could not copy '%s': %s", imagePath, err)
				total.skippedCount++
				continue
			}
			if captionText := s.readCaption(imagePath, options.TriggerWord); captionText != "" {
				captionFile := caption.PathFor(filepath.Join(subDir, newName))
				if err := os.WriteFile(captionFile, []byte(captionText), 0644); err != nil {
					logger.Warn.Printf("Could not write caption '%s': %s", captionFile, err)
				}
			}
			total.exportedCount++
		}
	}

	logger.Info.Printf("Exported %d images by rating to '%s' (%d skipped)",
		total.exportedCount, options.DestPath, total.skippedCount)
	return total, nil
}

func (s *Exporter) collectImages(options *Options) ([]string, error) {
	canonicalRoot, err := util.ResolveRoot(options.SourcePath)
	if err != nil {
		return nil, err
	}

	var whitelist map[string]bool
	if options.RelativePaths != nil {
		whitelist = map[string]bool{}
		for _, relativePath := range options.RelativePaths {
			whitelist[store.NormalizeKey(relativePath)] = true
		}
	}

	var images []string
	err = walkImages(canonicalRoot, func(imagePath string, relativePath string) {
		if whitelist != nil && !whitelist[relativePath] {
			return
		}
		if options.OnlyCaptioned {
			if _, err := os.Stat(caption.PathFor(imagePath)); err != nil {
				return
			}
		}
		images = append(images, imagePath)
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(images)
	return images, nil
}

func walkImages(canonicalRoot string, visit func(imagePath string, relativePath string)) error {
	return filepath.WalkDir(canonicalRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn.Printf("Skipping '%s': %s", path, err)
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !library.IsSupportedImage(d.Name()) {
			return nil
		}
		relativePath, err := filepath.Rel(canonicalRoot, path)
		if err != nil {
			return nil
		}
		visit(path, filepath.ToSlash(relativePath))
		return nil
	})
}

func (s *Exporter) readCaption(imagePath string, triggerWord string) string {
	_, tags, err := caption.Read(imagePath)
	if err != nil {
		logger.Warn.Printf("Could not read caption for '%s': %s", imagePath, err)
		return ""
	}
	captionText := strings.Join(tags, ", ")
	triggerWord = strings.TrimSpace(triggerWord)
	if triggerWord == "" {
		return captionText
	}
	if captionText == "" {
		return triggerWord
	}
	return triggerWord + ", " + captionText
}

func (s *Exporter) writeMetadata(destDir string, metadata map[string]string) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode metadata: %w", apitype.ErrIoFailure)
	}
	metadataPath := filepath.Join(destDir, metadataFileName)
	if err := os.WriteFile(metadataPath, data, 0644); err != nil {
		return fmt.Errorf("could not write '%s': %w", metadataPath, apitype.ErrIoFailure)
	}
	return nil
}

func outputName(imagePath string, index int, sequential bool) string {
	if !sequential {
		return filepath.Base(imagePath)
	}
	extension := strings.TrimPrefix(filepath.Ext(imagePath), ".")
	if extension == "" {
		extension = "png"
	}
	return fmt.Sprintf("%04d.%s", index+1, extension)
}

func kohyaFolderName(folder *KohyaFolder) string {
	name := strings.TrimSpace(folder.ConceptName)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = defaultConceptName
	}
	return fmt.Sprintf("%d_%s", folder.RepeatCount, name)
}
