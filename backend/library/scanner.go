// Package library builds the image inventory for a project root: it walks
// the directory tree, joins each image against its caption sidecar and the
// rating store, and finds exact duplicates by content hash.
package library

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/backend/caption"
	"taulu.fi/dataset-curator/backend/store"
	"taulu.fi/dataset-curator/common/logger"
	"taulu.fi/dataset-curator/common/util"
)

const (
	progressBatchSize = 50
	scanProgressName  = "scan"
)

var supportedFileEndings = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

func isSupported(extension string) bool {
	return supportedFileEndings[strings.ToLower(extension)]
}

// IsSupportedImage tells whether the file name carries one of the image
// extensions the scanner picks up.
func IsSupportedImage(fileName string) bool {
	return isSupported(filepath.Ext(fileName))
}

type Scanner struct {
	reporter       api.ProgressReporter
	readDimensions bool
}

func NewScanner(reporter api.ProgressReporter) *Scanner {
	return &Scanner{
		reporter:       reporter,
		readDimensions: true,
	}
}

// SetReadDimensions toggles the header-only dimension probe per entry.
func (s *Scanner) SetReadDimensions(readDimensions bool) {
	s.readDimensions = readDimensions
}

// Scan walks root recursively (symbolic links are not followed) and
// returns one entry per supported image, sorted by relative path. Ratings
// come from the rating store via a tolerant load; caption tags from the
// sidecar files. Progress is reported after every batch and once more at
// completion; a total of zero means the total is not yet known.
func (s *Scanner) Scan(root string) ([]*apitype.ImageEntry, error) {
	canonicalRoot, err := util.ResolveRoot(root)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	ratings := store.LoadRatingStoreOrEmpty(root)

	var entries []*apitype.ImageEntry
	walkErr := filepath.WalkDir(canonicalRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn.Printf("Skipping '%s': %s", path, err)
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !isSupported(filepath.Ext(path)) {
			return nil
		}

		relative, err := filepath.Rel(canonicalRoot, path)
		if err != nil {
			logger.Warn.Printf("Skipping '%s': %s", path, err)
			return nil
		}
		relative = filepath.ToSlash(relative)

		entry := apitype.NewImageEntry(path, relative, d.Name())

		if exists, tags, err := caption.Read(path); err != nil {
			logger.Warn.Printf("Could not read caption for '%s': %s", path, err)
		} else if exists {
			entry.SetCaption(tags)
		}

		entry.SetRating(ratings.Rating(relative))

		if s.readDimensions {
			if width, height, ok := readHeaderDimensions(path); ok {
				entry.SetDimensions(width, height)
			}
		}
		if info, err := d.Info(); err == nil {
			entry.SetByteSize(info.Size())
		}

		entries = append(entries, entry)
		if len(entries)%progressBatchSize == 0 {
			s.reporter.Update(scanProgressName, len(entries), 0)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	// Deterministic bytewise ordering; sequential export naming depends
	// on this being stable across repeated scans.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath() < entries[j].RelativePath()
	})

	s.reporter.Update(scanProgressName, len(entries), len(entries))
	logger.Debug.Printf("Scanned %d images under '%s' in %s", len(entries), root, time.Since(startTime).String())
	return entries, nil
}

// readHeaderDimensions probes width and height from the image header
// without decoding pixel data, transposing for rotating EXIF orientations.
func readHeaderDimensions(path string) (int, int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	config, _, err := image.DecodeConfig(f)
	if err != nil || config.Width <= 0 || config.Height <= 0 {
		return 0, 0, false
	}

	width, height := config.Width, config.Height
	if util.OrientationSwapsDimensions(util.LoadOrientation(path)) {
		width, height = height, width
	}
	return width, height, true
}
