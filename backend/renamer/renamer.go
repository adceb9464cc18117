// Package renamer renames batches of images to a sequential
// prefix_index.ext scheme, keeping caption sidecars and the metadata
// stores in step. A sidecar failure rolls back the primary rename so a
// half-renamed pair is never observable.
package renamer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/backend/caption"
	"taulu.fi/dataset-curator/backend/store"
	"taulu.fi/dataset-curator/common/logger"
	"taulu.fi/dataset-curator/common/util"
)

const (
	minZeroPad = 1
	maxZeroPad = 12

	renameProgressName = "rename"
	defaultExtension   = "png"
)

type Renamer struct {
	reporter api.ProgressReporter
}

func NewRenamer(reporter api.ProgressReporter) *Renamer {
	return &Renamer{
		reporter: reporter,
	}
}

// Result is the structured outcome of a batch: per-item errors never abort
// the batch, so the caller always gets counts plus described failures.
type Result struct {
	renamedCount int
	errors       []string
	migrations   []migration
}

type migration struct {
	oldRelative string
	newRelative string
}

func (s *Result) Success() bool {
	return len(s.errors) == 0
}

func (s *Result) RenamedCount() int {
	return s.renamedCount
}

func (s *Result) Errors() []string {
	return s.errors
}

// RenameBatch renames the given relative paths under root to
// <prefix>_<index>.<ext> with the index zero-padded to zeroPad digits
// (clamped to [1,12]). The index advances once per input, including failed
// ones, so numbering always reflects position. Whole-call preconditions
// (missing root, empty prefix) fail before any side effect.
func (s *Renamer) RenameBatch(root string, relativePaths []string, prefix string, startIndex int, zeroPad int) (*Result, error) {
	canonicalRoot, err := util.ResolveRoot(root)
	if err != nil {
		return nil, err
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("prefix cannot be empty: %w", apitype.ErrInvalidPath)
	}

	if zeroPad < minZeroPad {
		zeroPad = minZeroPad
	}
	if zeroPad > maxZeroPad {
		zeroPad = maxZeroPad
	}

	result := &Result{}
	index := startIndex
	for itemNumber, relativePath := range relativePaths {
		s.reporter.Update(renameProgressName, itemNumber, len(relativePaths))
		s.renameOne(canonicalRoot, relativePath, prefix, index, zeroPad, result)
		index++
	}
	s.reporter.Update(renameProgressName, len(relativePaths), len(relativePaths))

	s.migrateStores(root, result)
	return result, nil
}

func (s *Renamer) renameOne(canonicalRoot string, relativePath string, prefix string, index int, zeroPad int, result *Result) {
	oldPath := filepath.Join(canonicalRoot, filepath.FromSlash(relativePath))

	info, err := os.Stat(oldPath)
	if err != nil || info.IsDir() {
		result.errors = append(result.errors, fmt.Sprintf("Not found: %s", relativePath))
		return
	}

	// Traversal guard: the resolved path must stay under the project root.
	canonicalOld, err := filepath.EvalSymlinks(oldPath)
	if err != nil {
		result.errors = append(result.errors, fmt.Sprintf("Invalid path %s: %s", relativePath, err))
		return
	}
	if !isUnderRoot(canonicalRoot, canonicalOld) {
		result.errors = append(result.errors, fmt.Sprintf("Path outside project: %s", relativePath))
		return
	}

	extension := strings.TrimPrefix(filepath.Ext(oldPath), ".")
	if extension == "" {
		extension = defaultExtension
	}

	newName := fmt.Sprintf("%s_%0*d.%s", prefix, zeroPad, index, extension)
	newPath := filepath.Join(filepath.Dir(oldPath), newName)

	if newPath == oldPath {
		// Already carries the target name; still counts as renamed.
		result.renamedCount++
		return
	}
	if _, err := os.Stat(newPath); err == nil {
		result.errors = append(result.errors, fmt.Sprintf("Target already exists: %s", newName))
		return
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		result.errors = append(result.errors, fmt.Sprintf("Rename %s: %s", relativePath, err))
		return
	}

	// The caption sidecar moves with the image or not at all.
	captionOld := caption.PathFor(oldPath)
	captionNew := caption.PathFor(newPath)
	if _, err := os.Stat(captionOld); err == nil {
		if _, err := os.Stat(captionNew); err == nil {
			s.rollback(newPath, oldPath)
			result.errors = append(result.errors, fmt.Sprintf("Caption target exists: %s", newName))
			return
		}
		if err := os.Rename(captionOld, captionNew); err != nil {
			s.rollback(newPath, oldPath)
			result.errors = append(result.errors, fmt.Sprintf("Failed to rename caption for: %s", relativePath))
			return
		}
	}

	result.renamedCount++
	newRelative, err := filepath.Rel(canonicalRoot, newPath)
	if err == nil {
		result.migrations = append(result.migrations, migration{
			oldRelative: filepath.ToSlash(filepath.FromSlash(relativePath)),
			newRelative: filepath.ToSlash(newRelative),
		})
	}
}

func (s *Renamer) rollback(from string, to string) {
	if err := os.Rename(from, to); err != nil {
		logger.Error.Printf("Could not roll back rename of '%s': %s", to, err)
	}
}

func isUnderRoot(canonicalRoot string, path string) bool {
	relative, err := filepath.Rel(canonicalRoot, path)
	if err != nil {
		return false
	}
	return relative != ".." && !strings.HasPrefix(relative, ".."+string(filepath.Separator))
}

// migrateStores relabels the rating and crop-status keys for the renamed
// files. The files are already moved, so store problems are warned about
// rather than rolled back; the file system stays authoritative.
func (s *Renamer) migrateStores(root string, result *Result) {
	if len(result.migrations) == 0 {
		return
	}

	if ratings, err := store.LoadRatingStore(root); err != nil {
		logger.Warn.Printf("Skipping rating migration: %s", err)
	} else {
		s.migrateInto(ratings.PathKeyedStore, result.migrations)
	}
	if statuses, err := store.LoadCropStatusStore(root); err != nil {
		logger.Warn.Printf("Skipping crop status migration: %s", err)
	} else {
		s.migrateInto(statuses.PathKeyedStore, result.migrations)
	}
}

func (s *Renamer) migrateInto(keyedStore *store.PathKeyedStore, migrations []migration) {
	for _, m := range migrations {
		if err := keyedStore.MigrateKey(m.oldRelative, m.newRelative); err != nil {
			logger.Warn.Printf("Could not migrate key: %s", err)
		}
	}
	if err := keyedStore.Save(); err != nil {
		logger.Warn.Printf("Could not save store '%s': %s", keyedStore.FilePath(), err)
	}
}
