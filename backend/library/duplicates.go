package library

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"taulu.fi/dataset-curator/common/logger"
	"taulu.fi/dataset-curator/common/util"
)

const hashBufferSize = 8 * 1024

// FindDuplicates hashes the full content of every supported image under
// root and groups relative paths sharing a digest. Only groups of two or
// more are returned; paths inside a group and the groups themselves are
// sorted so repeated runs compare equal.
func (s *Scanner) FindDuplicates(root string) ([][]string, error) {
	canonicalRoot, err := util.ResolveRoot(root)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	hashToPaths := map[string][]string{}

	walkErr := filepath.WalkDir(canonicalRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn.Printf("Skipping '%s': %s", path, err)
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !isSupported(filepath.Ext(path)) {
			return nil
		}

		digest, err := hashFileContent(path)
		if err != nil {
			logger.Warn.Printf("Could not hash '%s': %s", path, err)
			return nil
		}
		relative, err := filepath.Rel(canonicalRoot, path)
		if err != nil {
			return nil
		}
		hashToPaths[digest] = append(hashToPaths[digest], filepath.ToSlash(relative))
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	var groups [][]string
	for _, paths := range hashToPaths {
		if len(paths) < 2 {
			continue
		}
		sort.Strings(paths)
		groups = append(groups, paths)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})

	logger.Debug.Printf("Found %d duplicate groups under '%s' in %s", len(groups), root, time.Since(startTime).String())
	return groups, nil
}

// hashFileContent streams the file through sha256 with a fixed-size buffer.
func hashFileContent(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	buffer := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(hasher, f, buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
