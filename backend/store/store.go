// Package store persists small advisory metadata maps (ratings, crop
// statuses) keyed by root-relative image paths. Each store is a single
// JSON document under the project's sidecar directory; the file system
// itself stays the source of truth for which images exist.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/common/logger"
)

const sidecarDirName = ".dataset-curator"

// PathKeyedStore maps normalized root-relative paths to string values.
// The sentinel value means "no value" and is never persisted: setting it
// removes the key, reading an absent key returns it.
type PathKeyedStore struct {
	root        string
	fileName    string
	documentKey string
	sentinel    string
	values      map[string]string
}

// NormalizeKey converts a relative path to the single canonical key form:
// forward slashes, no leading separator, case preserved.
func NormalizeKey(relativePath string) string {
	key := strings.ReplaceAll(relativePath, "\\", "/")
	return strings.TrimPrefix(key, "/")
}

func newPathKeyedStore(root string, fileName string, documentKey string, sentinel string) *PathKeyedStore {
	return &PathKeyedStore{
		root:        root,
		fileName:    fileName,
		documentKey: documentKey,
		sentinel:    sentinel,
		values:      map[string]string{},
	}
}

// load reads the store document. A missing file yields an empty store in
// both modes; a malformed file yields an error in strict mode and an empty
// store in tolerant mode. Keys are normalized and sentinel values dropped
// on ingest, so legacy documents are repaired on the next save.
func load(root string, fileName string, documentKey string, sentinel string, strict bool) (*PathKeyedStore, error) {
	s := newPathKeyedStore(root, fileName, documentKey, sentinel)

	data, err := os.ReadFile(s.FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		if strict {
			return nil, fmt.Errorf("read %s: %w", s.FilePath(), err)
		}
		logger.Warn.Printf("Could not read '%s', starting empty: %s", s.FilePath(), err)
		return s, nil
	}

	var document map[string]map[string]string
	if err := json.Unmarshal(data, &document); err != nil {
		if strict {
			return nil, fmt.Errorf("parse %s: %w", s.FilePath(), err)
		}
		logger.Warn.Printf("Malformed store '%s', starting empty: %s", s.FilePath(), err)
		return s, nil
	}

	for key, value := range document[documentKey] {
		if value == sentinel {
			continue
		}
		s.values[NormalizeKey(key)] = value
	}
	return s, nil
}

func (s *PathKeyedStore) FilePath() string {
	return filepath.Join(s.root, sidecarDirName, s.fileName)
}

// Set inserts or overwrites the value for a relative path. Setting the
// store's sentinel removes the key instead.
func (s *PathKeyedStore) Set(relativePath string, value string) {
	key := NormalizeKey(relativePath)
	if value == s.sentinel || value == "" {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}
}

// Value returns the stored value, or the sentinel when the key is absent.
func (s *PathKeyedStore) Value(relativePath string) string {
	if value, ok := s.values[NormalizeKey(relativePath)]; ok {
		return value
	}
	return s.sentinel
}

func (s *PathKeyedStore) Contains(relativePath string) bool {
	_, ok := s.values[NormalizeKey(relativePath)]
	return ok
}

// MigrateKey moves the value stored under oldPath to newPath. Migrating
// onto an existing key is refused so a rename batch can never silently
// drop a value; the caller serializes its migrations before saving.
func (s *PathKeyedStore) MigrateKey(oldPath string, newPath string) error {
	oldKey := NormalizeKey(oldPath)
	newKey := NormalizeKey(newPath)
	value, ok := s.values[oldKey]
	if !ok {
		return nil
	}
	if oldKey == newKey {
		return nil
	}
	if _, taken := s.values[newKey]; taken {
		return fmt.Errorf("migrate '%s' to '%s': %w", oldKey, newKey, apitype.ErrAlreadyExists)
	}
	delete(s.values, oldKey)
	s.values[newKey] = value
	return nil
}

// Save writes the whole map back as pretty JSON, overwriting the previous
// document. Advisory data, so no crash-atomic rename dance here.
func (s *PathKeyedStore) Save() error {
	dir := filepath.Join(s.root, sidecarDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, apitype.ErrIoFailure)
	}

	document := map[string]map[string]string{s.documentKey: s.values}
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.FilePath(), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.FilePath(), apitype.ErrIoFailure)
	}
	return nil
}

// Clear drops every entry and reports how many were removed. The caller
// still decides whether to Save.
func (s *PathKeyedStore) Clear() int {
	count := len(s.values)
	s.values = map[string]string{}
	return count
}

func (s *PathKeyedStore) Len() int {
	return len(s.values)
}

// All returns a copy of the stored mapping.
func (s *PathKeyedStore) All() map[string]string {
	all := make(map[string]string, len(s.values))
	for key, value := range s.values {
		all[key] = value
	}
	return all
}
