// Package caption reads and writes the plain-text sidecar files that hold
// an image's tags. The sidecar shares the image's path with a .txt
// extension; its existence is the sole witness of "has caption".
package caption

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"taulu.fi/dataset-curator/api/apitype"
)

const (
	sidecarExtension = ".txt"
	tagSeparator     = ", "
)

// PathFor returns the caption sidecar path for an image path.
func PathFor(imagePath string) string {
	extension := filepath.Ext(imagePath)
	return imagePath[:len(imagePath)-len(extension)] + sidecarExtension
}

// ParseTags splits raw caption text on commas, trims whitespace and drops
// empty segments.
func ParseTags(raw string) []string {
	var tags []string
	for _, segment := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(segment)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Read loads the sidecar for an image. A missing sidecar is not an error;
// exists reports whether one was found.
func Read(imagePath string) (exists bool, tags []string, err error) {
	raw, err := os.ReadFile(PathFor(imagePath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("read caption for '%s': %w", imagePath, apitype.ErrIoFailure)
	}
	return true, ParseTags(string(raw)), nil
}

// Write replaces the sidecar content with the tags joined by ", ".
func Write(imagePath string, tags []string) error {
	content := strings.Join(tags, tagSeparator)
	if err := os.WriteFile(PathFor(imagePath), []byte(content), 0644); err != nil {
		return fmt.Errorf("write caption for '%s': %w", imagePath, apitype.ErrIoFailure)
	}
	return nil
}

// AddTag appends a tag unless an equal tag (ignoring case) is already
// present. Returns the resulting tag list.
func AddTag(imagePath string, tag string) ([]string, error) {
	_, tags, err := Read(imagePath)
	if err != nil {
		return nil, err
	}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return tags, nil
	}
	for _, existing := range tags {
		if strings.EqualFold(existing, tag) {
			return tags, nil
		}
	}
	tags = append(tags, tag)
	return tags, Write(imagePath, tags)
}

// RemoveTag drops every tag equal to the given one, ignoring case.
func RemoveTag(imagePath string, tag string) ([]string, error) {
	exists, tags, err := Read(imagePath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	target := strings.ToLower(strings.TrimSpace(tag))
	kept := tags[:0]
	for _, existing := range tags {
		if strings.ToLower(existing) != target {
			kept = append(kept, existing)
		}
	}
	return kept, Write(imagePath, kept)
}

// Reorder replaces the whole tag list with the given ordered tags.
func Reorder(imagePath string, tags []string) error {
	return Write(imagePath, tags)
}
