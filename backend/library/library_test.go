package library

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/backend/store"
)

type progressUpdate struct {
	name    string
	current int
	total   int
}

type stubReporter struct {
	updates []progressUpdate
}

func (s *stubReporter) Update(name string, current int, total int) {
	s.updates = append(s.updates, progressUpdate{name: name, current: current, total: total})
}

func (s *stubReporter) Error(message string, err error) {}

func writeFile(t *testing.T, root string, relative string, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relative))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestScanner(reporter *stubReporter) *Scanner {
	sut := NewScanner(reporter)
	sut.SetReadDimensions(false)
	return sut
}

func TestScanner_Scan(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	writeFile(t, root, "b.png", "img-b")
	writeFile(t, root, "a.JPG", "img-a")
	writeFile(t, root, "sub/c.webp", "img-c")
	writeFile(t, root, "sub/c.txt", "red hair, smile, ")
	writeFile(t, root, "notes.md", "not an image")
	writeFile(t, root, "archive.zip", "not an image")

	ratings := store.LoadRatingStoreOrEmpty(root)
	ratings.SetRating("b.png", apitype.RatingGood)
	a.Nil(ratings.Save())

	sut := newTestScanner(&stubReporter{})
	entries, err := sut.Scan(root)
	a.Nil(err)

	t.Run("Ordering and filtering", func(t *testing.T) {
		if a.Equal(3, len(entries)) {
			a.Equal("a.JPG", entries[0].RelativePath())
			a.Equal("b.png", entries[1].RelativePath())
			a.Equal("sub/c.webp", entries[2].RelativePath())
		}
	})
	t.Run("Caption join", func(t *testing.T) {
		a.False(entries[0].HasCaption())
		a.True(entries[2].HasCaption())
		a.Equal([]string{"red hair", "smile"}, entries[2].Tags())
	})
	t.Run("Rating join", func(t *testing.T) {
		a.Equal(apitype.RatingNone, entries[0].Rating())
		a.Equal(apitype.RatingGood, entries[1].Rating())
	})
	t.Run("Byte size", func(t *testing.T) {
		a.Equal(int64(len("img-a")), entries[0].ByteSize())
	})
}

func TestScanner_ScanDeterminism(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	for i := 0; i < 10; i++ {
		writeFile(t, root, fmt.Sprintf("dir%d/img%d.png", i%3, i), fmt.Sprintf("img-%d", i))
	}
	writeFile(t, root, "dir0/img0.txt", "tag one, tag two")

	sut := newTestScanner(&stubReporter{})
	first, err := sut.Scan(root)
	a.Nil(err)
	second, err := sut.Scan(root)
	a.Nil(err)

	if a.Equal(len(first), len(second)) {
		for i := range first {
			a.Equal(first[i].RelativePath(), second[i].RelativePath())
			a.Equal(first[i].Tags(), second[i].Tags())
			a.Equal(first[i].Rating(), second[i].Rating())
		}
	}
}

func TestScanner_ScanProgress(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	for i := 0; i < 120; i++ {
		writeFile(t, root, fmt.Sprintf("img%03d.png", i), "x")
	}

	reporter := &stubReporter{}
	sut := newTestScanner(reporter)
	_, err := sut.Scan(root)
	a.Nil(err)

	if a.Equal(3, len(reporter.updates)) {
		a.Equal(progressUpdate{name: "scan", current: 50, total: 0}, reporter.updates[0])
		a.Equal(progressUpdate{name: "scan", current: 100, total: 0}, reporter.updates[1])
		a.Equal(progressUpdate{name: "scan", current: 120, total: 120}, reporter.updates[2])
	}
}

func TestScanner_ScanDimensions(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	f, err := os.Create(filepath.Join(root, "real.png"))
	a.Nil(err)
	a.Nil(png.Encode(f, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	a.Nil(f.Close())

	sut := NewScanner(&stubReporter{})
	entries, err := sut.Scan(root)
	a.Nil(err)

	if a.Equal(1, len(entries)) {
		a.Equal(3, entries[0].Width())
		a.Equal(2, entries[0].Height())
	}
}

func TestScanner_ScanPreconditions(t *testing.T) {
	a := assert.New(t)
	sut := newTestScanner(&stubReporter{})

	t.Run("Missing root", func(t *testing.T) {
		_, err := sut.Scan(filepath.Join(t.TempDir(), "missing"))
		a.ErrorIs(err, apitype.ErrNotFound)
	})
	t.Run("Root is a file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "file.png", "x")
		_, err := sut.Scan(filepath.Join(root, "file.png"))
		a.ErrorIs(err, apitype.ErrInvalidPath)
	})
}

func TestScanner_FindDuplicates(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	writeFile(t, root, "a.png", "same-bytes")
	writeFile(t, root, "sub/b.png", "same-bytes")
	writeFile(t, root, "unique.png", "different")
	writeFile(t, root, "same.txt", "same-bytes")

	sut := newTestScanner(&stubReporter{})
	groups, err := sut.FindDuplicates(root)
	a.Nil(err)

	if a.Equal(1, len(groups)) {
		a.Equal([]string{"a.png", "sub/b.png"}, groups[0])
	}
}

func TestScanner_FindDuplicatesNone(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	writeFile(t, root, "a.png", "one")
	writeFile(t, root, "b.png", "two")

	sut := newTestScanner(&stubReporter{})
	groups, err := sut.FindDuplicates(root)
	a.Nil(err)
	a.Equal(0, len(groups))
}
