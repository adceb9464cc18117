package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"taulu.fi/dataset-curator/api/apitype"
)

func TestNormalizeKey(t *testing.T) {
	a := assert.New(t)

	a.Equal("sub/file.png", NormalizeKey("sub/file.png"))
	a.Equal("sub/file.png", NormalizeKey("sub\\file.png"))
	a.Equal("sub/file.png", NormalizeKey("/sub/file.png"))
	a.Equal("Sub/File.PNG", NormalizeKey("Sub\\File.PNG"))
}

func TestRatingStore_SentinelNeverPersisted(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	sut := LoadRatingStoreOrEmpty(root)
	sut.SetRating("a.png", apitype.RatingGood)
	sut.SetRating("b.png", apitype.RatingNone)
	a.Nil(sut.Save())

	loaded, err := LoadRatingStore(root)
	if a.Nil(err) {
		a.Equal(apitype.RatingGood, loaded.Rating("a.png"))
		a.Equal(apitype.RatingNone, loaded.Rating("b.png"))
		a.False(loaded.Contains("b.png"))
		a.Equal(1, loaded.Len())
	}

	t.Run("Setting sentinel removes existing key", func(t *testing.T) {
		loaded.SetRating("a.png", apitype.RatingNone)
		a.Nil(loaded.Save())

		again, err := LoadRatingStore(root)
		if a.Nil(err) {
			a.Equal(0, again.Len())
			a.Equal(apitype.RatingNone, again.Rating("a.png"))
		}
	})

	t.Run("Repeating the set is a no-op", func(t *testing.T) {
		loaded.SetRating("a.png", apitype.RatingNone)
		a.Equal(0, loaded.Len())
	})
}

func TestRatingStore_DocumentShape(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	sut := LoadRatingStoreOrEmpty(root)
	sut.SetRating("sub/a.png", apitype.RatingBad)
	a.Nil(sut.Save())

	data, err := os.ReadFile(filepath.Join(root, ".dataset-curator", "ratings.json"))
	if a.Nil(err) {
		var document map[string]map[string]string
		a.Nil(json.Unmarshal(data, &document))
		a.Equal("bad", document["ratings"]["sub/a.png"])
	}
}

func TestStore_KeyNormalizationOnIngest(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	// A legacy document with backslash keys and a persisted sentinel value.
	dir := filepath.Join(root, ".dataset-curator")
	a.Nil(os.MkdirAll(dir, 0755))
	legacy := `{"ratings": {"sub\\a.png": "good", "b.png": "none"}}`
	a.Nil(os.WriteFile(filepath.Join(dir, "ratings.json"), []byte(legacy), 0644))

	sut, err := LoadRatingStore(root)
	if a.Nil(err) {
		a.Equal(apitype.RatingGood, sut.Rating("sub/a.png"))
		a.False(sut.Contains("b.png"))
		a.Equal(1, sut.Len())
	}
}

func TestStore_MalformedDocument(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	dir := filepath.Join(root, ".dataset-curator")
	a.Nil(os.MkdirAll(dir, 0755))
	a.Nil(os.WriteFile(filepath.Join(dir, "ratings.json"), []byte("{not json"), 0644))

	t.Run("Strict load surfaces the error", func(t *testing.T) {
		_, err := LoadRatingStore(root)
		a.NotNil(err)
	})
	t.Run("Tolerant load starts empty", func(t *testing.T) {
		sut := LoadRatingStoreOrEmpty(root)
		a.Equal(0, sut.Len())
	})
}

func TestStore_MigrateKey(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	sut := LoadRatingStoreOrEmpty(root)
	sut.SetRating("old.png", apitype.RatingGood)
	sut.SetRating("taken.png", apitype.RatingBad)

	t.Run("Moves value to new key", func(t *testing.T) {
		a.Nil(sut.MigrateKey("old.png", "new.png"))
		a.False(sut.Contains("old.png"))
		a.Equal(apitype.RatingGood, sut.Rating("new.png"))
	})
	t.Run("Absent old key is a no-op", func(t *testing.T) {
		a.Nil(sut.MigrateKey("missing.png", "whatever.png"))
		a.False(sut.Contains("whatever.png"))
	})
	t.Run("Refuses to clobber", func(t *testing.T) {
		err := sut.MigrateKey("new.png", "taken.png")
		a.ErrorIs(err, apitype.ErrAlreadyExists)
		a.Equal(apitype.RatingGood, sut.Rating("new.png"))
		a.Equal(apitype.RatingBad, sut.Rating("taken.png"))
	})
	t.Run("Same key is a no-op", func(t *testing.T) {
		a.Nil(sut.MigrateKey("new.png", "new.png"))
		a.Equal(apitype.RatingGood, sut.Rating("new.png"))
	})
}

func TestStore_Clear(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	sut := LoadCropStatusStoreOrEmpty(root)
	sut.SetStatus("a.png", apitype.CropStatus("cropped"))
	sut.SetStatus("b.png", apitype.CropStatus("skipped"))
	a.Nil(sut.Save())

	a.Equal(2, sut.Clear())
	a.Nil(sut.Save())

	loaded, err := LoadCropStatusStore(root)
	if a.Nil(err) {
		a.Equal(0, loaded.Len())
	}
}

func TestCropStatusStore_Sentinel(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	sut := LoadCropStatusStoreOrEmpty(root)
	sut.SetStatus("a.png", apitype.CropStatus("cropped"))
	sut.SetStatus("b.png", apitype.CropStatusUncropped)

	a.Equal(apitype.CropStatus("cropped"), sut.Status("a.png"))
	a.Equal(apitype.CropStatusUncropped, sut.Status("b.png"))
	a.True(sut.Status("b.png").IsUncropped())
	a.Equal(1, sut.Len())
}

func TestStore_MissingFileYieldsEmpty(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()

	sut, err := LoadRatingStore(root)
	if a.Nil(err) {
		a.Equal(0, sut.Len())
		a.Equal(apitype.RatingNone, sut.Rating("anything.png"))
	}
}
