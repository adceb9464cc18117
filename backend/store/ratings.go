package store

import "taulu.fi/dataset-curator/api/apitype"

const (
	ratingsFileName    = "ratings.json"
	ratingsDocumentKey = "ratings"
)

// RatingStore holds per-image curation ratings. RatingNone is the
// sentinel: it is never persisted and reads back for unrated images.
type RatingStore struct {
	*PathKeyedStore
}

// LoadRatingStore reads the rating document strictly: a malformed file is
// surfaced to the caller.
func LoadRatingStore(root string) (*RatingStore, error) {
	s, err := load(root, ratingsFileName, ratingsDocumentKey, string(apitype.RatingNone), true)
	if err != nil {
		return nil, err
	}
	return &RatingStore{PathKeyedStore: s}, nil
}

// LoadRatingStoreOrEmpty reads the rating document tolerantly: a malformed
// file yields an empty store. Used on display paths where ratings are
// advisory.
func LoadRatingStoreOrEmpty(root string) *RatingStore {
	s, _ := load(root, ratingsFileName, ratingsDocumentKey, string(apitype.RatingNone), false)
	return &RatingStore{PathKeyedStore: s}
}

func (s *RatingStore) SetRating(relativePath string, rating apitype.Rating) {
	s.Set(relativePath, string(rating))
}

func (s *RatingStore) Rating(relativePath string) apitype.Rating {
	return apitype.RatingFromString(s.Value(relativePath))
}
