package store

import "taulu.fi/dataset-curator/api/apitype"

const (
	cropStatusFileName    = "crop_status.json"
	cropStatusDocumentKey = "statuses"
)

// CropStatusStore holds per-image crop tags. "uncropped" is the sentinel:
// it is never persisted and reads back for untouched images.
type CropStatusStore struct {
	*PathKeyedStore
}

func LoadCropStatusStore(root string) (*CropStatusStore, error) {
	s, err := load(root, cropStatusFileName, cropStatusDocumentKey, string(apitype.CropStatusUncropped), true)
	if err != nil {
		return nil, err
	}
	return &CropStatusStore{PathKeyedStore: s}, nil
}

func LoadCropStatusStoreOrEmpty(root string) *CropStatusStore {
	s, _ := load(root, cropStatusFileName, cropStatusDocumentKey, string(apitype.CropStatusUncropped), false)
	return &CropStatusStore{PathKeyedStore: s}
}

func (s *CropStatusStore) SetStatus(relativePath string, status apitype.CropStatus) {
	s.Set(relativePath, string(status))
}

func (s *CropStatusStore) Status(relativePath string) apitype.CropStatus {
	return apitype.CropStatus(s.Value(relativePath))
}
