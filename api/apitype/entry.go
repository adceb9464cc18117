package apitype

// ImageEntry is an immutable snapshot of one image produced by a scan.
// The absolute path doubles as the entry id. Re-scanning produces a new
// inventory rather than mutating entries in place.
type ImageEntry struct {
	path         string
	relativePath string
	fileName     string
	hasCaption   bool
	tags         []string
	rating       Rating
	width        int
	height       int
	byteSize     int64
}

func NewImageEntry(path string, relativePath string, fileName string) *ImageEntry {
	return &ImageEntry{
		path:         path,
		relativePath: relativePath,
		fileName:     fileName,
		rating:       RatingNone,
	}
}

func (s *ImageEntry) IsValid() bool {
	return s != nil && s.path != ""
}

func (s *ImageEntry) Id() string {
	if s != nil {
		return s.path
	}
	return ""
}

func (s *ImageEntry) Path() string {
	if s != nil {
		return s.path
	}
	return ""
}

func (s *ImageEntry) RelativePath() string {
	if s != nil {
		return s.relativePath
	}
	return ""
}

func (s *ImageEntry) FileName() string {
	if s != nil {
		return s.fileName
	}
	return ""
}

func (s *ImageEntry) HasCaption() bool {
	return s != nil && s.hasCaption
}

func (s *ImageEntry) Tags() []string {
	if s != nil {
		return s.tags
	}
	return nil
}

func (s *ImageEntry) Rating() Rating {
	if s != nil && s.rating != "" {
		return s.rating
	}
	return RatingNone
}

func (s *ImageEntry) Width() int {
	if s != nil {
		return s.width
	}
	return 0
}

func (s *ImageEntry) Height() int {
	if s != nil {
		return s.height
	}
	return 0
}

func (s *ImageEntry) ByteSize() int64 {
	if s != nil {
		return s.byteSize
	}
	return 0
}

func (s *ImageEntry) SetCaption(tags []string) {
	s.hasCaption = true
	s.tags = tags
}

func (s *ImageEntry) SetRating(rating Rating) {
	s.rating = rating
}

func (s *ImageEntry) SetDimensions(width int, height int) {
	s.width = width
	s.height = height
}

func (s *ImageEntry) SetByteSize(byteSize int64) {
	s.byteSize = byteSize
}

func (s *ImageEntry) String() string {
	if s == nil {
		return "ImageEntry<nil>"
	}
	if !s.IsValid() {
		return "ImageEntry<invalid>"
	}
	return "ImageEntry{" + s.relativePath + "}"
}
