package api

import (
	"image"

	"taulu.fi/dataset-curator/api/apitype"
)

// ImageCodec is the decode/resize/encode capability behind the thumbnail
// cache. The cache never touches pixel data itself.
type ImageCodec interface {
	Decode(path string) (image.Image, error)
	Resize(img image.Image, target apitype.Size) image.Image
	Encode(img image.Image) ([]byte, error)
}
