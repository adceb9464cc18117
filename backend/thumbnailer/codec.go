package thumbnailer

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	// webp is decode-only and not covered by imaging's own registrations.
	_ "golang.org/x/image/webp"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/api/apitype"
)

const jpegQuality = 85

type ImagingCodec struct {
	api.ImageCodec
}

func NewImagingCodec() api.ImageCodec {
	return &ImagingCodec{}
}

func (s *ImagingCodec) Decode(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}

func (s *ImagingCodec) Resize(img image.Image, target apitype.Size) image.Image {
	scaled := apitype.ScaledToFit(img.Bounds(), target)
	return imaging.Resize(img, scaled.Width(), scaled.Height(), imaging.Linear)
}

func (s *ImagingCodec) Encode(img image.Image) ([]byte, error) {
	buffer := bytes.NewBuffer([]byte{})
	if err := imaging.Encode(buffer, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
