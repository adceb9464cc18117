package util

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// LoadOrientation returns the EXIF orientation (1..8) of the image at path,
// or 1 when the file carries no usable EXIF data.
func LoadOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	decoded, err := exif.Decode(f)
	if err != nil {
		return 1
	}
	tag, err := decoded.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	value, err := tag.Int(0)
	if err != nil || value < 1 || value > 8 {
		return 1
	}
	return value
}

// OrientationSwapsDimensions tells whether the orientation rotates the image
// by 90 or 270 degrees, in which case stored width and height are transposed.
func OrientationSwapsDimensions(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}
