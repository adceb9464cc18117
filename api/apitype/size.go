package apitype

import "image"

type Size struct {
	width  int
	height int
}

func SizeOf(width int, height int) Size {
	return Size{width: width, height: height}
}

func (s Size) Width() int {
	return s.width
}

func (s Size) Height() int {
	return s.height
}

// ScaledToFit scales source to the largest size that fits inside target
// while keeping the aspect ratio.
func ScaledToFit(source image.Rectangle, target Size) Size {
	ratio := float64(source.Dx()) / float64(source.Dy())
	newWidth := int(float64(target.height) * ratio)
	newHeight := target.height

	if newWidth > target.width {
		newWidth = target.width
		newHeight = int(float64(target.width) / ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return Size{width: newWidth, height: newHeight}
}
