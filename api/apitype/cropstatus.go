package apitype

// CropStatus is a free-form per-image crop tag. CropStatusUncropped is the
// implicit default and is never written to the crop status store.
type CropStatus string

const CropStatusUncropped = CropStatus("uncropped")

func (s CropStatus) IsUncropped() bool {
	return s == CropStatusUncropped || s == ""
}

func (s CropStatus) String() string {
	if s == "" {
		return string(CropStatusUncropped)
	}
	return string(s)
}
