package api

import "context"

// Captioner produces caption text for one image. Implementations report
// deadline overruns as errors wrapping apitype.ErrTimeout and any other
// backend failure as errors wrapping apitype.ErrExternalFailure, so that
// the batch layer can apply its retry policy.
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}
