package apitype

// Rating is the curation verdict for an image. RatingNone is the implicit
// default and is never written to the rating store.
type Rating string

const (
	RatingNone      = Rating("none")
	RatingGood      = Rating("good")
	RatingBad       = Rating("bad")
	RatingNeedsEdit = Rating("needs_edit")
)

func RatingFromString(value string) Rating {
	switch value {
	case "good":
		return RatingGood
	case "bad":
		return RatingBad
	case "needs_edit":
		return RatingNeedsEdit
	default:
		return RatingNone
	}
}

func (s Rating) IsNone() bool {
	return s == RatingNone || s == ""
}

func (s Rating) String() string {
	if s == "" {
		return string(RatingNone)
	}
	return string(s)
}
