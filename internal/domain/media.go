package domain

import "fmt"

// MediaKind says how a media asset is stored in a package.
type MediaKind int

const (
	MediaAudio MediaKind = iota
	MediaImage
)

func (k MediaKind) String() string {
	switch k {
	case MediaAudio:
		return "audio"
	case MediaImage:
		return "image"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseMediaKind accepts "audio" or "image".
func ParseMediaKind(s string) (MediaKind, error) {
	switch s {
	case "audio":
		return MediaAudio, nil
	case "image":
		return MediaImage, nil
	default:
		return 0, fmt.Errorf("%w: unknown media kind %q", ErrUnsupportedMedia, s)
	}
}

// MediaAsset is a local file to be embedded in a package.
type MediaAsset struct {
	Path string
	Kind MediaKind
}
