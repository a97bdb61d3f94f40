package media

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Registers the webp decoder

	"github.com/conorfennell/deckpack/internal/domain"
)

const (
	DefaultMaxWidth = 1080
	DefaultQuality  = 80

	// ImageExt is the extension of every transcoded image.
	ImageExt = ".jpg"
)

// ImageTranscoder converts a source image into the format stored in packages.
type ImageTranscoder interface {
	// Transcode writes the converted image to a new temporary file in dir
	// and returns its path. The caller owns the file.
	Transcode(src, dir string) (string, error)
	// Ext is the extension of files produced by Transcode.
	Ext() string
}

// Transcoder re-encodes images as JPEG, downscaling anything wider than MaxWidth.
type Transcoder struct {
	MaxWidth int
	Quality  int
}

// NewTranscoder creates a Transcoder. Zero values fall back to the defaults.
func NewTranscoder(maxWidth, quality int) *Transcoder {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Transcoder{MaxWidth: maxWidth, Quality: quality}
}

func (t *Transcoder) Ext() string { return ImageExt }

// Transcode decodes src (honouring EXIF orientation), scales it down to
// MaxWidth preserving the aspect ratio and always re-encodes it.
func (t *Transcoder) Transcode(src, dir string) (string, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: decoding %s: %w", domain.ErrTranscode, src, err)
	}

	if img.Bounds().Dx() > t.MaxWidth {
		img = imaging.Resize(img, t.MaxWidth, 0, imaging.Lanczos)
	}

	out, err := os.CreateTemp(dir, ".transcode-*"+ImageExt)
	if err != nil {
		return "", fmt.Errorf("%w: creating output for %s: %w", domain.ErrTranscode, src, err)
	}

	if err := imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(t.Quality)); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("%w: encoding %s: %w", domain.ErrTranscode, src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("%w: writing %s: %w", domain.ErrTranscode, src, err)
	}

	return out.Name(), nil
}
