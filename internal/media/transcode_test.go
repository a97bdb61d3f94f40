package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/testutil"
)

func TestTranscode(t *testing.T) {
	testCases := []struct {
		name           string
		width, height  int
		expectedWidth  int
		expectedHeight int
	}{
		{name: "wide image is downscaled", width: 2160, height: 540, expectedWidth: 1080, expectedHeight: 270},
		{name: "small image keeps its size", width: 400, height: 300, expectedWidth: 400, expectedHeight: 300},
		{name: "exactly at the limit", width: 1080, height: 100, expectedWidth: 1080, expectedHeight: 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			src := testutil.WriteImage(t, filepath.Join(dir, "in.png"), tc.width, tc.height, false)

			out, err := NewTranscoder(0, 0).Transcode(src, dir)
			require.NoError(t, err)
			assert.Equal(t, ImageExt, filepath.Ext(out))
			assert.Equal(t, dir, filepath.Dir(out))

			img, err := imaging.Open(out)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedWidth, img.Bounds().Dx())
			assert.Equal(t, tc.expectedHeight, img.Bounds().Dy())
		})
	}
}

func TestTranscodeCorruptImage(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteBytes(t, filepath.Join(dir, "broken.png"), []byte("not an image"))

	_, err := NewTranscoder(0, 0).Transcode(src, dir)
	require.ErrorIs(t, err, domain.ErrTranscode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary output should be left behind")
}

func TestNewTranscoderDefaults(t *testing.T) {
	tr := NewTranscoder(0, -1)
	assert.Equal(t, DefaultMaxWidth, tr.MaxWidth)
	assert.Equal(t, DefaultQuality, tr.Quality)

	tr = NewTranscoder(640, 50)
	assert.Equal(t, 640, tr.MaxWidth)
	assert.Equal(t, 50, tr.Quality)
}
