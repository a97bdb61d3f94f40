package testutil

import (
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

// WriteImage writes a width x height PNG to path. A noisy image compresses
// far worse than a flat one, which tests use to get differently sized outputs.
func WriteImage(t *testing.T, path string, width, height int, noisy bool) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rng := rand.New(rand.NewPCG(1, 2))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{R: 40, G: 120, B: 200, A: 255}
			if noisy {
				c = color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255}
			}
			img.Set(x, y, c)
		}
	}

	writeFile(t, path, func(f *os.File) error { return png.Encode(f, img) })
	return path
}

// WriteBytes writes data to path, creating parent directories.
func WriteBytes(t *testing.T, path string, data []byte) string {
	t.Helper()
	writeFile(t, path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
	return path
}

func writeFile(t *testing.T, path string, fn func(*os.File) error) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close %s: %v", path, err)
	}
}
