package pack

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/media"
	"github.com/conorfennell/deckpack/internal/storage"
)

// Summary describes the contents of a package.
type Summary struct {
	Entries    []string
	Media      map[string]string
	Collection *domain.CollectionRow
	Notes      []domain.Note
	Cards      []domain.Card
}

// Inspect opens a package and reads back its collection and media manifest.
func Inspect(path string) (*Summary, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open package %s: %w", path, err)
	}
	defer zr.Close()

	summary := &Summary{}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		summary.Entries = append(summary.Entries, f.Name)
		files[f.Name] = f
	}

	manifest, ok := files[media.ManifestFile]
	if !ok {
		return nil, fmt.Errorf("package %s has no %s file", path, media.ManifestFile)
	}
	if err := readJSON(manifest, &summary.Media); err != nil {
		return nil, err
	}

	collection, ok := files[CollectionFile]
	if !ok {
		return nil, fmt.Errorf("package %s has no %s file", path, CollectionFile)
	}

	tmpDir, err := os.MkdirTemp("", "deckpack-inspect-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, CollectionFile)
	if err := extract(collection, dbPath); err != nil {
		return nil, err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if summary.Collection, err = db.Collection(); err != nil {
		return nil, err
	}
	if summary.Notes, err = db.Notes(); err != nil {
		return nil, err
	}
	if summary.Cards, err = db.Cards(); err != nil {
		return nil, err
	}
	return summary, nil
}

func readJSON(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}
	return nil
}

func extract(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return out.Close()
}
