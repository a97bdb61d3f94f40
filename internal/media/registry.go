package media

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/conorfennell/deckpack/internal/digest"
	"github.com/conorfennell/deckpack/internal/domain"
)

// ManifestFile is the name of the media manifest inside a package.
const ManifestFile = "media"

// Registry stages media files under dense ordinal names and remembers the
// public filename each ordinal is known by. A Registry belongs to a single
// build session and is not safe for concurrent use.
type Registry struct {
	dir        string
	prefix     string
	transcoder ImageTranscoder
	logger     *slog.Logger

	names    []string       // ordinal -> public filename
	slots    map[string]int // public filename -> ordinal
	attempts int
}

// NewRegistry creates a Registry that stages files in dir.
func NewRegistry(dir, prefix string, transcoder ImageTranscoder, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dir:        dir,
		prefix:     prefix,
		transcoder: transcoder,
		logger:     logger,
		slots:      make(map[string]int),
	}
}

// Register dispatches on the asset kind.
func (r *Registry) Register(asset domain.MediaAsset) (string, error) {
	switch asset.Kind {
	case domain.MediaAudio:
		return r.RegisterAudio(asset.Path)
	case domain.MediaImage:
		return r.RegisterImage(asset.Path)
	default:
		return "", fmt.Errorf("asset %s: %w: %s", asset.Path, domain.ErrUnsupportedMedia, asset.Kind)
	}
}

// RegisterAudio stages an audio file unchanged. Registering a second file with
// the same base name fails, even if it is the very same file.
func (r *Registry) RegisterAudio(path string) (string, error) {
	index := r.nextAttempt()
	name := r.prefix + "-" + filepath.Base(path)

	if _, ok := r.slots[name]; ok {
		return "", fmt.Errorf("asset %d (%s): %w: %s is already registered", index, path, domain.ErrMediaNameCollision, name)
	}

	ordinal := len(r.names)
	if err := copyFile(path, r.slotPath(ordinal)); err != nil {
		return "", fmt.Errorf("asset %d (%s): %w: %w", index, path, domain.ErrStorage, err)
	}

	r.record(name)
	r.logger.Debug("registered audio", "ordinal", ordinal, "name", name, "source", path)
	return name, nil
}

// RegisterImage transcodes and stages an image. When another image already
// owns the derived name, a transcoded output of identical size is treated as
// the same picture and the existing name is returned.
func (r *Registry) RegisterImage(path string) (string, error) {
	index := r.nextAttempt()

	tmp, err := r.transcoder.Transcode(path, r.dir)
	if err != nil {
		return "", fmt.Errorf("asset %d (%s): %w", index, path, err)
	}

	name := r.prefix + "-" + digest.NameHash(filepath.Base(path)) + r.transcoder.Ext()

	if ordinal, ok := r.slots[name]; ok {
		defer os.Remove(tmp)

		same, err := sameSize(tmp, r.slotPath(ordinal))
		if err != nil {
			return "", fmt.Errorf("asset %d (%s): %w: %w", index, path, domain.ErrStorage, err)
		}
		if !same {
			return "", fmt.Errorf("asset %d (%s): %w: %s already holds a different image", index, path, domain.ErrMediaNameCollision, name)
		}

		r.logger.Debug("duplicate image", "ordinal", ordinal, "name", name, "source", path)
		return name, nil
	}

	ordinal := len(r.names)
	if err := os.Rename(tmp, r.slotPath(ordinal)); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("asset %d (%s): %w: %w", index, path, domain.ErrStorage, err)
	}

	r.record(name)
	r.logger.Debug("registered image", "ordinal", ordinal, "name", name, "source", path)
	return name, nil
}

// Len returns the number of staged files.
func (r *Registry) Len() int {
	return len(r.names)
}

// Files returns the staged file names ("0", "1", ...) in ordinal order.
func (r *Registry) Files() []string {
	files := make([]string, len(r.names))
	for i := range r.names {
		files[i] = strconv.Itoa(i)
	}
	return files
}

// Manifest maps each ordinal, as a decimal string, to its public filename.
func (r *Registry) Manifest() map[string]string {
	m := make(map[string]string, len(r.names))
	for i, name := range r.names {
		m[strconv.Itoa(i)] = name
	}
	return m
}

// WriteManifest writes the manifest as JSON to the staging directory and
// returns its path.
func (r *Registry) WriteManifest() (string, error) {
	data, err := json.Marshal(r.Manifest())
	if err != nil {
		return "", fmt.Errorf("%w: encoding media manifest: %w", domain.ErrStorage, err)
	}

	path := filepath.Join(r.dir, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: writing media manifest: %w", domain.ErrStorage, err)
	}
	return path, nil
}

func (r *Registry) nextAttempt() int {
	index := r.attempts
	r.attempts++
	return index
}

func (r *Registry) record(name string) {
	r.slots[name] = len(r.names)
	r.names = append(r.names, name)
}

func (r *Registry) slotPath(ordinal int) string {
	return filepath.Join(r.dir, strconv.Itoa(ordinal))
}

// SoundTag is the field markup that plays an audio file.
func SoundTag(name string) string {
	return "[sound:" + name + "]"
}

// ImageTag is the field markup that shows an image.
func ImageTag(name string) string {
	return `<img src="` + name + `">`
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

func sameSize(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return infoA.Size() == infoB.Size(), nil
}
