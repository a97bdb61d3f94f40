// Package pack assembles flashcard packages. A Session owns everything one
// export needs: the note type, staged media and the rows to write.
package pack

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/ids"
	"github.com/conorfennell/deckpack/internal/media"
	"github.com/conorfennell/deckpack/internal/notetype"
	"github.com/conorfennell/deckpack/internal/rows"
	"github.com/conorfennell/deckpack/internal/storage"
)

const (
	// CollectionFile is the database name the importer looks for.
	CollectionFile = "collection.anki2"

	// stagingDBFile is where the database is built before it is renamed.
	stagingDBFile = "collection.tmp"
)

var errSessionClosed = errors.New("session is closed")

type entry struct {
	note domain.Note
	card domain.Card
}

// Session builds one package. It is single-owner and not safe for concurrent use.
type Session struct {
	schema domain.DeckSchema
	model  *notetype.Model
	deckID int64
	rows   *rows.Builder
	logger *slog.Logger

	stagingRoot string
	transcoder  media.ImageTranscoder
	dir         string
	registry    *media.Registry
	entries     []entry
	closed      bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithStagingRoot sets the directory the staging directory is created in.
// The default is the system temp directory.
func WithStagingRoot(dir string) Option {
	return func(s *Session) { s.stagingRoot = dir }
}

// WithTranscoder replaces the default image transcoder.
func WithTranscoder(t media.ImageTranscoder) Option {
	return func(s *Session) { s.transcoder = t }
}

// WithRowBuilder replaces the default row builder.
func WithRowBuilder(b *rows.Builder) Option {
	return func(s *Session) { s.rows = b }
}

// NewSession validates schema and prepares a build. Nothing touches the
// filesystem until media is registered or Write is called.
func NewSession(schema domain.DeckSchema, opts ...Option) (*Session, error) {
	s := &Session{
		schema:     schema,
		logger:     slog.Default(),
		transcoder: media.NewTranscoder(media.DefaultMaxWidth, media.DefaultQuality),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rows == nil {
		s.rows = rows.NewBuilder()
	}

	model, err := notetype.Build(schema)
	if err != nil {
		return nil, err
	}
	s.model = model
	s.deckID = ids.Decks.Next()

	s.logger = s.logger.With("deck", schema.Name)
	return s, nil
}

// Model returns the session's note type.
func (s *Session) Model() *notetype.Model { return s.model }

// DeckID returns the id of the exported deck.
func (s *Session) DeckID() int64 { return s.deckID }

// Len returns the number of records added so far.
func (s *Session) Len() int { return len(s.entries) }

// RegisterAudio stages an audio file and returns its public filename.
func (s *Session) RegisterAudio(path string) (string, error) {
	if err := s.ensureStaging(); err != nil {
		return "", err
	}
	return s.registry.RegisterAudio(path)
}

// RegisterImage transcodes and stages an image and returns its public filename.
func (s *Session) RegisterImage(path string) (string, error) {
	if err := s.ensureStaging(); err != nil {
		return "", err
	}
	return s.registry.RegisterImage(path)
}

// Register stages asset according to its kind.
func (s *Session) Register(asset domain.MediaAsset) (string, error) {
	if err := s.ensureStaging(); err != nil {
		return "", err
	}
	return s.registry.Register(asset)
}

// AddRecord validates a record and builds its note and card rows in memory.
func (s *Session) AddRecord(record domain.FlashcardRecord) error {
	if s.closed {
		return errSessionClosed
	}

	index := len(s.entries)
	note, err := s.rows.BuildNoteRow(record, s.model)
	if err != nil {
		return fmt.Errorf("record %d: %w", index, err)
	}
	card := s.rows.BuildCardRow(note.ID, s.deckID)

	s.entries = append(s.entries, entry{note: note, card: card})
	return nil
}

// AddRecords adds every record, stopping at the first invalid one.
func (s *Session) AddRecords(records []domain.FlashcardRecord) error {
	for _, record := range records {
		if err := s.AddRecord(record); err != nil {
			return err
		}
	}
	return nil
}

// Write assembles the package and publishes it at dest. dest is only ever
// replaced by a complete package. Write consumes the session: the staging
// directory is removed whether or not it succeeds.
func (s *Session) Write(dest string) error {
	if s.closed {
		return errSessionClosed
	}

	err := s.write(dest)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	s.logger.Info("package written",
		"path", dest,
		"notes", len(s.entries),
		"media", s.registry.Len(),
	)
	return nil
}

func (s *Session) write(dest string) error {
	if err := s.ensureStaging(); err != nil {
		return err
	}

	dbPath := filepath.Join(s.dir, stagingDBFile)
	if err := s.writeCollection(dbPath); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := os.Rename(dbPath, filepath.Join(s.dir, CollectionFile)); err != nil {
		return fmt.Errorf("%w: failed to rename collection: %w", domain.ErrStorage, err)
	}

	if _, err := s.registry.WriteManifest(); err != nil {
		return err
	}

	files := append([]string{CollectionFile, media.ManifestFile}, s.registry.Files()...)
	if err := publish(s.dir, files, dest); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}

// writeCollection holds the only database connection of the session. It is
// closed on every path out of this function.
func (s *Session) writeCollection(path string) (err error) {
	col, err := s.rows.BuildCollectionRow(s.model, s.deckID)
	if err != nil {
		return err
	}

	db, err := storage.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", cerr)
		}
	}()

	if err := db.InsertCollection(col); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, e := range s.entries {
		if err := tx.InsertNote(e.note); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if err := tx.InsertCard(e.card); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ensureStaging creates the session's private staging directory on first use.
func (s *Session) ensureStaging() error {
	if s.closed {
		return errSessionClosed
	}
	if s.dir != "" {
		return nil
	}

	root := s.stagingRoot
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "deckpack-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: failed to create staging directory: %w", domain.ErrStorage, err)
	}

	s.dir = dir
	s.registry = media.NewRegistry(dir, s.schema.Prefix, s.transcoder, s.logger)
	s.logger.Debug("staging directory created", "dir", dir)
	return nil
}

// Close removes the staging directory. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove staging directory %s: %w", s.dir, err)
	}
	return nil
}
