// Package rows builds the col, notes and cards rows of a collection.
package rows

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/deckpack/internal/digest"
	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/ids"
	"github.com/conorfennell/deckpack/internal/notetype"
)

const (
	// schemaVersion is the col.ver the consumer expects for this layout.
	schemaVersion = 11

	// pendingUSN marks rows as not yet synced.
	pendingUSN = -1

	// dayRollover is when the consumer starts a new day.
	dayRollover = 4 * time.Hour
)

// Builder turns records into rows. Note and card ids come from two
// independent allocators.
type Builder struct {
	clock   domain.Clock
	noteIDs *ids.Allocator
	cardIDs *ids.Allocator
	guid    func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the clock used for timestamps.
func WithClock(c domain.Clock) Option {
	return func(b *Builder) { b.clock = c }
}

// WithAllocators replaces the process-wide note and card id allocators.
func WithAllocators(notes, cards *ids.Allocator) Option {
	return func(b *Builder) {
		b.noteIDs = notes
		b.cardIDs = cards
	}
}

// NewBuilder creates a Builder backed by the process-wide id allocators.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		clock:   domain.RealClock{},
		noteIDs: ids.Notes,
		cardIDs: ids.Cards,
		guid:    NewGUID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildNoteRow builds the note for one record. Every value keeps its slot in
// the field blob, empty or not.
func (b *Builder) BuildNoteRow(record domain.FlashcardRecord, model *notetype.Model) (domain.Note, error) {
	if len(record.Values) != model.FieldCount() {
		return domain.Note{}, fmt.Errorf("%w: got %d values, note type %q has %d fields",
			domain.ErrFieldCountMismatch, len(record.Values), model.Name, model.FieldCount())
	}

	sortField := record.Values[0]
	return domain.Note{
		ID:        b.noteIDs.Next(),
		GUID:      b.guid(),
		ModelID:   model.ID,
		Modified:  b.clock.Now().Unix(),
		USN:       pendingUSN,
		Tags:      JoinTags(record.Tags),
		Fields:    domain.JoinFields(record.Values),
		SortField: sortField,
		Checksum:  digest.Checksum(sortField),
	}, nil
}

// BuildCardRow builds the single card of a note. The card starts in the new
// queue with every scheduling column at zero.
func (b *Builder) BuildCardRow(noteID, deckID int64) domain.Card {
	return domain.Card{
		ID:       b.cardIDs.Next(),
		NoteID:   noteID,
		DeckID:   deckID,
		Ordinal:  0,
		Modified: b.clock.Now().Unix(),
		USN:      pendingUSN,
	}
}

// DayStart returns the consumer's collection creation time for now: local
// midnight of (now - 4h), plus 4h, in unix seconds.
func DayStart(now time.Time) int64 {
	shifted := now.Add(-dayRollover)
	midnight := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, shifted.Location())
	return midnight.Add(dayRollover).Unix()
}

// JoinTags renders tags in the space-delimited form of the notes.tags column.
// Spaces inside a tag become underscores.
func JoinTags(tags []string) string {
	var cleaned []string
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(tag), "_")
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	return " " + strings.Join(cleaned, " ") + " "
}

const base91Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&()*+,-./:;<=>?@[]^_`{|}~"

// NewGUID returns a short sync token: 64 random bits taken from a UUID,
// written in base 91.
func NewGUID() string {
	u := uuid.New()
	return base91(binary.BigEndian.Uint64(u[:8]))
}

func base91(n uint64) string {
	if n == 0 {
		return base91Alphabet[:1]
	}
	var buf []byte
	for n > 0 {
		buf = append(buf, base91Alphabet[n%91])
		n /= 91
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}
