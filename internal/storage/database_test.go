package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/deckpack/internal/domain"
)

func newTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.anki2")
	db, err := Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestCreate(t *testing.T) {
	t.Run("applies the schema", func(t *testing.T) {
		db, _ := newTestDB(t)

		var tables []string
		rows, err := db.conn.Query(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
		require.NoError(t, err)
		defer rows.Close()
		for rows.Next() {
			var name string
			require.NoError(t, rows.Scan(&name))
			tables = append(tables, name)
		}
		assert.Equal(t, []string{"cards", "col", "graves", "notes", "revlog"}, tables)

		var indexes int
		require.NoError(t, db.conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name LIKE 'ix_%'`).Scan(&indexes))
		assert.Equal(t, 7, indexes)
	})

	t.Run("refuses an existing file", func(t *testing.T) {
		_, path := newTestDB(t)
		_, err := Create(path)
		assert.ErrorIs(t, err, os.ErrExist)
	})

	t.Run("leaves a foreign file untouched", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "collection.anki2")
		require.NoError(t, os.WriteFile(path, []byte("not a database"), 0644))

		_, err := Create(path)
		require.ErrorIs(t, err, os.ErrExist)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "not a database", string(data))
	})
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.anki2"))
	assert.Error(t, err)
}

func TestInsertAndReadBack(t *testing.T) {
	db, path := newTestDB(t)

	col := domain.CollectionRow{
		ID: 1, Created: 1705291200, Modified: 1705314600000, SchemaModified: 1705314600000,
		Version: 11, Conf: `{"curModel":"1"}`, Models: `{}`, Decks: `{}`, DeckConf: `{}`, Tags: `{}`,
	}
	require.NoError(t, db.InsertCollection(col))

	notes := []domain.Note{
		{ID: 10, GUID: "g1", ModelID: 5, Modified: 1, USN: -1, Fields: "Hola\x1fHello", SortField: "Hola", Checksum: 1313266697},
		{ID: 11, GUID: "g2", ModelID: 5, Modified: 1, USN: -1, Fields: "It's\x1f\"quoted\"", SortField: "It's", Checksum: 2},
		{ID: 12, GUID: "g3", ModelID: 5, Modified: 1, USN: -1, Fields: "42\x1f", SortField: "42", Checksum: 3},
	}
	cards := []domain.Card{
		{ID: 20, NoteID: 10, DeckID: 7, USN: -1},
		{ID: 21, NoteID: 11, DeckID: 7, USN: -1},
		{ID: 22, NoteID: 12, DeckID: 7, USN: -1},
	}

	tx, err := db.Begin()
	require.NoError(t, err)
	for i := range notes {
		require.NoError(t, tx.InsertNote(notes[i]))
		require.NoError(t, tx.InsertCard(cards[i]))
	}
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback(), "rollback after commit is a no-op")
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	gotCol, err := reopened.Collection()
	require.NoError(t, err)
	assert.Equal(t, col, *gotCol)

	gotNotes, err := reopened.Notes()
	require.NoError(t, err)
	assert.Equal(t, notes, gotNotes)

	gotCards, err := reopened.Cards()
	require.NoError(t, err)
	assert.Equal(t, cards, gotCards)
}

func TestRollbackDiscardsRows(t *testing.T) {
	db, _ := newTestDB(t)

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.InsertNote(domain.Note{ID: 1, GUID: "g", Fields: "a"}))
	require.NoError(t, tx.Rollback())

	notes, err := db.Notes()
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestDuplicateNoteID(t *testing.T) {
	db, _ := newTestDB(t)

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.InsertNote(domain.Note{ID: 1, GUID: "a"}))
	err = tx.InsertNote(domain.Note{ID: 1, GUID: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert note 1")
}

func TestCollectionEmpty(t *testing.T) {
	db, _ := newTestDB(t)
	col, err := db.Collection()
	require.NoError(t, err)
	assert.Nil(t, col)
}
