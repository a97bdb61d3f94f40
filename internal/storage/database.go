package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/conorfennell/deckpack/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around a collection database connection.
type DB struct {
	conn *sql.DB
}

// Create makes a new collection database at path and applies the schema.
// The file must not exist yet; it is created exclusively before SQLite opens it.
func Create(path string) (*DB, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("database %s already exists: %w", path, err)
		}
		return nil, fmt.Errorf("failed to create database %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to create database %s: %w", path, err)
	}

	db, err := open(path)
	if err != nil {
		return nil, err
	}

	if _, err := db.conn.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

// Open connects to an existing collection database.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return open(path)
}

func open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertCollection inserts the singleton collection row.
func (db *DB) InsertCollection(col domain.CollectionRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		col.ID,
		col.Created,
		col.Modified,
		col.SchemaModified,
		col.Version,
		col.Dirty,
		col.USN,
		col.LastSync,
		col.Conf,
		col.Models,
		col.Decks,
		col.DeckConf,
		col.Tags,
	)
	if err != nil {
		return fmt.Errorf("failed to insert collection row: %w", err)
	}
	return nil
}

// Tx is a write transaction for note and card rows.
type Tx struct {
	tx *sql.Tx
}

// Begin starts a transaction.
func (db *DB) Begin() (*Tx, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. It is a no-op after Commit.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// InsertNote inserts a note row.
func (t *Tx) InsertNote(n domain.Note) error {
	_, err := t.tx.Exec(`
		INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID,
		n.GUID,
		n.ModelID,
		n.Modified,
		n.USN,
		n.Tags,
		n.Fields,
		n.SortField,
		n.Checksum,
		n.Flags,
		n.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert note %d: %w", n.ID, err)
	}
	return nil
}

// InsertCard inserts a card row.
func (t *Tx) InsertCard(c domain.Card) error {
	_, err := t.tx.Exec(`
		INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.NoteID,
		c.DeckID,
		c.Ordinal,
		c.Modified,
		c.USN,
		c.Type,
		c.Queue,
		c.Due,
		c.Interval,
		c.Factor,
		c.Reps,
		c.Lapses,
		c.Left,
		c.OriginalDue,
		c.OriginalDeckID,
		c.Flags,
		c.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %d for note %d: %w", c.ID, c.NoteID, err)
	}
	return nil
}

// Collection retrieves the collection row.
func (db *DB) Collection() (*domain.CollectionRow, error) {
	var col domain.CollectionRow
	row := db.conn.QueryRow(`
		SELECT id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags
		FROM col LIMIT 1
	`)

	err := row.Scan(
		&col.ID,
		&col.Created,
		&col.Modified,
		&col.SchemaModified,
		&col.Version,
		&col.Dirty,
		&col.USN,
		&col.LastSync,
		&col.Conf,
		&col.Models,
		&col.Decks,
		&col.DeckConf,
		&col.Tags,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Empty collection
		}
		return nil, fmt.Errorf("failed to read collection row: %w", err)
	}
	return &col, nil
}

// Notes retrieves all notes ordered by id.
func (db *DB) Notes() ([]domain.Note, error) {
	rows, err := db.conn.Query(`
		SELECT id, guid, mid, mod, usn, tags, flds, CAST(sfld AS TEXT), csum, flags, data
		FROM notes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(
			&n.ID,
			&n.GUID,
			&n.ModelID,
			&n.Modified,
			&n.USN,
			&n.Tags,
			&n.Fields,
			&n.SortField,
			&n.Checksum,
			&n.Flags,
			&n.Data,
		); err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Cards retrieves all cards ordered by id.
func (db *DB) Cards() ([]domain.Card, error) {
	rows, err := db.conn.Query(`
		SELECT id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data
		FROM cards ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(
			&c.ID,
			&c.NoteID,
			&c.DeckID,
			&c.Ordinal,
			&c.Modified,
			&c.USN,
			&c.Type,
			&c.Queue,
			&c.Due,
			&c.Interval,
			&c.Factor,
			&c.Reps,
			&c.Lapses,
			&c.Left,
			&c.OriginalDue,
			&c.OriginalDeckID,
			&c.Flags,
			&c.Data,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
