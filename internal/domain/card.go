package domain

// Note is one row of the collection's notes table.
// Fields holds every field value joined with FieldSeparator, including empty ones.
type Note struct {
	ID        int64
	GUID      string
	ModelID   int64
	Modified  int64 // seconds
	USN       int
	Tags      string
	Fields    string
	SortField string
	Checksum  int64
	Flags     int
	Data      string
}

// FieldValues splits the field blob back into positional values.
func (n Note) FieldValues() []string {
	return SplitFields(n.Fields)
}

// Card is one row of the collection's cards table.
// A freshly exported card is new: type, queue and every scheduling column are zero.
type Card struct {
	ID             int64
	NoteID         int64
	DeckID         int64
	Ordinal        int
	Modified       int64 // seconds
	USN            int
	Type           int
	Queue          int
	Due            int64
	Interval       int64
	Factor         int64
	Reps           int64
	Lapses         int64
	Left           int64
	OriginalDue    int64
	OriginalDeckID int64
	Flags          int
	Data           string
}

// CollectionRow is the singleton row of the col table. The four JSON blobs
// carry the general config, note types, decks and deck option groups.
type CollectionRow struct {
	ID             int64
	Created        int64 // day start, seconds
	Modified       int64 // milliseconds
	SchemaModified int64 // milliseconds
	Version        int
	Dirty          int
	USN            int
	LastSync       int64
	Conf           string
	Models         string
	Decks          string
	DeckConf       string
	Tags           string
}
