package domain

import "errors"

// Errors returned by the export engine. They are always wrapped with the
// record or asset that caused them.
var (
	// ErrSchemaValidation is returned for a malformed DeckSchema.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrFieldCountMismatch is returned when a record's value count differs
	// from the schema's field count.
	ErrFieldCountMismatch = errors.New("field count mismatch")

	// ErrMediaNameCollision is returned when two distinct assets resolve to
	// the same public filename.
	ErrMediaNameCollision = errors.New("media name collision")

	// ErrUnsupportedMedia is returned for a media kind the engine cannot embed.
	ErrUnsupportedMedia = errors.New("unsupported media kind")

	// ErrTranscode is returned when an image cannot be decoded or re-encoded.
	ErrTranscode = errors.New("transcode failed")

	// ErrStorage is returned for database, manifest and archive I/O failures.
	ErrStorage = errors.New("storage failure")
)
