// Package deckfile loads deck definitions written in YAML.
//
//	name: Spanish::Basics
//	prefix: es
//	fields:
//	  - name: Front
//	  - name: Back
//	templates:
//	  - name: Card 1
//	    qfmt: "{{Front}}"
//	    afmt: "{{FrontSide}}<hr id=answer>{{Back}}"
//	notes:
//	  - fields: [Hola, Hello]
//	    tags: [greeting]
//	    media:
//	      - {field: Back, path: audio/hola.mp3, kind: audio}
//
// A deck without fields and templates uses domain.BasicSchema.
package deckfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/media"
)

const defaultFontSize = 20

// Deck is the on-disk deck definition.
type Deck struct {
	Name      string     `yaml:"name"`
	Prefix    string     `yaml:"prefix"`
	CSS       string     `yaml:"css"`
	Fields    []Field    `yaml:"fields"`
	Templates []Template `yaml:"templates"`
	Notes     []Note     `yaml:"notes"`

	// dir anchors relative media paths.
	dir string
}

type Field struct {
	Name string `yaml:"name"`
	Font string `yaml:"font"`
	Size int    `yaml:"size"`
}

type Template struct {
	Name  string `yaml:"name"`
	Front string `yaml:"qfmt"`
	Back  string `yaml:"afmt"`
}

type Note struct {
	Fields []string     `yaml:"fields"`
	Tags   []string     `yaml:"tags"`
	Media  []Attachment `yaml:"media"`
}

// Attachment embeds a media file and appends its markup to Field.
type Attachment struct {
	Field string `yaml:"field"`
	Path  string `yaml:"path"`
	Kind  string `yaml:"kind"`
}

// Target receives the media and records of a deck. *pack.Session implements it.
type Target interface {
	Register(asset domain.MediaAsset) (string, error)
	AddRecord(record domain.FlashcardRecord) error
}

// Load reads and decodes the deck file at path.
func Load(path string) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck file: %w", err)
	}
	defer f.Close()

	deck, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	deck.dir = filepath.Dir(path)
	return deck, nil
}

// Decode reads a deck from r. Relative media paths are resolved against the
// working directory.
func Decode(r io.Reader) (*Deck, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var deck Deck
	if err := dec.Decode(&deck); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("deck file is empty")
		}
		return nil, fmt.Errorf("failed to decode deck: %w", err)
	}
	return &deck, nil
}

// Schema converts the definition into a deck schema. Ordinals follow list order.
func (d *Deck) Schema() domain.DeckSchema {
	if len(d.Fields) == 0 && len(d.Templates) == 0 {
		schema := domain.BasicSchema(d.Name, d.Prefix)
		if d.CSS != "" {
			schema.CSS = d.CSS
		}
		return schema
	}

	schema := domain.DeckSchema{Name: d.Name, Prefix: d.Prefix, CSS: d.CSS}
	for i, f := range d.Fields {
		font, size := f.Font, f.Size
		if font == "" {
			font = "Arial"
		}
		if size == 0 {
			size = defaultFontSize
		}
		schema.Fields = append(schema.Fields, domain.FieldDefinition{Name: f.Name, Font: font, Size: size, Ordinal: i})
	}
	for i, t := range d.Templates {
		schema.Templates = append(schema.Templates, domain.CardTemplate{
			Name:           t.Name,
			QuestionFormat: t.Front,
			AnswerFormat:   t.Back,
			Ordinal:        i,
		})
	}
	return schema
}

// Apply checks every note against the schema, then registers each note's
// media with target and adds the note. Nothing is registered when any note
// is invalid; a registration failure stops at that note.
func (d *Deck) Apply(target Target) error {
	schema := d.Schema()
	for i, n := range d.Notes {
		if err := validateNote(schema, n); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
	}

	for i, n := range d.Notes {
		record, err := d.record(schema, n, target)
		if err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
		if err := target.AddRecord(record); err != nil {
			return err
		}
	}
	return nil
}

func validateNote(schema domain.DeckSchema, n Note) error {
	if len(n.Fields) != len(schema.Fields) {
		return fmt.Errorf("%w: got %d values, schema has %d fields",
			domain.ErrFieldCountMismatch, len(n.Fields), len(schema.Fields))
	}
	for _, a := range n.Media {
		if schema.FieldIndex(a.Field) < 0 {
			return fmt.Errorf("media field %q is not in the schema", a.Field)
		}
		if _, err := domain.ParseMediaKind(a.Kind); err != nil {
			return err
		}
	}
	return nil
}

// record registers n's media and builds its record. n must have passed validateNote.
func (d *Deck) record(schema domain.DeckSchema, n Note, target Target) (domain.FlashcardRecord, error) {
	values := append([]string(nil), n.Fields...)
	for _, a := range n.Media {
		idx := schema.FieldIndex(a.Field)
		kind, _ := domain.ParseMediaKind(a.Kind)

		name, err := target.Register(domain.MediaAsset{Path: d.resolve(a.Path), Kind: kind})
		if err != nil {
			return domain.FlashcardRecord{}, err
		}
		values[idx] = appendMarkup(values[idx], markup(kind, name))
	}
	return domain.FlashcardRecord{Values: values, Tags: n.Tags}, nil
}

func (d *Deck) resolve(path string) string {
	if filepath.IsAbs(path) || d.dir == "" {
		return path
	}
	return filepath.Join(d.dir, path)
}

func markup(kind domain.MediaKind, name string) string {
	if kind == domain.MediaImage {
		return media.ImageTag(name)
	}
	return media.SoundTag(name)
}

func appendMarkup(value, tag string) string {
	if value == "" {
		return tag
	}
	return value + " " + tag
}
