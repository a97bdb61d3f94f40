package domain

import "strings"

// FieldSeparator joins note field values inside the notes.flds column.
const FieldSeparator = "\x1f"

// FieldDefinition describes one field of a note type. Ordinal is its position
// in DeckSchema.Fields.
type FieldDefinition struct {
	Name    string `validate:"required"`
	Font    string
	Size    int `validate:"gte=0"`
	Ordinal int `validate:"gte=0"`
}

// CardTemplate renders a card from a note. The formats use {{Field}} and
// {{#Field}}...{{/Field}} syntax and are passed through untouched.
type CardTemplate struct {
	Name           string `validate:"required"`
	QuestionFormat string `validate:"required"`
	AnswerFormat   string
	Ordinal        int `validate:"gte=0"`
}

// DeckSchema is the full description of a deck and its note type.
// Prefix namespaces media filenames and must be safe to use in a filename.
type DeckSchema struct {
	Name      string `validate:"required"`
	Prefix    string `validate:"required,filesafe"`
	CSS       string
	Fields    []FieldDefinition `validate:"required,min=1,dive"`
	Templates []CardTemplate    `validate:"required,min=1,dive"`
}

// FieldNames returns the field names in ordinal order.
func (s DeckSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldIndex returns the position of the named field, or -1.
func (s DeckSchema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FlashcardRecord holds one value per schema field, in schema order.
type FlashcardRecord struct {
	Values []string
	Tags   []string
}

// JoinFields builds the field blob. Empty values keep their slot.
func JoinFields(values []string) string {
	return strings.Join(values, FieldSeparator)
}

// SplitFields is the inverse of JoinFields.
func SplitFields(blob string) []string {
	return strings.Split(blob, FieldSeparator)
}

const basicCSS = `.card {
  font-family: arial;
  font-size: 20px;
  text-align: center;
  color: black;
  background-color: white;
}
.context {
  font-size: 14px;
  color: #666;
}
`

// BasicSchema is the note type used for markdown sources: a question, an
// answer and an optional context line.
func BasicSchema(name, prefix string) DeckSchema {
	return DeckSchema{
		Name:   name,
		Prefix: prefix,
		CSS:    basicCSS,
		Fields: []FieldDefinition{
			{Name: "Question", Font: "Arial", Size: 20, Ordinal: 0},
			{Name: "Answer", Font: "Arial", Size: 20, Ordinal: 1},
			{Name: "Context", Font: "Arial", Size: 14, Ordinal: 2},
		},
		Templates: []CardTemplate{
			{
				Name:           "Card 1",
				QuestionFormat: "{{Question}}",
				AnswerFormat:   "{{FrontSide}}\n\n<hr id=answer>\n\n{{Answer}}{{#Context}}<div class=context>{{Context}}</div>{{/Context}}",
				Ordinal:        0,
			},
		},
	}
}
