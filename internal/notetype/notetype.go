// Package notetype turns a DeckSchema into the note type ("model") stored in
// a collection.
package notetype

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/ids"
)

var fileSafe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("filesafe", func(fl validator.FieldLevel) bool {
		return fileSafe.MatchString(fl.Field().String())
	})
	return v
}

// Field is one entry of a note type's flds array.
type Field struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	Sticky bool     `json:"sticky"`
	RTL    bool     `json:"rtl"`
	Media  []string `json:"media"`
}

// Template is one entry of a note type's tmpls array.
type Template struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	QFmt  string `json:"qfmt"`
	AFmt  string `json:"afmt"`
	BQFmt string `json:"bqfmt"`
	BAFmt string `json:"bafmt"`
	Did   *int64 `json:"did"`
}

// Model is a validated, serialisable note type.
type Model struct {
	ID        int64
	Name      string
	Fields    []Field
	Templates []Template
	CSS       string
}

type options struct {
	ids *ids.Allocator
}

// Option configures Build.
type Option func(*options)

// WithIDs replaces the process-wide model id allocator.
func WithIDs(a *ids.Allocator) Option {
	return func(o *options) { o.ids = a }
}

// Validate checks the schema invariants: required names, at least one
// template, and dense ordinals starting at zero for fields and templates.
func Validate(schema domain.DeckSchema) error {
	if err := validate.Struct(schema); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", domain.ErrSchemaValidation, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrSchemaValidation, err)
	}

	seen := make(map[string]bool, len(schema.Fields))
	for i, f := range schema.Fields {
		if f.Ordinal != i {
			return fmt.Errorf("%w: field %q has ordinal %d, expected %d", domain.ErrSchemaValidation, f.Name, f.Ordinal, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field name %q", domain.ErrSchemaValidation, f.Name)
		}
		seen[f.Name] = true
	}
	for i, tmpl := range schema.Templates {
		if tmpl.Ordinal != i {
			return fmt.Errorf("%w: template %q has ordinal %d, expected %d", domain.ErrSchemaValidation, tmpl.Name, tmpl.Ordinal, i)
		}
	}
	return nil
}

// Build validates schema and produces its Model with a fresh id.
func Build(schema domain.DeckSchema, opts ...Option) (*Model, error) {
	o := options{ids: ids.Models}
	for _, opt := range opts {
		opt(&o)
	}

	if err := Validate(schema); err != nil {
		return nil, err
	}

	fields := make([]Field, len(schema.Fields))
	for i, f := range schema.Fields {
		fields[i] = Field{
			Name:  f.Name,
			Ord:   f.Ordinal,
			Font:  f.Font,
			Size:  f.Size,
			Media: []string{},
		}
	}

	templates := make([]Template, len(schema.Templates))
	for i, tmpl := range schema.Templates {
		templates[i] = Template{
			Name: tmpl.Name,
			Ord:  tmpl.Ordinal,
			QFmt: tmpl.QuestionFormat,
			AFmt: tmpl.AnswerFormat,
		}
	}

	return &Model{
		ID:        o.ids.Next(),
		Name:      schema.Name,
		Fields:    fields,
		Templates: templates,
		CSS:       NormalizeCSS(schema.CSS),
	}, nil
}

// NormalizeCSS converts CRLF and lone CR line endings to LF.
func NormalizeCSS(css string) string {
	css = strings.ReplaceAll(css, "\r\n", "\n")
	return strings.ReplaceAll(css, "\r", "\n")
}

// FieldCount is the number of values every note of this type carries.
func (m *Model) FieldCount() int {
	return len(m.Fields)
}

// FieldsJSON serialises the field list.
func (m *Model) FieldsJSON() ([]byte, error) {
	return json.Marshal(m.Fields)
}

// TemplatesJSON serialises the template array.
func (m *Model) TemplatesJSON() ([]byte, error) {
	return json.Marshal(m.Templates)
}

// Requirements lists, per template, the fields needed to generate a card.
// Every template is tied to the first field.
func (m *Model) Requirements() [][]any {
	req := make([][]any, len(m.Templates))
	for i, tmpl := range m.Templates {
		req[i] = []any{tmpl.Ord, "any", []int{0}}
	}
	return req
}
