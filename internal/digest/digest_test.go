package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text", input: "Hola", expected: "Hola"},
		{name: "formatting tags", input: "<b>Hola</b> <i>mundo</i>", expected: "Hola mundo"},
		{name: "entities", input: "Hola &amp; adiós", expected: "Hola & adiós"},
		{name: "image keeps filename", input: `<img src="cat.jpg">Hola`, expected: " cat.jpg Hola"},
		{name: "style is dropped", input: "<style>.x{color:red}</style>Hola", expected: "Hola"},
		{name: "comments are dropped", input: "Ho<!-- hidden -->la", expected: "Hola"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripHTML(tc.input))
		})
	}
}

func TestChecksum(t *testing.T) {
	t.Run("matches sha1 prefix", func(t *testing.T) {
		// sha1("Hola") = 4e46dc09...
		assert.Equal(t, int64(0x4e46dc09), Checksum("Hola"))
	})

	t.Run("ignores markup", func(t *testing.T) {
		assert.Equal(t, Checksum("Hola"), Checksum("<b>Hola</b>"))
		assert.Equal(t, int64(871773493), Checksum("Hola &amp; adiós"))
	})

	t.Run("image source contributes", func(t *testing.T) {
		assert.Equal(t, int64(1759337947), Checksum(`<img src="cat.jpg">Hola`))
	})

	t.Run("empty sort field", func(t *testing.T) {
		// sha1("") = da39a3ee...
		assert.Equal(t, int64(0xda39a3ee), Checksum(""))
	})

	t.Run("different text differs", func(t *testing.T) {
		assert.NotEqual(t, Checksum("Hola"), Checksum("Adiós"))
	})
}

func TestNameHash(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, "4c0419917553f059cf94", NameHash("hola.png"))
		assert.Equal(t, NameHash("hola.png"), NameHash("hola.png"))
	})

	t.Run("different names differ", func(t *testing.T) {
		assert.NotEqual(t, NameHash("a.png"), NameHash("b.png"))
	})
}
