package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/deckpack/internal/pack"
	"github.com/conorfennell/deckpack/internal/testutil"
)

func TestRunDeckFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteBytes(t, filepath.Join(dir, "hola.mp3"), []byte("ID3"))
	deck := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(deck, []byte(`
name: Spanish
prefix: es
fields: [{name: Front}, {name: Back}]
templates: [{name: Card 1, qfmt: "{{Front}}", afmt: "{{Back}}"}]
notes:
  - fields: [Hola, Hello]
    media: [{field: Front, path: hola.mp3, kind: audio}]
  - fields: [Adiós, Bye]
`), 0644))
	out := filepath.Join(t.TempDir(), "spanish.apkg")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--deck", deck, "--out", out, "--staging-dir", t.TempDir()}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "Wrote 2 cards")

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"--inspect", out}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Notes: 2, cards: 2, media: 1")
	assert.Contains(t, stdout.String(), "- 0: es-hola.mp3")
	assert.Contains(t, stdout.String(), "- Adiós")
}

func TestRunSourceDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "greetings")
	testutil.WriteBytes(t, filepath.Join(dir, "a.md"), []byte("Q: Hola\nA: Hello\n\nQ: Adiós\nA: Bye\nC: farewell\n"))
	testutil.WriteBytes(t, filepath.Join(dir, "b.md"), []byte("just prose\n"))
	out := filepath.Join(t.TempDir(), "greetings.apkg")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--source", dir, "-o", out, "--log-format", "json"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	summary, err := pack.Inspect(out)
	require.NoError(t, err)
	require.Len(t, summary.Notes, 2)
	assert.Equal(t, "Adiós\x1fBye\x1ffarewell", summary.Notes[1].Fields)
	assert.Contains(t, summary.Collection.Decks, `"greetings"`)
}

func TestRunErrors(t *testing.T) {
	emptyDir := t.TempDir()
	testCases := []struct {
		name string
		args []string
		msg  string
	}{
		{"no input", nil, "exactly one of --deck or --source"},
		{"both inputs", []string{"--deck", "a.yaml", "--source", "dir"}, "exactly one of --deck or --source"},
		{"no cards", []string{"--source", emptyDir}, "no cards found"},
		{"bad config", []string{"--source", emptyDir, "--jpeg-quality", "0"}, "invalid config"},
		{"unknown flag", []string{"--colour"}, "unknown flag"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tc.args, &stdout, &stderr)
			assert.ErrorContains(t, err, tc.msg)
		})
	}
}
