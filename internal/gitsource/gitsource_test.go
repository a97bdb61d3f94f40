package gitsource

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// commitFile writes name into the upstream worktree and commits it.
func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "deckpack", Email: "deckpack@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestSyncClonesThenPulls(t *testing.T) {
	upstreamDir := t.TempDir()
	upstream, err := git.PlainInit(upstreamDir, false)
	require.NoError(t, err)
	commitFile(t, upstream, upstreamDir, "spanish.md", "Q: Hola\nA: Hello\n")

	localPath := filepath.Join(t.TempDir(), "checkout")
	ctx := context.Background()

	require.NoError(t, Sync(ctx, quietLogger, upstreamDir, localPath))
	assert.FileExists(t, filepath.Join(localPath, "spanish.md"))

	// Nothing new upstream.
	require.NoError(t, Sync(ctx, quietLogger, upstreamDir, localPath))

	commitFile(t, upstream, upstreamDir, "french.md", "Q: Bonjour\nA: Hello\n")
	require.NoError(t, Sync(ctx, quietLogger, upstreamDir, localPath))

	data, err := os.ReadFile(filepath.Join(localPath, "french.md"))
	require.NoError(t, err)
	assert.Equal(t, "Q: Bonjour\nA: Hello\n", string(data))
}

func TestSyncFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing upstream", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), "checkout")
		err := Sync(ctx, quietLogger, filepath.Join(t.TempDir(), "nope"), localPath)
		require.Error(t, err)
		assert.NoDirExists(t, localPath)
	})

	t.Run("existing directory that is not a repo", func(t *testing.T) {
		err := Sync(ctx, quietLogger, "https://example.com/deck.git", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open existing repo")
	})
}
