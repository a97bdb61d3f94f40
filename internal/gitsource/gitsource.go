// Package gitsource keeps local checkouts of git repositories holding
// markdown decks.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at localPath,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, logger *slog.Logger, url, localPath string) error {
	logger = logger.With("url", url, "path", localPath)

	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("cloning repository")
		if _, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: url}); err != nil {
			os.RemoveAll(localPath)
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		logger.Info("clone complete")
		return nil
	case err != nil:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
	}

	logger.Info("pulling repository")
	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		logger.Debug("repository already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
	}
	logger.Info("pull complete")
	return nil
}
