// Package source turns a directory of markdown decks, local or fetched from
// git, into flashcard records.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conorfennell/deckpack/internal/domain"
	"github.com/conorfennell/deckpack/internal/gitsource"
	"github.com/conorfennell/deckpack/internal/parser"
)

// Resolve returns a local directory for spec. Git URLs are cloned or pulled
// into reposDir; anything else must be an existing directory.
func Resolve(ctx context.Context, logger *slog.Logger, spec, reposDir string) (string, error) {
	if !IsGitURL(spec) {
		info, err := os.Stat(spec)
		if err != nil {
			return "", fmt.Errorf("failed to stat source %s: %w", spec, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("source %s is not a directory", spec)
		}
		return spec, nil
	}

	localPath, err := gitURLToLocalPath(reposDir, spec)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create repos directory: %w", err)
	}
	if err := gitsource.Sync(ctx, logger, spec, localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

// IsGitURL reports whether spec looks like a remote repository rather than a path.
func IsGitURL(spec string) bool {
	if u, err := url.Parse(spec); err == nil {
		switch u.Scheme {
		case "http", "https", "ssh", "git":
			return u.Host != ""
		}
	}
	// scp-like syntax: git@github.com:user/repo.git
	at := strings.Index(spec, "@")
	colon := strings.Index(spec, ":")
	return at > 0 && colon > at && !strings.Contains(spec[:at], "/")
}

// Collect parses every .md file below dir. Files that fail to parse are
// reported in the returned slice and skipped; the walk itself failing is fatal.
func Collect(logger *slog.Logger, dir string) ([]domain.FlashcardRecord, []error, error) {
	var paths []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}
	sort.Strings(paths)

	var records []domain.FlashcardRecord
	var parseErrors []error
	for _, path := range paths {
		fileRecords, err := parser.ParseFile(path)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}
		logger.Debug("parsed file", "path", path, "cards", len(fileRecords))
		records = append(records, fileRecords...)
	}

	logger.Info("source collected",
		"path", dir,
		"files", len(paths),
		"cards", len(records),
		"errors", len(parseErrors),
	)
	return records, parseErrors, nil
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || parsedURL.Host == "" {
		if strings.Contains(repoURL, "@") {
			parts := strings.SplitN(repoURL, ":", 2)
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
