// Package gitsource keeps a local checkout of a git-hosted Content Catalog.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones the repository at url into localPath if it is not there yet,
// or pulls the latest changes if it is.
func Sync(ctx context.Context, log *slog.Logger, url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.InfoContext(ctx, "cloning catalog repository", slog.String("url", url), slog.String("path", localPath))
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:   url,
			Depth: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}

	case err == nil:
		log.InfoContext(ctx, "pulling catalog repository", slog.String("path", localPath))
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}

	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	log.DebugContext(ctx, "catalog repository ready", slog.String("path", localPath))
	return nil
}

// IsRemote reports whether source names a git repository rather than a
// local directory.
func IsRemote(source string) bool {
	if strings.HasSuffix(source, ".git") {
		return true
	}
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
		return true
	}
	return false
}

// LocalPath maps a repository URL onto a checkout directory under baseDir:
// https://github.com/acme/catalog.git becomes baseDir/github.com/acme/catalog.
// scp-like SSH addresses (git@host:org/repo.git) are accepted too.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && parsedURL.Host != "" {
		sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
		return filepath.Join(baseDir, parsedURL.Hostname(), sanitizedPath), nil
	}

	if at := strings.Index(repoURL, "@"); at >= 0 {
		hostAndPath := repoURL[at+1:]
		host, repoPath, ok := strings.Cut(hostAndPath, ":")
		if ok && host != "" && repoPath != "" {
			return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
