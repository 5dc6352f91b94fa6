// Package vcs reports the git state of files about to be rewritten.
package vcs

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// FileStatus describes a file's state in its enclosing git worktree.
type FileStatus struct {
	// InRepo is false when no worktree encloses the file.
	InRepo bool
	// Root is the worktree root.
	Root string
	// Tracked reports whether the file is in the index.
	Tracked bool
	// Dirty reports staged, unstaged or untracked changes.
	Dirty bool
	// Code is the two-letter short status, staging then worktree.
	Code string
}

// Clean reports whether rewriting the file can be undone from git: either it
// lives outside any repository or it is tracked with no pending changes.
func (s FileStatus) Clean() bool {
	return !s.InRepo || (s.Tracked && !s.Dirty)
}

func (s FileStatus) String() string {
	switch {
	case !s.InRepo:
		return "not in a git repository"
	case !s.Tracked:
		return "untracked"
	case s.Dirty:
		return fmt.Sprintf("modified (%s)", s.Code)
	default:
		return "clean"
	}
}

// Status looks up the git state of the file at path.
func Status(path string) (FileStatus, error) {
	abs, err := resolve(path)
	if err != nil {
		return FileStatus{}, err
	}

	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return FileStatus{}, nil
	}
	if err != nil {
		return FileStatus{}, fmt.Errorf("open repository for %s: %w", path, err)
	}

	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return FileStatus{}, nil
	}
	if err != nil {
		return FileStatus{}, err
	}

	root, err := resolve(wt.Filesystem.Root())
	if err != nil {
		return FileStatus{}, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return FileStatus{}, err
	}
	rel = filepath.ToSlash(rel)

	status := FileStatus{InRepo: true, Root: root, Code: "  "}
	idx, err := repo.Storer.Index()
	if err != nil {
		return FileStatus{}, fmt.Errorf("read index: %w", err)
	}
	if _, err := idx.Entry(rel); err == nil {
		status.Tracked = true
	}

	st, err := wt.Status()
	if err != nil {
		return FileStatus{}, fmt.Errorf("worktree status: %w", err)
	}
	if fs, ok := st[rel]; ok {
		status.Code = fmt.Sprintf("%c%c", fs.Staging, fs.Worktree)
		status.Dirty = fs.Staging != git.Unmodified || fs.Worktree != git.Unmodified
	}
	return status, nil
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
