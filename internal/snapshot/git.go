package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// GitDestination commits correlation config snapshots to a file in a git
// clone and pushes them.
type GitDestination struct {
	repo   string // path to the local clone
	file   string // file path within the repo
	branch string // branch to commit and push to
	output io.Writer
}

// NewGitDestination creates a git destination. repo is the path to an
// existing local clone. Git output goes to stderr.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{
		repo:   repo,
		file:   file,
		branch: branch,
		output: os.Stderr,
	}
}

func (d *GitDestination) Name() string { return "git:" + d.repo + "/" + d.file + "@" + d.branch }

// Write replaces the snapshot file with data, commits, and pushes. Nothing
// is written when the snapshot file in the clone already has h's digest, so a new
// snapshot id or timestamp alone never produces a commit.
func (d *GitDestination) Write(ctx context.Context, h *Header, data []byte) error {
	if err := d.git(ctx, "checkout", d.branch); err != nil {
		return fmt.Errorf("git checkout: %w", err)
	}

	// The remote might not have the branch yet.
	_ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	filePath := filepath.Join(d.repo, d.file)
	if prev := readHeaderFile(filePath); prev != nil && h.Digest != "" && prev.Digest == h.Digest {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	if err := d.git(ctx, "add", d.file); err != nil {
		return fmt.Errorf("git add: %w", err)
	}

	// Exit status 0 means nothing staged.
	if err := d.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		return nil
	}

	if err := d.git(ctx, "commit", "-m", commitMessage(h)); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}

	if err := d.git(ctx, "push", "origin", d.branch); err != nil {
		return fmt.Errorf("git push: %w", err)
	}

	return nil
}

func (d *GitDestination) git(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	cmd.Stdout = d.output
	cmd.Stderr = d.output
	return cmd.Run()
}

func commitMessage(h *Header) string {
	return fmt.Sprintf("snapshot %s: %d correlation configs", h.ID, h.ConfigCount)
}
