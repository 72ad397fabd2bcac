package gitinfo

import (
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/lenra-io/lenra-cli/internal/domain"
)

// Reader implements domain.GitInfo using go-git.
type Reader struct{}

var _ domain.GitInfo = (*Reader)(nil)

func New() *Reader {
	return &Reader{}
}

func (g *Reader) IsGitRepo(projectPath string) bool {
	_, err := open(projectPath)
	return err == nil
}

// Head returns the HEAD commit of the repository holding projectPath.
func (g *Reader) Head(projectPath string) (domain.GitHead, error) {
	repo, err := open(projectPath)
	if err != nil {
		return domain.GitHead{}, fmt.Errorf("opening git repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return domain.GitHead{}, fmt.Errorf("getting HEAD: %w", err)
	}

	out := domain.GitHead{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		out.Branch = head.Name().Short()
	}
	return out, nil
}

// open finds the repository from projectPath upwards, so a check run from an
// app subdirectory still reports the commit.
func open(projectPath string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(projectPath, &git.PlainOpenOptions{DetectDotGit: true})
}
