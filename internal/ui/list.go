package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/favsync/internal/repos"
)

var _ list.Item = repoItem{}

// repoItem wraps [repos.Identity] to implement [list.Item].
type repoItem struct {
	identity *repos.Identity
}

func (i repoItem) FilterValue() string { return i.identity.RepoName }
func (i repoItem) Title() string {
	return fmt.Sprintf("[%d] %s", i.identity.RepoID, i.identity.RepoName)
}
func (i repoItem) Description() string {
	desc := fmt.Sprintf("%d items • %s • %s", len(i.identity.VideoList), i.identity.Mode(), repos.QualityLabel(i.identity.Quality))
	if i.identity.LastSync == nil {
		desc = fmt.Sprintf("%s • never synced", desc)
	}
	return desc
}
