package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/shared"
)

// UpdateOpts describes a repository settings change. Nil fields are left
// untouched. ConfirmRepurge must be set by the caller after prompting the
// operator; the engine itself never prompts.
type UpdateOpts struct {
	Quality        *int
	AudioOnly      *bool
	ConfirmRepurge bool
}

// UpdateResult reports what a settings update did.
type UpdateResult struct {
	Identity    *repos.Identity
	ModeChanged bool
	Repurged    bool
	Sync        *SyncResult // set when a repurge ran a full re-sync
}

// ShouldRepurge reports whether existing artifacts must be rebuilt: only a
// confirmed download-mode change triggers it. A quality change alone never
// does, since already-downloaded artifacts stay valid.
func ShouldRepurge(modeChanged, confirmed bool) bool {
	return modeChanged && confirmed
}

// UpdateSettings applies quality and/or download-mode changes to a
// repository and saves them. A confirmed mode change purges every tracked
// artifact, clears the ledger and runs a full sync so the repository is
// rebuilt under the new mode.
func (e *SyncEngine) UpdateSettings(ctx context.Context, repoName string, opts UpdateOpts, progress chan<- ProgressUpdate) (*UpdateResult, error) {
	identity, err := e.store.Load(repoName)
	if err != nil {
		return nil, fmt.Errorf("failed to load repository: %w", err)
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: repository %q", shared.ErrNotInitialized, repoName)
	}

	if opts.Quality != nil && !repos.ValidQuality(*opts.Quality) {
		return nil, fmt.Errorf("%w: %d", shared.ErrInvalidQuality, *opts.Quality)
	}

	result := &UpdateResult{Identity: identity}

	if opts.Quality != nil && *opts.Quality != identity.Quality {
		e.logger.Info("quality updated",
			"repo", repoName,
			"from", repos.QualityLabel(identity.Quality),
			"to", repos.QualityLabel(*opts.Quality))
		identity.Quality = *opts.Quality
	}

	if opts.AudioOnly != nil && *opts.AudioOnly != identity.AudioOnly {
		result.ModeChanged = true
		identity.AudioOnly = *opts.AudioOnly
		e.logger.Info("download mode updated", "repo", repoName, "mode", identity.Mode())
	}

	if err := e.store.Save(repoName, identity); err != nil {
		return nil, fmt.Errorf("failed to save repository settings: %w", err)
	}

	if !ShouldRepurge(result.ModeChanged, opts.ConfirmRepurge) {
		return result, nil
	}

	if err := e.repurge(repoName, identity, progress); err != nil {
		return nil, err
	}
	result.Repurged = true

	sync, err := e.Pull(ctx, repoName, progress)
	if err != nil {
		return nil, err
	}
	result.Sync = sync
	result.Identity = identity
	return result, nil
}

// repurge removes every ledger-tracked artifact and clears the ledger. Both
// mode variants of each name are removed, since artifacts on disk may predate
// the mode change. The emptied ledger is saved before re-downloading so a
// crash mid-rebuild does not strand entries pointing at deleted files.
func (e *SyncEngine) repurge(repoName string, identity *repos.Identity, progress chan<- ProgressUpdate) error {
	repoDir := e.store.RepoPath(repoName)

	i := 0
	for itemID, entry := range identity.VideoList {
		i++
		e.sendProgress(progress, repurgeUpdate(i, len(identity.VideoList), entry.Title))

		for _, audioOnly := range []bool{true, false} {
			name := repos.ArtifactName(entry.Title, itemID, audioOnly)
			if err := os.Remove(filepath.Join(repoDir, name)); err != nil && !os.IsNotExist(err) {
				e.logger.Warn("failed to remove artifact during purge", "item", itemID, "file", name, "err", err)
			}
		}
	}

	identity.VideoList = make(map[string]*repos.LedgerEntry)
	if err := e.store.Save(repoName, identity); err != nil {
		return fmt.Errorf("failed to save purged ledger: %w", err)
	}
	return nil
}
