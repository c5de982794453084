package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/services"
	"github.com/desertthunder/favsync/internal/shared"
	"github.com/desertthunder/favsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// resolveRepo looks up a repository by numeric id or name.
func (r *Runner) resolveRepo(token string) (*repos.Identity, error) {
	registry, err := repos.NewRegistry(r.store)
	if err != nil {
		return nil, fmt.Errorf("failed to scan repositories: %w", err)
	}

	identity := registry.Resolve(token)
	if identity == nil {
		return nil, fmt.Errorf("%w: %q (run 'favsync list' to see known repositories)", shared.ErrRepoNotFound, token)
	}
	return identity, nil
}

// printProgress consumes engine updates and renders them until the channel closes.
func (r *Runner) printProgress(progressCh <-chan tasks.ProgressUpdate) {
	for update := range progressCh {
		switch update.Phase {
		case tasks.FetchRemote:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.Diff:
			r.writePlain("🔍 %s\n", update.Message)
		case tasks.Delete:
			r.writePlain("   [%d/%d] 🗑  %s\n", update.Step, update.Total, update.Message)
		case tasks.Download, tasks.Repurge:
			r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
		case tasks.Persist:
			r.writePlain("💾 %s\n", update.Message)
		}
	}
}

func (r *Runner) printSyncSummary(result *tasks.SyncResult) {
	r.writePlain("\n")
	r.writePlainHeader("Sync Complete!")
	r.writePlain("Repository: %s\n", result.RepoName)
	r.writePlain("Downloaded: %d\n", result.Downloaded)
	r.writePlain("Deleted: %d\n", result.Deleted)
	r.writePlain("Failed: %d\n", result.Failed)
	r.writePlain("Tracked items: %d\n", result.LedgerSize)
	r.writePlain("Elapsed: %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Second))

	if result.PartialSnapshot {
		r.writePlain("\n⚠ Remote listing was cut short; departed items were not removed this run\n")
	}

	if len(result.Failures) > 0 {
		r.writePlain("\nFailed items:\n")
		for _, failure := range result.Failures {
			r.writePlain("  - %s (%s): %v\n", failure.Title, failure.ItemID, failure.Err)
		}
	}
}

// Init creates a repository for a remote collection and runs the first sync.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	collection := strings.TrimSpace(cmd.StringArg("collection"))
	if collection == "" {
		return fmt.Errorf("%w: collection id or URL", shared.ErrMissingArgument)
	}

	collectionID := collection
	if strings.Contains(collection, "://") {
		parsed, err := services.ParseCollectionURL(collection)
		if err != nil {
			return fmt.Errorf("failed to parse collection URL: %w", err)
		}
		collectionID = parsed
	}

	name := cmd.String("name")
	quality := cmd.Int("quality")
	audioOnly := cmd.Bool("audio")

	r.logger.Info("initializing repository", "collection", collectionID, "quality", quality, "audio_only", audioOnly)
	r.writePlain("Initializing repository for collection %s...\n\n", collectionID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		r.printProgress(progressCh)
		close(progressDone)
	}()

	identity, result, err := r.engine.Init(ctx, collectionID, name, quality, audioOnly, progressCh)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Repository '%s' created (id %d)\n", identity.RepoName, identity.RepoID)
	r.writePlain("Collection: %s by %s\n", identity.FavTitle, identity.FavUpper)
	r.writePlain("Mode: %s, quality: %s\n", identity.Mode(), repos.QualityLabel(identity.Quality))
	r.printSyncSummary(result)
	return nil
}

// Pull syncs a repository against its remote collection.
func (r *Runner) Pull(ctx context.Context, cmd *cli.Command) error {
	token := strings.TrimSpace(cmd.StringArg("repo"))
	if token == "" {
		return fmt.Errorf("%w: repository id or name", shared.ErrMissingArgument)
	}

	identity, err := r.resolveRepo(token)
	if err != nil {
		return err
	}

	r.logger.Info("starting sync", "repo", identity.RepoName, "collection", identity.RemoteCollectionID)
	r.writePlain("Syncing '%s' against collection %s...\n\n", identity.RepoName, identity.RemoteCollectionID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		r.printProgress(progressCh)
		close(progressDone)
	}()

	result, err := r.engine.Pull(ctx, identity.RepoName, progressCh)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	r.printSyncSummary(result)
	return nil
}
