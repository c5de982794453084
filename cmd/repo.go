package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/favsync/internal/formatter"
	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/repositories"
	"github.com/desertthunder/favsync/internal/shared"
	"github.com/desertthunder/favsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// List prints all known repositories.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	registry, err := repos.NewRegistry(r.store)
	if err != nil {
		return fmt.Errorf("failed to scan repositories: %w", err)
	}

	known := registry.List()

	if useJSON {
		return r.writeJSON(known, pretty)
	}

	if len(known) == 0 {
		r.writePlain("No repositories found under %s\n", r.store.BaseDir())
		r.writePlain("Run 'favsync init <collection>' to create one\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Repositories (%d)", len(known)))
	for _, identity := range known {
		lastSync := "never"
		if identity.LastSync != nil {
			lastSync = identity.LastSync.Format("2006-01-02 15:04")
		}
		r.writePlain("[%d] %s\n", identity.RepoID, identity.RepoName)
		r.writePlain("    %s by %s\n", identity.FavTitle, identity.FavUpper)
		r.writePlain("    %d items • %s • %s • last sync: %s\n",
			len(identity.VideoList), identity.Mode(), repos.QualityLabel(identity.Quality), lastSync)
	}

	return nil
}

// Update changes repository quality or download mode, re-downloading on a
// confirmed mode change.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	token := strings.TrimSpace(cmd.StringArg("repo"))
	if token == "" {
		return fmt.Errorf("%w: repository id or name", shared.ErrMissingArgument)
	}

	identity, err := r.resolveRepo(token)
	if err != nil {
		return err
	}

	opts := tasks.UpdateOpts{ConfirmRepurge: cmd.Bool("redownload")}
	if cmd.IsSet("quality") {
		quality := cmd.Int("quality")
		opts.Quality = &quality
	}
	if cmd.Bool("audio-only") && cmd.Bool("video") {
		return fmt.Errorf("%w: cannot specify both --audio-only and --video", shared.ErrInvalidArgument)
	}
	if cmd.Bool("audio-only") {
		audioOnly := true
		opts.AudioOnly = &audioOnly
	} else if cmd.Bool("video") {
		audioOnly := false
		opts.AudioOnly = &audioOnly
	}

	if opts.Quality == nil && opts.AudioOnly == nil {
		return fmt.Errorf("%w: nothing to change (use --quality, --audio-only, or --video)", shared.ErrMissingArgument)
	}

	modeChanged := opts.AudioOnly != nil && *opts.AudioOnly != identity.AudioOnly
	if modeChanged && !opts.ConfirmRepurge {
		r.writePlain("Mode change requires re-downloading all %d items.\n", len(identity.VideoList))
		r.writePlain("Re-run with --redownload to confirm; settings were not changed.\n")
		return nil
	}

	r.logger.Info("updating repository settings", "repo", identity.RepoName, "mode_changed", modeChanged)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		r.printProgress(progressCh)
		close(progressDone)
	}()

	result, err := r.engine.UpdateSettings(ctx, identity.RepoName, opts, progressCh)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	r.writePlain("✓ Settings updated for '%s'\n", result.Identity.RepoName)
	r.writePlain("Mode: %s, quality: %s\n", result.Identity.Mode(), repos.QualityLabel(result.Identity.Quality))
	if result.Repurged {
		r.printSyncSummary(result.Sync)
	}
	return nil
}

// Export writes the repository item listing in a portable format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	token := strings.TrimSpace(cmd.StringArg("repo"))
	if token == "" {
		return fmt.Errorf("%w: repository id or name", shared.ErrMissingArgument)
	}

	identity, err := r.resolveRepo(token)
	if err != nil {
		return err
	}

	format := cmd.String("format")
	basePath := cmd.String("output")
	if basePath == "" {
		basePath = shared.CleanFilename(identity.RepoName)
	}

	written, err := formatter.WriteExport(identity, format, basePath)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlain("✓ Exported %d items to %s\n", len(identity.VideoList), written)
	return nil
}

// History shows recent sync runs recorded in the history database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repoName := cmd.String("repo")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	db, err := shared.NewDatabase(r.config.Storage.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	records, err := repositories.NewHistoryRepository(db).ListRecent(ctx, repoName, limit)
	if err != nil {
		return fmt.Errorf("failed to read sync history: %w", err)
	}

	if useJSON {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No sync history recorded\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Sync History (%d)", len(records)))
	for _, record := range records {
		r.writePlain("%s  %s\n", record.StartedAt.Format("2006-01-02 15:04"), record.RepoName)
		r.writePlain("    downloaded %d, deleted %d, failed %d, tracked %d (%s)\n",
			record.Downloaded, record.Deleted, record.Failed, record.LedgerSize, record.Duration().Round(time.Second))
	}

	return nil
}
