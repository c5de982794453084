// package tasks implements repository synchronization against remote
// favorites collections.
//
// The core abstraction is SyncEngine, which orchestrates the pull workflow:
// load the repository ledger, fetch the remote membership, diff the two,
// delete what left the collection, download what joined it, and persist the
// updated ledger in a single atomic write at the end. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI
// layers.
package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/services"
	"github.com/desertthunder/favsync/internal/shared"
	"golang.org/x/time/rate"
)

// ItemFailure records one item that could not be materialized during a sync.
type ItemFailure struct {
	ItemID string
	Title  string
	Err    error
}

// SyncResult contains all data from a completed pull operation.
type SyncResult struct {
	RepoID          int
	RepoName        string
	StartedAt       time.Time
	FinishedAt      time.Time
	Deleted         int           // artifacts removed because the item left the collection
	Downloaded      int           // artifacts newly materialized
	Failed          int           // items that could not be materialized
	RemovalFailures int           // files that could not be removed (ledger entry still dropped)
	LedgerSize      int           // tracked items after the sync
	PartialSnapshot bool          // remote listing aborted mid-pagination
	Failures        []ItemFailure // per-item failure detail
}

// HistoryRecorder persists sync outcomes. Recording is best-effort; a
// recorder failure never fails the sync itself.
type HistoryRecorder interface {
	RecordSync(ctx context.Context, result *SyncResult) error
}

// SyncEngine orchestrates repository synchronization.
// Contains dependencies on the collection service, state store and materializer.
type SyncEngine struct {
	store        *repos.Store
	service      services.CollectionService
	materializer Materializer
	history      HistoryRecorder
	itemLimiter  *rate.Limiter
	logger       *log.Logger
}

// SyncEngineOpts contains optional configuration for a [SyncEngine].
type SyncEngineOpts struct {
	ItemDelay time.Duration   // pause between item downloads (0 disables pacing)
	History   HistoryRecorder // optional sync outcome recorder
	Logger    *log.Logger
}

// NewSyncEngine creates an engine over the provided store, service and
// materializer.
func NewSyncEngine(store *repos.Store, service services.CollectionService, materializer Materializer, opts SyncEngineOpts) *SyncEngine {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.ItemDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.ItemDelay), 1)
	}

	return &SyncEngine{
		store:        store,
		service:      service,
		materializer: materializer,
		history:      opts.History,
		itemLimiter:  limiter,
		logger:       logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// diffLedger computes the membership difference between the local ledger and
// a remote snapshot. toDelete holds ledger keys absent from the snapshot,
// sorted for deterministic processing; toAdd holds snapshot items absent from
// the ledger, in snapshot order. Items present in both are untouched.
func diffLedger(ledger map[string]*repos.LedgerEntry, snapshot *services.Snapshot) (toDelete []string, toAdd []services.RemoteItem) {
	remote := make(map[string]bool, len(snapshot.Items))
	for _, item := range snapshot.Items {
		remote[item.ItemID] = true
	}

	for itemID := range ledger {
		if !remote[itemID] {
			toDelete = append(toDelete, itemID)
		}
	}
	sort.Strings(toDelete)

	for _, item := range snapshot.Items {
		if _, tracked := ledger[item.ItemID]; !tracked {
			toAdd = append(toAdd, item)
		}
	}

	return toDelete, toAdd
}

// Pull synchronizes a repository against its remote collection.
//
// The ledger is mutated in memory through the delete and download phases and
// written back exactly once at the end, so an aborted sync leaves the
// persisted state untouched. An empty or failed remote listing aborts before
// any mutation; it is never treated as "the collection is now empty".
func (e *SyncEngine) Pull(ctx context.Context, repoName string, progress chan<- ProgressUpdate) (*SyncResult, error) {
	result := &SyncResult{RepoName: repoName, StartedAt: time.Now()}

	e.sendProgress(progress, loadRepoUpdate(repoName))
	identity, err := e.store.Load(repoName)
	if err != nil {
		return nil, fmt.Errorf("failed to load repository: %w", err)
	}
	if identity == nil {
		return nil, fmt.Errorf("%w: repository %q", shared.ErrNotInitialized, repoName)
	}
	result.RepoID = identity.RepoID

	e.sendProgress(progress, fetchRemoteUpdate(identity.RemoteCollectionID))
	snapshot, err := e.service.CollectionItems(ctx, identity.RemoteCollectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	if len(snapshot.Items) == 0 {
		// zero remote items means either a truly empty collection or a
		// listing failure; deleting everything on that signal is never safe
		return nil, fmt.Errorf("%w: collection %s returned no items", shared.ErrRemoteUnavailable, identity.RemoteCollectionID)
	}
	result.PartialSnapshot = snapshot.Partial

	toDelete, toAdd := diffLedger(identity.VideoList, snapshot)
	if snapshot.Partial && len(toDelete) > 0 {
		// an incomplete listing cannot prove an item left the collection
		e.logger.Warn("partial remote listing, skipping deletions", "repo", repoName, "skipped", len(toDelete))
		toDelete = nil
	}
	e.sendProgress(progress, diffUpdate(len(identity.VideoList), len(snapshot.Items), len(toDelete), len(toAdd)))

	repoDir := e.store.RepoPath(repoName)

	e.deletePhase(identity, repoDir, toDelete, result, progress)
	if err := e.downloadPhase(ctx, identity, repoDir, toAdd, result, progress); err != nil {
		return nil, err
	}

	e.sendProgress(progress, persistUpdate())
	now := time.Now()
	identity.LastSync = &now
	if err := e.store.Save(repoName, identity); err != nil {
		return nil, fmt.Errorf("failed to persist repository state: %w", err)
	}

	result.LedgerSize = len(identity.VideoList)
	result.FinishedAt = time.Now()
	e.sendProgress(progress, doneUpdate(result))

	e.recordHistory(ctx, result)
	return result, nil
}

// deletePhase removes artifacts for items that left the collection. The
// filename is reconstructed from the stored title and the repository's
// current mode; a missing file is fine, a failed removal is counted but the
// ledger entry is dropped regardless.
func (e *SyncEngine) deletePhase(identity *repos.Identity, repoDir string, toDelete []string, result *SyncResult, progress chan<- ProgressUpdate) {
	for i, itemID := range toDelete {
		entry := identity.VideoList[itemID]
		e.sendProgress(progress, deleteUpdate(i+1, len(toDelete), entry.Title))

		name := repos.ArtifactName(entry.Title, itemID, identity.AudioOnly)
		if err := os.Remove(filepath.Join(repoDir, name)); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove artifact", "item", itemID, "file", name, "err", err)
			result.RemovalFailures++
		}

		delete(identity.VideoList, itemID)
		result.Deleted++
	}
}

// downloadPhase materializes new items in snapshot order. Failures skip the
// item; a filename already claimed by a different ledger entry counts as a
// failure rather than silently overwriting that entry's artifact.
func (e *SyncEngine) downloadPhase(ctx context.Context, identity *repos.Identity, repoDir string, toAdd []services.RemoteItem, result *SyncResult, progress chan<- ProgressUpdate) error {
	claimed := make(map[string]string, len(identity.VideoList))
	for itemID, entry := range identity.VideoList {
		claimed[repos.ArtifactName(entry.Title, itemID, identity.AudioOnly)] = itemID
	}

	for i, item := range toAdd {
		if err := e.itemLimiter.Wait(ctx); err != nil {
			return err
		}

		e.sendProgress(progress, downloadUpdate(i+1, len(toAdd), item.Title))

		name := repos.ArtifactName(item.Title, item.ItemID, identity.AudioOnly)
		if owner, taken := claimed[name]; taken {
			err := fmt.Errorf("%w: filename %q already claimed by item %s", shared.ErrMaterialize, name, owner)
			e.logger.Warn("skipping item", "item", item.ItemID, "err", err)
			result.Failed++
			result.Failures = append(result.Failures, ItemFailure{ItemID: item.ItemID, Title: item.Title, Err: err})
			e.sendProgress(progress, downloadFailedUpdate(i+1, len(toAdd), item.Title, err))
			continue
		}

		if _, err := e.materializer.Materialize(ctx, item, repoDir, identity.Quality, identity.AudioOnly); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("failed to materialize item", "item", item.ItemID, "err", err)
			result.Failed++
			result.Failures = append(result.Failures, ItemFailure{ItemID: item.ItemID, Title: item.Title, Err: err})
			e.sendProgress(progress, downloadFailedUpdate(i+1, len(toAdd), item.Title, err))
			continue
		}

		identity.VideoList[item.ItemID] = &repos.LedgerEntry{
			Title:        item.Title,
			Upper:        item.Upper,
			Duration:     item.Duration,
			Pubdate:      item.Pubdate,
			DownloadTime: time.Now(),
		}
		claimed[name] = item.ItemID
		result.Downloaded++
	}

	return nil
}

// recordHistory persists the sync outcome when a recorder is configured.
func (e *SyncEngine) recordHistory(ctx context.Context, result *SyncResult) {
	if e.history == nil {
		return
	}
	if err := e.history.RecordSync(ctx, result); err != nil {
		e.logger.Warn("failed to record sync history", "repo", result.RepoName, "err", err)
	}
}

// Init creates a repository for a remote collection and runs the first sync.
// Nothing is created when the collection's metadata cannot be fetched. An
// empty repoName defaults to the sanitized collection title.
func (e *SyncEngine) Init(ctx context.Context, collectionID, repoName string, quality int, audioOnly bool, progress chan<- ProgressUpdate) (*repos.Identity, *SyncResult, error) {
	if !repos.ValidQuality(quality) {
		return nil, nil, fmt.Errorf("%w: %d", shared.ErrInvalidQuality, quality)
	}

	info, err := e.service.CollectionInfo(ctx, collectionID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	if info == nil {
		return nil, nil, fmt.Errorf("%w: collection %s not found or inaccessible", shared.ErrRemoteUnavailable, collectionID)
	}

	if repoName == "" {
		repoName = shared.CleanFilename(info.Title)
	}
	if repoName == "" {
		return nil, nil, fmt.Errorf("%w: cannot derive a repository name", shared.ErrInvalidArgument)
	}

	registry, err := repos.NewRegistry(e.store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan repositories: %w", err)
	}

	identity := repos.NewIdentity(registry.NextAvailableID(), collectionID, repoName, info.Title, info.Upper, quality, audioOnly)
	if err := e.store.Create(identity); err != nil {
		return nil, nil, err
	}

	e.logger.Info("repository initialized",
		"id", identity.RepoID, "name", repoName,
		"collection", info.Title, "upper", info.Upper,
		"items", info.MediaCount, "mode", identity.Mode(),
		"quality", repos.QualityLabel(quality))

	result, err := e.Pull(ctx, repoName, progress)
	if err != nil {
		return identity, nil, err
	}
	return identity, result, nil
}
