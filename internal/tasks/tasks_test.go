package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/services"
	"github.com/desertthunder/favsync/internal/shared"
	tu "github.com/desertthunder/favsync/internal/testing"
)

func remoteItem(id, title string) services.RemoteItem {
	return services.RemoteItem{
		ItemID:   id,
		Title:    title,
		Upper:    "uploader",
		Duration: 60,
		Pubdate:  1700000000,
	}
}

// testEngine wires an engine over a temp store with a stub materializer.
func testEngine(t *testing.T, svc *tu.MockCollectionService, mat *tu.MockMaterializer) (*SyncEngine, *repos.Store) {
	t.Helper()
	store := repos.NewStore(t.TempDir(), shared.NewLogger(nil))
	engine := NewSyncEngine(store, svc, mat, SyncEngineOpts{Logger: shared.NewLogger(nil)})
	return engine, store
}

func seedIdentity(t *testing.T, store *repos.Store, audioOnly bool) *repos.Identity {
	t.Helper()
	identity := repos.NewIdentity(1, "12345", "music", "Music Favs", "someone", 80, audioOnly)
	if err := store.Create(identity); err != nil {
		t.Fatal(err)
	}
	return identity
}

func ledgerKeys(identity *repos.Identity) []string {
	keys := make([]string, 0, len(identity.VideoList))
	for k := range identity.VideoList {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestDiffLedger(t *testing.T) {
	t.Run("partitions membership", func(t *testing.T) {
		ledger := map[string]*repos.LedgerEntry{
			"a": {Title: "A"},
			"c": {Title: "C"},
		}
		snapshot := &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("a", "A"),
			remoteItem("b", "B"),
		}}

		toDelete, toAdd := diffLedger(ledger, snapshot)

		if len(toDelete) != 1 || toDelete[0] != "c" {
			t.Errorf("toDelete = %v, want [c]", toDelete)
		}
		if len(toAdd) != 1 || toAdd[0].ItemID != "b" {
			t.Errorf("toAdd = %v, want [b]", toAdd)
		}
	})

	t.Run("preserves snapshot order for additions", func(t *testing.T) {
		snapshot := &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("z", "Z"),
			remoteItem("a", "A"),
			remoteItem("m", "M"),
		}}

		_, toAdd := diffLedger(map[string]*repos.LedgerEntry{}, snapshot)

		want := []string{"z", "a", "m"}
		for i, id := range want {
			if toAdd[i].ItemID != id {
				t.Errorf("position %d: got %s, want %s", i, toAdd[i].ItemID, id)
			}
		}
	})

	t.Run("identical sets are a no-op", func(t *testing.T) {
		ledger := map[string]*repos.LedgerEntry{"a": {Title: "A"}}
		snapshot := &services.Snapshot{Items: []services.RemoteItem{remoteItem("a", "A")}}

		toDelete, toAdd := diffLedger(ledger, snapshot)
		if len(toDelete) != 0 || len(toAdd) != 0 {
			t.Errorf("expected empty diff, got delete=%v add=%v", toDelete, toAdd)
		}
	})
}

func TestPull(t *testing.T) {
	t.Run("uninitialized repository", func(t *testing.T) {
		engine, _ := testEngine(t, &tu.MockCollectionService{}, &tu.MockMaterializer{})

		_, err := engine.Pull(context.Background(), "missing", nil)
		if !errors.Is(err, shared.ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized, got %v", err)
		}
	})

	t.Run("empty snapshot aborts without mutation", func(t *testing.T) {
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Partial: true}}
		engine, store := testEngine(t, svc, &tu.MockMaterializer{})
		identity := seedIdentity(t, store, true)
		identity.VideoList["a"] = &repos.LedgerEntry{Title: "Keep Me"}
		if err := store.Save("music", identity); err != nil {
			t.Fatal(err)
		}

		_, err := engine.Pull(context.Background(), "music", nil)
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
		}

		reloaded, _ := store.Load("music")
		if len(reloaded.VideoList) != 1 {
			t.Error("aborted sync must leave the persisted ledger unchanged")
		}
	})

	t.Run("partial snapshot skips deletions", func(t *testing.T) {
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{
			Items:   []services.RemoteItem{remoteItem("a", "Alpha")},
			Partial: true,
		}}
		engine, store := testEngine(t, svc, &tu.MockMaterializer{})
		identity := seedIdentity(t, store, true)
		identity.VideoList["gone"] = &repos.LedgerEntry{Title: "Not Listed"}
		if err := store.Save("music", identity); err != nil {
			t.Fatal(err)
		}

		result, err := engine.Pull(context.Background(), "music", nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if !result.PartialSnapshot {
			t.Error("expected partial snapshot to be reported")
		}
		if result.Deleted != 0 {
			t.Errorf("expected no deletions from a partial listing, got %d", result.Deleted)
		}
		reloaded, _ := store.Load("music")
		if _, ok := reloaded.VideoList["gone"]; !ok {
			t.Error("expected unlisted item to survive a partial sync")
		}
	})

	t.Run("reconciles additions and removals", func(t *testing.T) {
		// ledger {a, c}, remote [a, b]: c leaves, b joins, a untouched
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("a", "Alpha"),
			remoteItem("b", "Beta"),
		}}}
		mat := &tu.MockMaterializer{}
		engine, store := testEngine(t, svc, mat)
		identity := seedIdentity(t, store, true)

		repoDir := store.RepoPath("music")
		identity.VideoList["a"] = &repos.LedgerEntry{Title: "Alpha"}
		identity.VideoList["c"] = &repos.LedgerEntry{Title: "Gamma"}
		if err := store.Save("music", identity); err != nil {
			t.Fatal(err)
		}
		staleFile := filepath.Join(repoDir, repos.ArtifactName("Gamma", "c", true))
		if err := os.WriteFile(staleFile, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}

		result, err := engine.Pull(context.Background(), "music", nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if result.Deleted != 1 || result.Downloaded != 1 || result.Failed != 0 {
			t.Errorf("unexpected counts: %+v", result)
		}
		if result.LedgerSize != 2 {
			t.Errorf("expected ledger size 2, got %d", result.LedgerSize)
		}

		reloaded, _ := store.Load("music")
		got := ledgerKeys(reloaded)
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("final ledger keys = %v, want [a b]", got)
		}

		if _, err := os.Stat(staleFile); !os.IsNotExist(err) {
			t.Error("departed item's artifact should be removed")
		}
		if _, err := os.Stat(filepath.Join(repoDir, repos.ArtifactName("Beta", "b", true))); err != nil {
			t.Error("new item's artifact should exist")
		}
		if reloaded.LastSync == nil {
			t.Error("last sync timestamp not set")
		}
	})

	t.Run("delete tolerates missing files", func(t *testing.T) {
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("a", "Alpha"),
		}}}
		engine, store := testEngine(t, svc, &tu.MockMaterializer{})
		identity := seedIdentity(t, store, true)
		identity.VideoList["a"] = &repos.LedgerEntry{Title: "Alpha"}
		identity.VideoList["gone"] = &repos.LedgerEntry{Title: "Never Downloaded"}
		if err := store.Save("music", identity); err != nil {
			t.Fatal(err)
		}

		result, err := engine.Pull(context.Background(), "music", nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Deleted != 1 || result.RemovalFailures != 0 {
			t.Errorf("missing file must not count as a removal failure: %+v", result)
		}

		reloaded, _ := store.Load("music")
		if _, tracked := reloaded.VideoList["gone"]; tracked {
			t.Error("ledger entry must be dropped even when the file is missing")
		}
	})

	t.Run("repeat sync is a no-op", func(t *testing.T) {
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("a", "Alpha"),
			remoteItem("b", "Beta"),
		}}}
		mat := &tu.MockMaterializer{}
		engine, store := testEngine(t, svc, mat)
		seedIdentity(t, store, false)

		if _, err := engine.Pull(context.Background(), "music", nil); err != nil {
			t.Fatal(err)
		}
		first, _ := store.Load("music")

		result, err := engine.Pull(context.Background(), "music", nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Deleted != 0 || result.Downloaded != 0 {
			t.Errorf("unchanged remote should be a no-op, got %+v", result)
		}
		if len(mat.Calls) != 2 {
			t.Errorf("expected no further materializations, total calls %d", len(mat.Calls))
		}

		second, _ := store.Load("music")
		if len(first.VideoList) != len(second.VideoList) {
			t.Error("ledger changed across a no-op sync")
		}
	})

	t.Run("materialize failure skips the item", func(t *testing.T) {
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("a", "Alpha"),
			remoteItem("bad", "Broken"),
			remoteItem("b", "Beta"),
		}}}
		mat := &tu.MockMaterializer{FailIDs: map[string]bool{"bad": true}}
		engine, store := testEngine(t, svc, mat)
		seedIdentity(t, store, true)

		result, err := engine.Pull(context.Background(), "music", nil)
		if err != nil {
			t.Fatalf("item failure must not fail the sync: %v", err)
		}

		if result.Downloaded != 2 || result.Failed != 1 {
			t.Errorf("unexpected counts: %+v", result)
		}
		if len(result.Failures) != 1 || result.Failures[0].ItemID != "bad" {
			t.Errorf("unexpected failure detail: %+v", result.Failures)
		}

		reloaded, _ := store.Load("music")
		if _, tracked := reloaded.VideoList["bad"]; tracked {
			t.Error("failed item must not enter the ledger")
		}
	})

	t.Run("filename collision counts as failure", func(t *testing.T) {
		// both items sanitize to the same artifact name
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("a", "Same/Title"),
			remoteItem("b", "Same_Title"),
		}}}
		mat := &tu.MockMaterializer{}
		engine, store := testEngine(t, svc, mat)
		seedIdentity(t, store, true)

		result, err := engine.Pull(context.Background(), "music", nil)
		if err != nil {
			t.Fatal(err)
		}
		if result.Downloaded != 1 || result.Failed != 1 {
			t.Errorf("expected one success and one collision failure, got %+v", result)
		}

		reloaded, _ := store.Load("music")
		if _, tracked := reloaded.VideoList["a"]; !tracked {
			t.Error("first claimant should be tracked")
		}
		if _, tracked := reloaded.VideoList["b"]; tracked {
			t.Error("colliding item must not overwrite the first claimant")
		}
	})

	t.Run("downloads follow snapshot order", func(t *testing.T) {
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("z", "Zulu"),
			remoteItem("a", "Alpha"),
			remoteItem("m", "Mike"),
		}}}
		mat := &tu.MockMaterializer{}
		engine, store := testEngine(t, svc, mat)
		seedIdentity(t, store, true)

		if _, err := engine.Pull(context.Background(), "music", nil); err != nil {
			t.Fatal(err)
		}

		want := []string{"z", "a", "m"}
		for i, id := range want {
			if mat.Calls[i] != id {
				t.Errorf("position %d: got %s, want %s", i, mat.Calls[i], id)
			}
		}
	})

	t.Run("progress updates are non-blocking", func(t *testing.T) {
		svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Items: []services.RemoteItem{
			remoteItem("a", "Alpha"),
		}}}
		engine, store := testEngine(t, svc, &tu.MockMaterializer{})
		seedIdentity(t, store, true)

		// unbuffered channel with no reader must not deadlock the sync
		progress := make(chan ProgressUpdate)
		if _, err := engine.Pull(context.Background(), "music", progress); err != nil {
			t.Fatal(err)
		}
	})
}

type recordedSync struct {
	results []*SyncResult
	err     error
}

func (r *recordedSync) RecordSync(ctx context.Context, result *SyncResult) error {
	if r.err != nil {
		return r.err
	}
	r.results = append(r.results, result)
	return nil
}

func TestSyncHistoryRecording(t *testing.T) {
	svc := &tu.MockCollectionService{Snapshot: &services.Snapshot{Items: []services.RemoteItem{
		remoteItem("a", "Alpha"),
	}}}
	store := repos.NewStore(t.TempDir(), shared.NewLogger(nil))
	recorder := &recordedSync{}
	engine := NewSyncEngine(store, svc, &tu.MockMaterializer{}, SyncEngineOpts{
		History: recorder,
		Logger:  shared.NewLogger(nil),
	})
	seedIdentity(t, store, true)

	if _, err := engine.Pull(context.Background(), "music", nil); err != nil {
		t.Fatal(err)
	}
	if len(recorder.results) != 1 {
		t.Fatalf("expected one history record, got %d", len(recorder.results))
	}
	if recorder.results[0].Downloaded != 1 {
		t.Errorf("recorded result incomplete: %+v", recorder.results[0])
	}

	t.Run("recorder failure does not fail the sync", func(t *testing.T) {
		recorder.err = errors.New("db locked")
		if _, err := engine.Pull(context.Background(), "music", nil); err != nil {
			t.Errorf("sync should survive a recorder failure: %v", err)
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("creates repository and runs first sync", func(t *testing.T) {
		svc := &tu.MockCollectionService{
			Info: &services.CollectionInfo{ID: "12345", Title: "My Favs", MediaCount: 1, Upper: "someone"},
			Snapshot: &services.Snapshot{Items: []services.RemoteItem{
				remoteItem("a", "Alpha"),
			}},
		}
		engine, store := testEngine(t, svc, &tu.MockMaterializer{})

		identity, result, err := engine.Init(context.Background(), "12345", "", 80, true, nil)
		if err != nil {
			t.Fatalf("init failed: %v", err)
		}
		if identity.RepoID != 1 || identity.RepoName != "My Favs" {
			t.Errorf("unexpected identity: %+v", identity)
		}
		if result == nil || result.Downloaded != 1 {
			t.Errorf("first sync should have run: %+v", result)
		}

		reloaded, _ := store.Load("My Favs")
		if reloaded == nil || len(reloaded.VideoList) != 1 {
			t.Error("persisted repository missing after init")
		}
	})

	t.Run("unreachable collection creates nothing", func(t *testing.T) {
		svc := &tu.MockCollectionService{}
		engine, store := testEngine(t, svc, &tu.MockMaterializer{})

		_, _, err := engine.Init(context.Background(), "999", "", 80, true, nil)
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
		}

		entries, _ := os.ReadDir(store.BaseDir())
		if len(entries) != 0 {
			t.Error("no repository directory should be created")
		}
	})

	t.Run("rejects invalid quality", func(t *testing.T) {
		engine, _ := testEngine(t, &tu.MockCollectionService{}, &tu.MockMaterializer{})
		_, _, err := engine.Init(context.Background(), "1", "r", 99, true, nil)
		if !errors.Is(err, shared.ErrInvalidQuality) {
			t.Errorf("expected ErrInvalidQuality, got %v", err)
		}
	})

	t.Run("assigns smallest unused id", func(t *testing.T) {
		svc := &tu.MockCollectionService{
			Info: &services.CollectionInfo{Title: "Third", Upper: "u"},
			Snapshot: &services.Snapshot{Items: []services.RemoteItem{
				remoteItem("a", "Alpha"),
			}},
		}
		engine, store := testEngine(t, svc, &tu.MockMaterializer{})
		for _, seed := range []struct {
			id   int
			name string
		}{{1, "one"}, {2, "two"}, {4, "four"}} {
			if err := store.Create(repos.NewIdentity(seed.id, "c", seed.name, "f", "u", 80, false)); err != nil {
				t.Fatal(err)
			}
		}

		identity, _, err := engine.Init(context.Background(), "12345", "", 80, true, nil)
		if err != nil {
			t.Fatal(err)
		}
		if identity.RepoID != 3 {
			t.Errorf("expected id 3, got %d", identity.RepoID)
		}
	})
}
