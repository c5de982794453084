package repos

import (
	"os"
	"path/filepath"
	"testing"
)

func seedRepo(t *testing.T, store *Store, id int, name string) {
	t.Helper()
	identity := NewIdentity(id, "col-"+name, name, "Fav "+name, "up", 80, false)
	if err := store.Create(identity); err != nil {
		t.Fatalf("failed to seed %s: %v", name, err)
	}
}

func TestRegistry(t *testing.T) {
	t.Run("empty base dir", func(t *testing.T) {
		store := newTestStore(t)
		registry, err := NewRegistry(store)
		if err != nil {
			t.Fatal(err)
		}
		if len(registry.List()) != 0 {
			t.Errorf("expected empty registry, got %d entries", len(registry.List()))
		}
	})

	t.Run("missing base dir", func(t *testing.T) {
		logger := newTestStore(t).logger
		store := NewStore(filepath.Join(t.TempDir(), "never-created"), logger)
		registry, err := NewRegistry(store)
		if err != nil {
			t.Fatalf("missing base dir should not be fatal: %v", err)
		}
		if len(registry.List()) != 0 {
			t.Error("expected empty registry")
		}
	})

	t.Run("lists sorted by id", func(t *testing.T) {
		store := newTestStore(t)
		seedRepo(t, store, 3, "third")
		seedRepo(t, store, 1, "first")
		seedRepo(t, store, 2, "second")

		registry, err := NewRegistry(store)
		if err != nil {
			t.Fatal(err)
		}

		list := registry.List()
		if len(list) != 3 {
			t.Fatalf("expected 3 repos, got %d", len(list))
		}
		for i, want := range []int{1, 2, 3} {
			if list[i].RepoID != want {
				t.Errorf("position %d: got id %d, want %d", i, list[i].RepoID, want)
			}
		}
	})

	t.Run("skips unparseable directories", func(t *testing.T) {
		store := newTestStore(t)
		seedRepo(t, store, 1, "good")

		if err := os.MkdirAll(store.RepoPath("junk"), 0755); err != nil {
			t.Fatal(err)
		}
		badPath := filepath.Join(store.RepoPath("junk"), ConfigFileName)
		if err := os.WriteFile(badPath, []byte("not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll(store.RepoPath("no-config"), 0755); err != nil {
			t.Fatal(err)
		}

		registry, err := NewRegistry(store)
		if err != nil {
			t.Fatal(err)
		}
		if len(registry.List()) != 1 {
			t.Errorf("expected 1 repo, got %d", len(registry.List()))
		}
	})
}

func TestNextAvailableID(t *testing.T) {
	tc := []struct {
		name string
		ids  []int
		want int
	}{
		{name: "fills gap", ids: []int{1, 2, 4}, want: 3},
		{name: "empty registry", ids: nil, want: 1},
		{name: "no gaps", ids: []int{1, 2, 3}, want: 4},
		{name: "gap at front", ids: []int{2, 3}, want: 1},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			registry := &Registry{}
			for _, id := range tt.ids {
				registry.entries = append(registry.entries, NewIdentity(id, "c", "r", "f", "u", 80, false))
			}
			if got := registry.NextAvailableID(); got != tt.want {
				t.Errorf("NextAvailableID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	store := newTestStore(t)
	seedRepo(t, store, 1, "music")
	seedRepo(t, store, 7, "clips")

	registry, err := NewRegistry(store)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("by numeric id", func(t *testing.T) {
		identity := registry.Resolve("7")
		if identity == nil || identity.RepoName != "clips" {
			t.Errorf("Resolve(7) = %+v", identity)
		}
	})

	t.Run("by name", func(t *testing.T) {
		identity := registry.Resolve("music")
		if identity == nil || identity.RepoID != 1 {
			t.Errorf("Resolve(music) = %+v", identity)
		}
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		if registry.Resolve("  music  ") == nil {
			t.Error("expected match after trimming")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		if registry.Resolve("99") != nil {
			t.Error("expected nil for unknown id")
		}
		if registry.Resolve("nothing") != nil {
			t.Error("expected nil for unknown name")
		}
		if registry.Resolve("") != nil {
			t.Error("expected nil for empty token")
		}
	})
}
