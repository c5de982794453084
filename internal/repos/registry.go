package repos

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

// Registry enumerates repositories under the store's base directory and
// resolves operator-supplied identifiers. The index is built once per
// registry construction (one per CLI command); lookups are read-only.
type Registry struct {
	store   *Store
	entries []*Identity
}

// NewRegistry scans the base directory and builds the registry index.
// Subdirectories without a parseable identity document are skipped.
// A missing base directory yields an empty registry, not an error.
func NewRegistry(store *Store) (*Registry, error) {
	r := &Registry{store: store}

	dirEntries, err := os.ReadDir(store.BaseDir())
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}

	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}
		identity, err := store.Load(entry.Name())
		if err != nil || identity == nil {
			continue
		}
		r.entries = append(r.entries, identity)
	}

	sort.Slice(r.entries, func(i, j int) bool {
		return r.entries[i].RepoID < r.entries[j].RepoID
	})

	return r, nil
}

// List returns all known repositories sorted by id.
func (r *Registry) List() []*Identity {
	return r.entries
}

// NextAvailableID returns the smallest positive integer not used as a repo id.
// Ids are never reassigned after creation; only the smallest gap matters.
func (r *Registry) NextAvailableID() int {
	used := make(map[int]bool, len(r.entries))
	for _, identity := range r.entries {
		used[identity.RepoID] = true
	}

	id := 1
	for used[id] {
		id++
	}
	return id
}

// FindByID returns the repository with the given id, or nil when absent.
func (r *Registry) FindByID(id int) *Identity {
	for _, identity := range r.entries {
		if identity.RepoID == id {
			return identity
		}
	}
	return nil
}

// FindByName returns the repository with the given name, or nil when absent.
func (r *Registry) FindByName(name string) *Identity {
	for _, identity := range r.entries {
		if identity.RepoName == name {
			return identity
		}
	}
	return nil
}

// Resolve maps an operator-supplied token to a repository: an integer token
// resolves by id, anything else by name. Not-found is reported as nil, not
// an error, so callers can surface an actionable message.
func (r *Registry) Resolve(token string) *Identity {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	if id, err := strconv.Atoi(token); err == nil {
		return r.FindByID(id)
	}
	return r.FindByName(token)
}
