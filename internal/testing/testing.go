// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/services"
)

// MockCollectionService is a configurable test double for
// [services.CollectionService]. The zero value answers every call with empty
// results.
type MockCollectionService struct {
	Info          *services.CollectionInfo
	InfoErr       error
	Snapshot      *services.Snapshot
	SnapshotErr   error
	Locations     *services.StreamLocations
	LocationsErr  error
	DownloadErr   error
	ItemsCalls    int
	DownloadCalls int
}

func (m *MockCollectionService) CollectionInfo(ctx context.Context, collectionID string) (*services.CollectionInfo, error) {
	return m.Info, m.InfoErr
}

func (m *MockCollectionService) CollectionItems(ctx context.Context, collectionID string) (*services.Snapshot, error) {
	m.ItemsCalls++
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	if m.Snapshot == nil {
		return &services.Snapshot{}, nil
	}
	return m.Snapshot, nil
}

func (m *MockCollectionService) StreamLocations(ctx context.Context, itemID string, quality int) (*services.StreamLocations, error) {
	if m.LocationsErr != nil {
		return nil, m.LocationsErr
	}
	if m.Locations == nil {
		return &services.StreamLocations{VideoURL: "https://cdn/" + itemID, Quality: quality}, nil
	}
	return m.Locations, nil
}

func (m *MockCollectionService) DownloadFile(ctx context.Context, url, dest string) error {
	m.DownloadCalls++
	if m.DownloadErr != nil {
		return m.DownloadErr
	}
	return os.WriteFile(dest, []byte(url), 0644)
}

func (m *MockCollectionService) Name() string { return "mock" }

// MockMaterializer is a test double that writes a stub artifact file instead
// of downloading anything. FailIDs lists item ids that should fail.
type MockMaterializer struct {
	FailIDs map[string]bool
	Calls   []string // item ids in materialization order
}

func (m *MockMaterializer) Materialize(ctx context.Context, item services.RemoteItem, destDir string, quality int, audioOnly bool) (string, error) {
	m.Calls = append(m.Calls, item.ItemID)
	if m.FailIDs[item.ItemID] {
		return "", fmt.Errorf("materialize failed for %s", item.ItemID)
	}

	name := repos.ArtifactName(item.Title, item.ItemID, audioOnly)
	path := filepath.Join(destDir, name)
	if err := os.WriteFile(path, []byte(item.ItemID), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
