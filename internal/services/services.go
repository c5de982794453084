// package services defines interface CollectionService for interacting with
// remote favorites collections over HTTP.
package services

import (
	"context"
)

// CollectionService defines the operations the sync engine needs from a
// remote favorites provider: collection metadata, membership listing, stream
// resolution and raw file download.
type CollectionService interface {
	// CollectionInfo retrieves a collection's metadata.
	// Returns nil when the collection does not exist or is inaccessible.
	CollectionInfo(ctx context.Context, collectionID string) (*CollectionInfo, error)

	// CollectionItems retrieves the full current membership of a collection.
	// The snapshot's Partial flag is set when pagination aborted on a service
	// error; items accumulated before the error are still returned.
	CollectionItems(ctx context.Context, collectionID string) (*Snapshot, error)

	// StreamLocations resolves download URLs for an item at the requested
	// quality tier. The provider may serve a lower tier than requested.
	StreamLocations(ctx context.Context, itemID string, quality int) (*StreamLocations, error)

	// DownloadFile streams the resource at url to the destination path.
	DownloadFile(ctx context.Context, url, dest string) error

	// Name returns the name of the provider (e.g., "bilibili").
	Name() string
}

// CollectionInfo represents a remote collection's metadata.
type CollectionInfo struct {
	ID         string
	Title      string
	MediaCount int
	Upper      string
}

// RemoteItem represents one member of a remote collection.
type RemoteItem struct {
	ItemID   string
	Title    string
	Upper    string
	Duration int   // seconds
	Pubdate  int64 // unix timestamp
}

// Snapshot is the membership of a collection at one point in time. It is
// fetched fresh on every sync and never cached.
type Snapshot struct {
	Items   []RemoteItem
	Partial bool // pagination aborted on a service error
}

// Has reports whether the snapshot contains the given item.
func (s *Snapshot) Has(itemID string) bool {
	for _, item := range s.Items {
		if item.ItemID == itemID {
			return true
		}
	}
	return false
}

// StreamLocations holds resolved download URLs for one item. AudioURL is
// empty for legacy combined streams.
type StreamLocations struct {
	VideoURL string
	AudioURL string
	Quality  int // tier actually served
}
