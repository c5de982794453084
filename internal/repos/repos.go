// package repos defines the repository data model and its persistence:
// the [Identity] record binding a local directory to a remote collection,
// the item [LedgerEntry] ledger, the [Store] that reads and writes identity
// documents atomically, and the [Registry] that enumerates repositories
// under a base directory.
package repos

import (
	"fmt"
	"time"

	"github.com/desertthunder/favsync/internal/shared"
)

// ConfigFileName is the identity document stored inside every repository directory.
const ConfigFileName = ".favrepo.json"

// Identity is the durable record of a repository: its settings and the ledger
// of locally materialized items. The ledger is the source of truth for local
// membership; the file tree is never re-scanned to derive it.
type Identity struct {
	RepoID             int                     `json:"repo_id"`
	RemoteCollectionID string                  `json:"remote_collection_id"`
	RepoName           string                  `json:"repo_name"`
	FavTitle           string                  `json:"fav_title"`
	FavUpper           string                  `json:"fav_upper"`
	Quality            int                     `json:"quality"`
	AudioOnly          bool                    `json:"audio_only"`
	CreatedTime        time.Time               `json:"created_time"`
	LastSync           *time.Time              `json:"last_sync"`
	VideoList          map[string]*LedgerEntry `json:"video_list"`
}

// LedgerEntry tracks one materialized item. An entry exists iff the artifact
// was successfully downloaded and has not since been removed by reconciliation.
type LedgerEntry struct {
	Title        string    `json:"title"`
	Upper        string    `json:"upper"`
	Duration     int       `json:"duration"`
	Pubdate      int64     `json:"pubdate"`
	DownloadTime time.Time `json:"download_time"`
}

// NewIdentity creates an identity with an initialized, empty ledger.
func NewIdentity(repoID int, collectionID, name, favTitle, favUpper string, quality int, audioOnly bool) *Identity {
	return &Identity{
		RepoID:             repoID,
		RemoteCollectionID: collectionID,
		RepoName:           name,
		FavTitle:           favTitle,
		FavUpper:           favUpper,
		Quality:            quality,
		AudioOnly:          audioOnly,
		CreatedTime:        time.Now(),
		VideoList:          make(map[string]*LedgerEntry),
	}
}

// Mode returns a human-readable download mode label.
func (i *Identity) Mode() string {
	if i.AudioOnly {
		return "audio"
	}
	return "video"
}

// qualityLabels maps quality tier face values to display labels.
var qualityLabels = map[int]string{
	120: "4K",
	116: "1080P60",
	112: "1080P+",
	80:  "1080P",
	74:  "720P60",
	64:  "720P",
	32:  "480P",
	16:  "360P",
}

// QualityTiers lists the accepted quality face values, highest first.
var QualityTiers = []int{120, 116, 112, 80, 74, 64, 32, 16}

// QualityLabel returns the display label for a quality tier.
func QualityLabel(q int) string {
	if label, ok := qualityLabels[q]; ok {
		return label
	}
	return fmt.Sprintf("unknown (%d)", q)
}

// ValidQuality reports whether q is an accepted quality tier.
func ValidQuality(q int) bool {
	_, ok := qualityLabels[q]
	return ok
}

// ArtifactName derives the artifact filename for an item from its title and
// the download mode. The item id is the fallback base when sanitization
// leaves nothing usable.
func ArtifactName(title, itemID string, audioOnly bool) string {
	base := shared.CleanFilename(title)
	if base == "" {
		base = itemID
	}
	if audioOnly {
		return base + ".m4a"
	}
	return base + ".mp4"
}
