// package formatter provides functions to export repository ledgers to
// various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/shared"
)

// sortedEntries returns ledger entries ordered by publish date, newest first,
// so exports are stable regardless of map iteration order.
func sortedEntries(identity *repos.Identity) []ledgerRow {
	rows := make([]ledgerRow, 0, len(identity.VideoList))
	for itemID, entry := range identity.VideoList {
		rows = append(rows, ledgerRow{ItemID: itemID, Entry: entry})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Entry.Pubdate != rows[j].Entry.Pubdate {
			return rows[i].Entry.Pubdate > rows[j].Entry.Pubdate
		}
		return rows[i].ItemID < rows[j].ItemID
	})
	return rows
}

type ledgerRow struct {
	ItemID string
	Entry  *repos.LedgerEntry
}

// ExportToCSV converts a repository ledger to CSV format with columns:
// ItemID, Title, Upper, Duration, Pubdate, DownloadTime
func ExportToCSV(identity *repos.Identity) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ItemID", "Title", "Upper", "Duration", "Pubdate", "DownloadTime"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range sortedEntries(identity) {
		record := []string{
			row.ItemID,
			row.Entry.Title,
			row.Entry.Upper,
			strconv.Itoa(row.Entry.Duration),
			time.Unix(row.Entry.Pubdate, 0).UTC().Format(time.RFC3339),
			row.Entry.DownloadTime.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a repository ledger to Markdown format
func ExportToMarkdown(identity *repos.Identity) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", identity.RepoName))
	buf.WriteString(fmt.Sprintf("**Collection**: %s\n", identity.FavTitle))
	buf.WriteString(fmt.Sprintf("**Curator**: %s\n", identity.FavUpper))
	buf.WriteString(fmt.Sprintf("**Mode**: %s\n", identity.Mode()))
	buf.WriteString(fmt.Sprintf("**Quality**: %s\n", repos.QualityLabel(identity.Quality)))
	buf.WriteString(fmt.Sprintf("**Items**: %d\n", len(identity.VideoList)))
	if identity.LastSync != nil {
		buf.WriteString(fmt.Sprintf("**Last sync**: %s\n", identity.LastSync.Format(time.RFC3339)))
	}
	buf.WriteString("\n## Items\n\n")

	for i, row := range sortedEntries(identity) {
		duration := shared.FormatDuration(row.Entry.Duration)
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s] (%s)\n", i+1, row.Entry.Upper, row.Entry.Title, duration, row.ItemID))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a repository ledger to plain text format
func ExportToText(identity *repos.Identity) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Repository: %s\n", identity.RepoName))
	buf.WriteString(fmt.Sprintf("Collection: %s\n", identity.FavTitle))
	buf.WriteString(fmt.Sprintf("Items: %d\n\n", len(identity.VideoList)))

	for i, row := range sortedEntries(identity) {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, row.Entry.Upper, row.Entry.Title))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of the identity without the
// ledger entries
func ToMetadataJSON(identity *repos.Identity) ([]byte, error) {
	metadata := map[string]any{
		"repo_id":              identity.RepoID,
		"remote_collection_id": identity.RemoteCollectionID,
		"repo_name":            identity.RepoName,
		"fav_title":            identity.FavTitle,
		"fav_upper":            identity.FavUpper,
		"quality":              identity.Quality,
		"audio_only":           identity.AudioOnly,
		"item_count":           len(identity.VideoList),
	}
	return shared.MarshalJSON(metadata, true)
}

// WriteExport writes the ledger in the requested format next to baseFilepath.
//
// Defaults to the repository name as the base filename. Supported formats:
// csv, markdown (md), txt.
func WriteExport(identity *repos.Identity, format, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = identity.RepoName
	}

	var data []byte
	var path string
	var err error

	switch format {
	case "csv":
		data, err = ExportToCSV(identity)
		path = baseFilepath + "_items.csv"
	case "markdown", "md":
		data, err = ExportToMarkdown(identity)
		path = baseFilepath + ".md"
	case "txt", "text":
		data, err = ExportToText(identity)
		path = baseFilepath + "_items.txt"
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
