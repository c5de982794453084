package formatter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/favsync/internal/repos"
)

func testIdentity() *repos.Identity {
	identity := repos.NewIdentity(1, "12345", "music", "Music Favs", "someone", 80, true)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	identity.LastSync = &now
	identity.VideoList["BV1a"] = &repos.LedgerEntry{
		Title:        "First Song",
		Upper:        "artist one",
		Duration:     185,
		Pubdate:      1700000100,
		DownloadTime: now,
	}
	identity.VideoList["BV1b"] = &repos.LedgerEntry{
		Title:        "Second Song",
		Upper:        "artist two",
		Duration:     62,
		Pubdate:      1700000200,
		DownloadTime: now,
	}
	return identity
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(testIdentity())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV output: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "ItemID" || records[0][1] != "Title" {
		t.Errorf("unexpected header: %v", records[0])
	}

	// newest pubdate first
	if records[1][0] != "BV1b" || records[2][0] != "BV1a" {
		t.Errorf("rows not ordered newest first: %v", records)
	}
	if records[2][3] != "185" {
		t.Errorf("duration column wrong: %v", records[2])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(testIdentity())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	output := string(data)

	for _, want := range []string{
		"# music",
		"**Collection**: Music Favs",
		"**Mode**: audio",
		"**Quality**: 1080P",
		"**Items**: 2",
		"First Song",
		"[3:05]",
		"(BV1a)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(testIdentity())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	output := string(data)

	if !strings.Contains(output, "Repository: music") {
		t.Error("text output missing repository header")
	}
	if !strings.Contains(output, "artist one - First Song") {
		t.Error("text output missing item line")
	}
}

func TestToMetadataJSON(t *testing.T) {
	data, err := ToMetadataJSON(testIdentity())
	if err != nil {
		t.Fatalf("metadata failed: %v", err)
	}
	output := string(data)

	if !strings.Contains(output, `"repo_name": "music"`) {
		t.Errorf("metadata missing repo name: %s", output)
	}
	if strings.Contains(output, "First Song") {
		t.Error("metadata must not include ledger entries")
	}
}

func TestWriteExport(t *testing.T) {
	tc := []struct {
		format string
		suffix string
	}{
		{format: "csv", suffix: "_items.csv"},
		{format: "markdown", suffix: ".md"},
		{format: "txt", suffix: "_items.txt"},
	}

	for _, tt := range tc {
		t.Run(tt.format, func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "music")
			path, err := WriteExport(testIdentity(), tt.format, base)
			if err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if !strings.HasSuffix(path, tt.suffix) {
				t.Errorf("unexpected path %q", path)
			}
			if _, err := os.Stat(path); err != nil {
				t.Error("export file should exist")
			}
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := WriteExport(testIdentity(), "xml", ""); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}
