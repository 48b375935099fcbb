// package formatter renders fetched media lists as CSV, Markdown, plain
// text, or JSON for the list command's output modes.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"anisync/internal/anilist"
	"anisync/internal/shared"
)

// Export bundles a fetched list with the account it belongs to.
type Export struct {
	User    string              `json:"user"`
	Entries []anilist.ListEntry `json:"entries"`
}

// Stats summarizes a list for the metadata file written next to CSV exports.
type Stats struct {
	User     string         `json:"user"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// ExportStats tallies entries per status.
func ExportStats(export *Export) Stats {
	stats := Stats{User: export.User, Total: len(export.Entries), ByStatus: map[string]int{}}
	for _, entry := range export.Entries {
		stats.ByStatus[string(entry.Status)]++
	}
	return stats
}

func scoreString(entry anilist.ListEntry) string {
	if entry.Score == nil {
		return ""
	}
	return strconv.Itoa(*entry.Score)
}

func dateString(date anilist.FuzzyDate) string {
	if date.IsZero() {
		return ""
	}
	return date.String()
}

// ExportToCSV converts an Export to CSV with columns: MediaID, Title, Status, Score, Progress, Started, Completed, Notes
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"MediaID", "Title", "Status", "Score", "Progress", "Started", "Completed", "Notes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range export.Entries {
		notes := ""
		if entry.Notes != nil {
			notes = *entry.Notes
		}
		record := []string{
			strconv.Itoa(entry.MediaID),
			entry.DisplayTitle(),
			string(entry.Status),
			scoreString(entry),
			strconv.Itoa(entry.Progress),
			dateString(entry.StartedAt),
			dateString(entry.CompletedAt),
			notes,
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

// ExportToMarkdown converts an Export to a Markdown document.
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s's anime list\n\n", export.User))
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n\n", len(export.Entries)))

	buf.WriteString("## Entries\n\n")
	for i, entry := range export.Entries {
		scorePart := ""
		if score := scoreString(entry); score != "" {
			scorePart = fmt.Sprintf(", score %s", score)
		}
		buf.WriteString(fmt.Sprintf("%d. %s [%s] progress %d%s\n", i+1, entry.DisplayTitle(), entry.Status, entry.Progress, scorePart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text.
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("List: %s\n", export.User))
	buf.WriteString(fmt.Sprintf("Entries: %d\n\n", len(export.Entries)))

	for i, entry := range export.Entries {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, entry.DisplayTitle(), entry.Status))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts an Export to indented JSON, entries in wire shape.
func ExportToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ToStatsJSON generates a JSON summary of the list (without entries).
func ToStatsJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(ExportStats(export), true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ListFile  string
	StatsFile string
}

// WriteCSVExport writes a list as CSV with an accompanying stats JSON file.
//
// Defaults to the username as the base filename & creates {base}_list.csv and {base}_stats.json
func WriteCSVExport(export *Export, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.User
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	listFile := baseFilepath + "_list.csv"
	if err := os.WriteFile(listFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	statsJSON, err := ToStatsJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate stats JSON: %w", err)
	}

	statsFile := baseFilepath + "_stats.json"
	if err := os.WriteFile(statsFile, statsJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write stats file: %w", err)
	}

	return &CSVExportResult{
		ListFile:  listFile,
		StatsFile: statsFile,
	}, nil
}

// WriteMarkdownExport writes a list as a Markdown file.
//
// Defaults to {user}_list.md as the filename.
func WriteMarkdownExport(export *Export, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_list.md", export.User)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport writes a list as plain text.
//
// Defaults to {user}_list.txt as the filename.
func WriteTextExport(export *Export, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_list.txt", export.User)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// WriteJSONExport writes a list as indented JSON.
//
// Defaults to {user}_list.json as the filename.
func WriteJSONExport(export *Export, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_list.json", export.User)
	}

	jsonData, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return filepath, nil
}
