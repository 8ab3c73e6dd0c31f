// Package formatter provides functions to export task list data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/tasksync/internal/models"
	"github.com/desertthunder/tasksync/internal/shared"
)

const completedStatus = "completed"

// ExportToCSV converts a ListExport to CSV format with columns: ID, Title, Notes, Due, Status, Updated
func ExportToCSV(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Notes", "Due", "Status", "Updated"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, task := range export.Tasks {
		record := []string{
			task.ID,
			task.Title,
			task.Notes,
			task.Due,
			task.Status,
			task.Updated,
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

// ExportToMarkdown converts a ListExport to a Markdown checklist
func ExportToMarkdown(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.List.Name))
	buf.WriteString(fmt.Sprintf("**Account**: %s\n", export.Account))

	completed := 0
	for _, task := range export.Tasks {
		if task.Status == completedStatus {
			completed++
		}
	}
	buf.WriteString(fmt.Sprintf("**Tasks**: %d (%d completed)\n\n", len(export.Tasks), completed))

	buf.WriteString("## Tasks\n\n")
	for _, task := range export.Tasks {
		box := " "
		if task.Status == completedStatus {
			box = "x"
		}
		duePart := ""
		if task.Due != "" {
			duePart = fmt.Sprintf(" (due %s)", task.Due)
		}
		buf.WriteString(fmt.Sprintf("- [%s] %s%s\n", box, task.Title, duePart))
		if task.Notes != "" {
			buf.WriteString(fmt.Sprintf("  %s\n", task.Notes))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ListExport to plain text format
func ExportToText(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("List: %s\n", export.List.Name))
	buf.WriteString(fmt.Sprintf("Account: %s\n", export.Account))
	buf.WriteString(fmt.Sprintf("Tasks: %d\n\n", len(export.Tasks)))

	for i, task := range export.Tasks {
		marker := " "
		if task.Status == completedStatus {
			marker = "x"
		}
		buf.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, marker, task.Title))
	}

	return buf.Bytes(), nil
}

// listMetadata is the shape written to {base}_metadata.json
type listMetadata struct {
	Account   string `json:"account"`
	ListID    string `json:"list_id"`
	ListName  string `json:"list_name"`
	TaskCount int    `json:"task_count"`
}

// ToMetadataJSON generates a JSON representation of list metadata (without tasks)
func ToMetadataJSON(export *models.ListExport) ([]byte, error) {
	return shared.MarshalJSON(listMetadata{
		Account:   export.Account,
		ListID:    export.List.ID,
		ListName:  export.List.Name,
		TaskCount: len(export.Tasks),
	}, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TasksFile    string
	MetadataFile string
}

// WriteCSVExport exports a task list to CSV format with accompanying metadata JSON file.
//
// Defaults to the list ID as the base filename & creates {base}_tasks.csv and {base}_metadata.json
func WriteCSVExport(export *models.ListExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.List.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tasksFile := baseFilepath + "_tasks.csv"
	if err := os.WriteFile(tasksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TasksFile:    tasksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a task list to Markdown format in a dedicated directory.
//
// Directory name defaults to the list ID. Creates {dir}/README.md.
func WriteMarkdownExport(export *models.ListExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.List.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{mdFile},
	}, nil
}

// WriteTextExport exports a task list to plain text format.
//
// Defaults to {list.ID}_tasks.txt as the filename.
func WriteTextExport(export *models.ListExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tasks.txt", export.List.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// ListExportResult records the outcome of exporting a single list.
type ListExportResult struct {
	ListName string
	ListID   string
	Success  bool
	Files    []string
	Error    error
}

// ExportRunResult summarizes a bulk export across multiple lists.
type ExportRunResult struct {
	TotalLists        int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []ListExportResult
}

type manifestEntry struct {
	ListName string   `json:"list_name"`
	ListID   string   `json:"list_id,omitempty"`
	Success  bool     `json:"success"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type manifest struct {
	ExportedAt      string          `json:"exported_at"`
	Format          string          `json:"format"`
	OutputDirectory string          `json:"output_directory"`
	TotalLists      int             `json:"total_lists"`
	Successful      int             `json:"successful"`
	Failed          int             `json:"failed"`
	Lists           []manifestEntry `json:"lists"`
}

// WriteExportManifest writes a JSON summary of a bulk export to the given path.
func WriteExportManifest(result *ExportRunResult, format, path string) error {
	m := manifest{
		ExportedAt:      time.Now().UTC().Format(time.RFC3339),
		Format:          format,
		OutputDirectory: result.OutputDirectory,
		TotalLists:      result.TotalLists,
		Successful:      result.SuccessfulExports,
		Failed:          result.FailedExports,
		Lists:           make([]manifestEntry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		entry := manifestEntry{
			ListName: res.ListName,
			ListID:   res.ListID,
			Success:  res.Success,
			Files:    res.Files,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Lists = append(m.Lists, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
