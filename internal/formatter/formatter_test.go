package formatter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tasksync/internal/models"
)

func sampleExport() *models.ListExport {
	return &models.ListExport{
		Account: "alice@example.com",
		List:    models.List{ID: "list123", Name: "Groceries"},
		Tasks: []models.TaskExport{
			{ID: "t1", Title: "Buy milk", Notes: "2 percent", Due: "2026-02-01", Status: "needsAction", Updated: "2026-01-15T10:00:00.000Z"},
			{ID: "t2", Title: "Pay rent", Status: "completed", Updated: "2026-01-14T09:00:00.000Z"},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleExport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 records, got %d lines", len(lines))
	}
	if lines[0] != "ID,Title,Notes,Due,Status,Updated" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Buy milk") || !strings.Contains(lines[1], "2 percent") {
		t.Errorf("first record missing fields: %s", lines[1])
	}
	if !strings.Contains(lines[2], "completed") {
		t.Errorf("second record missing status: %s", lines[2])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleExport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	md := string(data)
	for _, want := range []string{
		"# Groceries",
		"**Account**: alice@example.com",
		"**Tasks**: 2 (1 completed)",
		"- [ ] Buy milk (due 2026-02-01)",
		"  2 percent",
		"- [x] Pay rent",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleExport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := string(data)
	if !strings.Contains(text, "List: Groceries") {
		t.Errorf("text missing list name:\n%s", text)
	}
	if !strings.Contains(text, "1. [ ] Buy milk") || !strings.Contains(text, "2. [x] Pay rent") {
		t.Errorf("text missing task lines:\n%s", text)
	}
}

func TestWriteCSVExport(t *testing.T) {
	tempDir := t.TempDir()
	base := filepath.Join(tempDir, "list123")

	result, err := WriteCSVExport(sampleExport(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(result.TasksFile); err != nil {
		t.Errorf("tasks file missing: %v", err)
	}
	if _, err := os.Stat(result.MetadataFile); err != nil {
		t.Errorf("metadata file missing: %v", err)
	}

	raw, err := os.ReadFile(result.MetadataFile)
	if err != nil {
		t.Fatalf("failed to read metadata: %v", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["list_name"] != "Groceries" {
		t.Errorf("expected list_name Groceries, got %v", meta["list_name"])
	}
	if meta["task_count"] != float64(2) {
		t.Errorf("expected task_count 2, got %v", meta["task_count"])
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	tempDir := t.TempDir()
	outputDir := filepath.Join(tempDir, "list123")

	result, err := WriteMarkdownExport(sampleExport(), outputDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Directory != outputDir {
		t.Errorf("expected directory %s, got %s", outputDir, result.Directory)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(result.Files))
	}
	if _, err := os.Stat(result.Files[0]); err != nil {
		t.Errorf("markdown file missing: %v", err)
	}
}

func TestWriteTextExport(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "groceries.txt")

	written, err := WriteTextExport(sampleExport(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written != path {
		t.Errorf("expected path %s, got %s", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("text file missing: %v", err)
	}
}

func TestWriteExportManifest(t *testing.T) {
	tempDir := t.TempDir()
	manifestPath := filepath.Join(tempDir, "export_manifest.json")

	result := &ExportRunResult{
		TotalLists:        2,
		SuccessfulExports: 1,
		FailedExports:     1,
		OutputDirectory:   tempDir,
		Results: []ListExportResult{
			{ListName: "Groceries", ListID: "list123", Success: true, Files: []string{"list123.json"}},
			{ListName: "Chores", Success: false, Error: fmt.Errorf("list not found")},
		},
	}

	if err := WriteExportManifest(result, "json", manifestPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m["total_lists"] != float64(2) {
		t.Errorf("expected total_lists 2, got %v", m["total_lists"])
	}

	lists, ok := m["lists"].([]any)
	if !ok || len(lists) != 2 {
		t.Fatalf("expected 2 list entries, got %v", m["lists"])
	}
	failed := lists[1].(map[string]any)
	if failed["error"] != "list not found" {
		t.Errorf("expected error message preserved, got %v", failed["error"])
	}
}
