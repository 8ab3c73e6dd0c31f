package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/tasksync/internal/formatter"
	"github.com/desertthunder/tasksync/internal/models"
	"github.com/desertthunder/tasksync/internal/services"
	"github.com/desertthunder/tasksync/internal/shared"
	"golang.org/x/time/rate"
)

// Export result types are shared with the formatter package, which writes
// the manifest summarizing them.
type (
	ExportRunResult  = formatter.ExportRunResult
	ListExportResult = formatter.ListExportResult
)

// ExportOpts contains configuration for bulk task list exports.
type ExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: tasks_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Requests per second (default: 5)
}

// listExportJob carries one fetched list to the file-writing workers.
type listExportJob struct {
	name   string
	export *models.ListExport
}

// ExportLists exports multiple task lists with rate limiting and progress tracking.
//
// Remote fetches happen sequentially in the producer so the per-account cache
// is never touched from two goroutines; only file writes fan out to the
// worker pool. A manifest file summarizing the export is written last.
func (e *Engine) ExportLists(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	svc services.TaskService,
	listNames []string,
	opts ExportOpts,
) (*ExportRunResult, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: task service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tasks_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportRunResult{
		TotalLists:      len(listNames),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ListExportResult, 0, len(listNames)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan listExportJob, len(listNames))
	results := make(chan ListExportResult, len(listNames))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, name := range listNames {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			export, err := fetchListExport(ctx, svc, name)
			if err != nil {
				results <- ListExportResult{
					ListName: name,
					Success:  false,
					Error:    fmt.Errorf("failed to fetch list: %w", err),
				}
				continue
			}

			jobs <- listExportJob{name: name, export: export}
			e.sendProgress(prog, exportingListUpdate(i+1, len(listNames), name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(listNames), res.ListName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(listNames), res.ListName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// fetchListExport resolves one list and snapshots it into an export DTO.
func fetchListExport(ctx context.Context, svc services.TaskService, name string) (*models.ListExport, error) {
	listID, err := svc.GetListID(ctx, name)
	if err != nil {
		return nil, err
	}

	collection, err := svc.GetTasks(ctx, listID)
	if err != nil {
		return nil, err
	}

	export := &models.ListExport{
		Account: svc.Account(),
		List:    models.List{ID: listID, Name: name},
		Tasks:   make([]models.TaskExport, 0, len(collection)),
	}
	for _, t := range collection {
		export.Tasks = append(export.Tasks, models.TaskExport{
			ID:      t.ID,
			Title:   t.Title,
			Notes:   t.Notes,
			Due:     t.Due,
			Status:  t.Status,
			Updated: t.Updated,
		})
	}
	return export, nil
}

// exportWorker is a worker goroutine that writes list exports from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan listExportJob,
	results chan<- ListExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSingleList(job, opts)
	}
}

// exportSingleList writes a single list to the appropriate format.
func (e *Engine) exportSingleList(j listExportJob, opts ExportOpts) ListExportResult {
	result := ListExportResult{
		ListName: j.name,
		ListID:   j.export.List.ID,
		Success:  false,
		Files:    []string{},
	}

	switch opts.Format {
	case "csv":
		baseFilepath := filepath.Join(opts.OutputDir, j.export.List.ID)
		csvRes, err := formatter.WriteCSVExport(j.export, baseFilepath)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TasksFile, csvRes.MetadataFile}
		result.Success = true

	case "markdown":
		outputDir := filepath.Join(opts.OutputDir, j.export.List.ID)
		mdRes, err := formatter.WriteMarkdownExport(j.export, outputDir)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_tasks.txt", j.export.List.ID))
		written, err := formatter.WriteTextExport(j.export, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.json", j.export.List.ID))
		data, err := shared.MarshalJSON(j.export, true)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
		result.Success = true
	}
	return result
}
