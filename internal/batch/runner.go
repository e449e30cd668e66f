package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"salesintel/internal/exporter"
	"salesintel/internal/infrastructure"
	"salesintel/internal/services"
	"salesintel/internal/workbook"
	"salesintel/pkg/contracts/domain"
)

// Reporter is the part of the report service the runner drives.
type Reporter interface {
	OrderBook(ctx context.Context, req services.OrderBookRequest) (*domain.OrderBookReport, error)
	Sales(ctx context.Context, req services.SalesRequest) (*domain.SalesReport, error)
	Intelligence(ctx context.Context, req services.IntelligenceRequest) (*domain.IntelligenceReport, error)
}

// Options describes one batch invocation. Every input file becomes its
// own report run; Previous and Master are shared by all of them.
type Options struct {
	Kind      string
	Inputs    []string
	Previous  string
	Master    string
	OutputDir string
	Formats   []exporter.Format
	Workers   int
	FX        map[domain.Currency]float64

	CurrentPeriod  string
	PreviousPeriod string

	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// Runner processes input files concurrently and writes the report files.
type Runner struct {
	reports Reporter
	csv     *exporter.CSVWriter
	logger  *slog.Logger
	now     func() time.Time
}

// NewRunner creates a runner. Output paths come from Options.OutputDir.
func NewRunner(reports Reporter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		reports: reports,
		csv:     exporter.NewCSVWriter("", logger),
		logger:  logger.With(slog.String("component", "batch_runner")),
		now:     time.Now,
	}
}

// Run processes every input. A failing file does not stop the others; the
// returned error summarizes how many failed. The jobs are returned in input
// order either way.
func (r *Runner) Run(ctx context.Context, opts Options) ([]*Job, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []exporter.Format{exporter.FormatXLSX}
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs := make([]*Job, len(opts.Inputs))
	for i, in := range opts.Inputs {
		jobs[i] = newJob(opts.Kind, in)
	}

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription(opts.Kind),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	r.logger.InfoContext(ctx, "batch started",
		slog.String("kind", opts.Kind),
		slog.Int("files", len(jobs)),
		slog.Int("workers", workers))

	names := &outputNames{taken: make(map[string]struct{})}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()

			job.start(r.now())
			err := r.process(ctx, job, opts, formats, names)
			job.finish(r.now(), err)

			if err != nil {
				r.logger.ErrorContext(ctx, "file failed",
					slog.String("job_id", job.ID),
					slog.String("input", job.Input),
					slog.String("error", err.Error()))
			} else {
				r.logger.InfoContext(ctx, "file processed",
					slog.String("job_id", job.ID),
					slog.String("input", job.Input),
					slog.String("run_id", job.RunID),
					slog.Duration("duration", job.Duration()))
			}
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()

	failed := 0
	for _, job := range jobs {
		if job.Status == JobStatusFailed {
			failed++
		}
	}
	r.logger.InfoContext(ctx, "batch finished",
		slog.String("kind", opts.Kind),
		slog.Int("files", len(jobs)),
		slog.Int("failed", failed))

	if failed > 0 {
		return jobs, fmt.Errorf("%d of %d files failed", failed, len(jobs))
	}
	return jobs, nil
}

func validateOptions(opts Options) error {
	switch opts.Kind {
	case services.KindOrderBook, services.KindSales, services.KindIntelligence:
	default:
		return fmt.Errorf("unknown report kind %q", opts.Kind)
	}
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files")
	}
	if opts.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

func (r *Runner) process(ctx context.Context, job *Job, opts Options, formats []exporter.Format, names *outputNames) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = infrastructure.WithTraceID(ctx, job.ID)

	report, runID, err := r.build(ctx, job.Input, opts)
	if err != nil {
		return err
	}
	job.RunID = runID

	base := strings.TrimSuffix(filepath.Base(job.Input), filepath.Ext(job.Input))
	at := r.now()
	for _, f := range formats {
		name := base + "_" + exporter.Filename(opts.Kind, at, f)
		path := names.reserve(filepath.Join(opts.OutputDir, name), job.ID)
		if err := r.write(path, f, report); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		job.Outputs = append(job.Outputs, path)
	}
	return nil
}

// outputNames hands out output paths for one batch run. Inputs from
// different directories can share a base name, and an earlier run in the
// same minute leaves files behind; neither may be overwritten.
type outputNames struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

// reserve returns path, or path with the job's short id appended when it
// is already claimed in this run or exists on disk.
func (n *outputNames) reserve(path, jobID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.free(path) {
		n.taken[path] = struct{}{}
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	suffix := jobID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	alt := stem + "_" + suffix + ext
	for i := 2; !n.free(alt); i++ {
		alt = fmt.Sprintf("%s_%s_%d%s", stem, suffix, i, ext)
	}
	n.taken[alt] = struct{}{}
	return alt
}

func (n *outputNames) free(path string) bool {
	if _, ok := n.taken[path]; ok {
		return false
	}
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

func (r *Runner) build(ctx context.Context, input string, opts Options) (any, string, error) {
	current, err := workbook.OpenFile(input)
	if err != nil {
		return nil, "", err
	}
	defer current.Close()

	switch opts.Kind {
	case services.KindOrderBook:
		req := services.OrderBookRequest{Current: current, FX: opts.FX}
		if opts.Previous != "" {
			prev, err := workbook.OpenFile(opts.Previous)
			if err != nil {
				return nil, "", fmt.Errorf("previous: %w", err)
			}
			defer prev.Close()
			req.Previous = prev
		}
		report, err := r.reports.OrderBook(ctx, req)
		if err != nil {
			return nil, "", err
		}
		return report, report.RunID, nil

	case services.KindSales:
		req := services.SalesRequest{File: current}
		if opts.Master != "" {
			master, err := workbook.OpenFile(opts.Master)
			if err != nil {
				return nil, "", fmt.Errorf("master: %w", err)
			}
			defer master.Close()
			req.Master = master
		}
		report, err := r.reports.Sales(ctx, req)
		if err != nil {
			return nil, "", err
		}
		return report, report.RunID, nil

	default:
		report, err := r.reports.Intelligence(ctx, services.IntelligenceRequest{
			Master:   current,
			Current:  opts.CurrentPeriod,
			Previous: opts.PreviousPeriod,
		})
		if err != nil {
			return nil, "", err
		}
		return report, report.RunID, nil
	}
}

func (r *Runner) write(path string, f exporter.Format, report any) error {
	if f == exporter.FormatCSV {
		opts, err := exporter.CSVFor(report)
		if err != nil {
			return err
		}
		return r.csv.WriteCSV(path, opts)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := exporter.Write(out, f, report); err != nil {
		out.Close()
		_ = os.Remove(path)
		return err
	}
	return out.Close()
}
