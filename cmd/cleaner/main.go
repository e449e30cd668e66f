package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"salesintel/internal/batch"
	"salesintel/internal/config"
	"salesintel/internal/dataprocessing"
	"salesintel/internal/exporter"
	"salesintel/internal/infrastructure"
	"salesintel/internal/services"
	"salesintel/pkg/contracts/domain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	mode     string
	in       string
	prev     string
	master   string
	out      string
	formats  string
	workers  int
	fx       string
	current  string
	previous string
	config   string
	quiet    bool
	inputs   []string
}

func parseFlags(args []string, defaultOut string) (*cliFlags, error) {
	fs := flag.NewFlagSet("cleaner", flag.ContinueOnError)
	f := &cliFlags{}
	fs.StringVar(&f.mode, "mode", services.KindOrderBook, "report kind: orderbook, sales or intelligence")
	fs.StringVar(&f.in, "in", "", "input workbooks: files, directories or glob patterns, comma separated")
	fs.StringVar(&f.prev, "prev", "", "previous week's order book (orderbook mode)")
	fs.StringVar(&f.master, "master", "", "article master workbook (sales mode)")
	fs.StringVar(&f.out, "out", defaultOut, "output directory")
	fs.StringVar(&f.formats, "format", "xlsx", "output formats, comma separated: xlsx, csv, json, html")
	fs.IntVar(&f.workers, "workers", runtime.NumCPU(), "files processed concurrently")
	fs.StringVar(&f.fx, "fx", "", "exchange rate overrides, e.g. EUR=11.2,USD=10.4 or EUR=11,2;USD=10,4")
	fs.StringVar(&f.current, "current", "", "current period label (intelligence mode)")
	fs.StringVar(&f.previous, "previous-period", "", "previous period label (intelligence mode)")
	fs.StringVar(&f.config, "config", "", "configuration file (yaml)")
	fs.BoolVar(&f.quiet, "quiet", false, "hide the progress bar")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if f.in != "" {
		f.inputs = append(f.inputs, f.in)
	}
	f.inputs = append(f.inputs, fs.Args()...)
	if len(f.inputs) == 0 {
		return nil, fmt.Errorf("no input files: use -in or pass paths as arguments")
	}
	return f, nil
}

func parseFormats(s string) ([]exporter.Format, error) {
	var out []exporter.Format
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := exporter.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseFX reads "EUR=11.2,USD=10.4" style overrides. Pairs may also be
// separated by semicolons, and a comma inside a value is a decimal mark:
// "EUR=11,2;USD=10,4" and "EUR=11,20" both work.
func parseFX(s string) (map[domain.Currency]float64, error) {
	rates := make(map[domain.Currency]float64)
	if strings.TrimSpace(s) == "" {
		return rates, nil
	}
	for _, pair := range splitFXPairs(s) {
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid fx override %q", pair)
		}
		cur := domain.Currency(strings.ToUpper(strings.TrimSpace(code)))
		if !knownCurrency(cur) || cur == domain.BaseCurrency {
			return nil, fmt.Errorf("unsupported currency %q", code)
		}
		rate, ok := dataprocessing.ParseRate(value)
		if !ok {
			return nil, fmt.Errorf("%s rate must be a positive number", cur)
		}
		rates[cur] = rate
	}
	return rates, nil
}

// splitFXPairs splits on semicolons and commas. A piece without "=" is
// the decimal part of the value before it.
func splitFXPairs(s string) []string {
	var pairs []string
	for _, group := range strings.Split(s, ";") {
		for _, part := range strings.Split(group, ",") {
			if n := len(pairs); n > 0 && !strings.Contains(part, "=") {
				pairs[n-1] += "," + part
				continue
			}
			pairs = append(pairs, part)
		}
	}
	return pairs
}

func knownCurrency(c domain.Currency) bool {
	for _, k := range domain.KnownCurrencies {
		if k == c {
			return true
		}
	}
	return false
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func run(args []string) error {
	// -config has to be known before the defaults that depend on it.
	cfgPath := ""
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			cfgPath = args[i+1]
		} else if v, ok := strings.CutPrefix(a, "-config="); ok {
			cfgPath = v
		} else if v, ok := strings.CutPrefix(a, "--config="); ok {
			cfgPath = v
		}
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags, err := parseFlags(args, cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	formats, err := parseFormats(flags.formats)
	if err != nil {
		return err
	}
	fx, err := parseFX(flags.fx)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	inputs, err := batch.NewFileDetector(logger).Expand(flags.inputs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	logger.InfoContext(ctx, "Starting batch run",
		slog.String("mode", flags.mode),
		slog.Int("files", len(inputs)),
		slog.String("output_dir", flags.out))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() { _ = providers.Shutdown(context.WithoutCancel(ctx)) }()

	metrics, err := infrastructure.NewReportMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create report metrics: %w", err)
	}

	svc := services.NewReportService(cfg.Analytics, metrics, providers.Tracer, logger)
	runner := batch.NewRunner(svc, logger)

	opts := batch.Options{
		Kind:           flags.mode,
		Inputs:         inputs,
		Previous:       flags.prev,
		Master:         flags.master,
		OutputDir:      flags.out,
		Formats:        formats,
		Workers:        flags.workers,
		FX:             fx,
		CurrentPeriod:  flags.current,
		PreviousPeriod: flags.previous,
	}
	if !flags.quiet {
		opts.Progress = os.Stderr
	}

	jobs, runErr := runner.Run(ctx, opts)
	infrastructure.LoggerWithContext(ctx).Info("Batch run complete",
		slog.String("mode", flags.mode),
		slog.Int("jobs", len(jobs)),
		slog.Bool("ok", runErr == nil))
	for _, job := range jobs {
		if job.Status == batch.JobStatusFailed {
			fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", job.Input, job.Error)
			continue
		}
		for _, out := range job.Outputs {
			fmt.Println(out)
		}
	}
	return runErr
}
