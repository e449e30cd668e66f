package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesintel/internal/config"
	"salesintel/internal/exporter"
	"salesintel/internal/services"
	"salesintel/internal/shared/testutil"
	"salesintel/pkg/contracts/domain"
)

func orderBookFixture(t *testing.T, name string) string {
	t.Helper()
	return testutil.NewWorkbook(t).Sheet("Order book",
		testutil.Row("Ordernr", "Datum", "Kund", "Status", "Fakturastatus", "Belopp"),
		testutil.Row("A1", nil, "Acme", "Open", "", 150000.0),
		testutil.Row("B2", nil, "Beta", "Open", "", "100 EUR"),
	).Save(name)
}

func newTestRunner(t *testing.T, reports Reporter) *Runner {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	r := NewRunner(reports, logger)
	r.now = func() time.Time { return time.Date(2025, 3, 31, 15, 4, 0, 0, time.UTC) }
	return r
}

func TestRunner_OrderBookFormats(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewReportService(config.Default().Analytics, nil, nil, logger)
	out := t.TempDir()
	r := newTestRunner(t, svc)

	jobs, err := r.Run(context.Background(), Options{
		Kind:      services.KindOrderBook,
		Inputs:    []string{orderBookFixture(t, "week14.xlsx"), orderBookFixture(t, "week15.xlsx")},
		OutputDir: out,
		Formats:   []exporter.Format{exporter.FormatXLSX, exporter.FormatCSV, exporter.FormatJSON},
		Workers:   2,
		FX:        map[domain.Currency]float64{domain.EUR: 11},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	for _, job := range jobs {
		assert.Equal(t, JobStatusCompleted, job.Status)
		assert.NotEmpty(t, job.RunID)
		assert.Len(t, job.Outputs, 3)
		for _, path := range job.Outputs {
			assert.FileExists(t, path)
		}
	}
	assert.Equal(t, filepath.Join(out, "week14_orderbook_20250331_1504.xlsx"), jobs[0].Outputs[0])

	f, err := excelize.OpenFile(jobs[1].Outputs[0])
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Orders")

	csvData, err := os.ReadFile(jobs[0].Outputs[1])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvData), "\xEF\xBB\xBF"))
}

func TestRunner_RelativeOutputDir(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewReportService(config.Default().Analytics, nil, nil, logger)
	r := newTestRunner(t, svc)
	input := orderBookFixture(t, "week14.xlsx")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	jobs, err := r.Run(context.Background(), Options{
		Kind:      services.KindOrderBook,
		Inputs:    []string{input},
		OutputDir: "reports",
		Formats:   []exporter.Format{exporter.FormatCSV, exporter.FormatXLSX},
	})
	require.NoError(t, err)
	require.Len(t, jobs[0].Outputs, 2)

	for _, path := range jobs[0].Outputs {
		assert.Equal(t, "reports", filepath.Dir(path))
		assert.FileExists(t, path)
	}
	assert.NoDirExists(t, filepath.Join("reports", "reports"))
}

func TestRunner_OutputNamesDoNotCollide(t *testing.T) {
	const existing = "week14_orderbook_20250331_1504.json"

	tests := []struct {
		name     string
		inputs   int
		preexist bool
	}{
		{name: "same base name in two directories", inputs: 2},
		{name: "file left by an earlier run", inputs: 1, preexist: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			if tt.preexist {
				require.NoError(t, os.WriteFile(filepath.Join(out, existing), []byte("old"), 0o644))
			}
			var inputs []string
			for i := 0; i < tt.inputs; i++ {
				inputs = append(inputs, orderBookFixture(t, "week14.xlsx"))
			}
			r := newTestRunner(t, &fakeReporter{})

			jobs, err := r.Run(context.Background(), Options{
				Kind:      services.KindOrderBook,
				Inputs:    inputs,
				OutputDir: out,
				Formats:   []exporter.Format{exporter.FormatJSON},
				Workers:   2,
			})
			require.NoError(t, err)

			seen := make(map[string]bool)
			for _, job := range jobs {
				require.Len(t, job.Outputs, 1)
				path := job.Outputs[0]
				assert.False(t, seen[path], "duplicate output %s", path)
				seen[path] = true
				assert.FileExists(t, path)
			}

			entries, err := os.ReadDir(out)
			require.NoError(t, err)
			want := tt.inputs
			if tt.preexist {
				want++
				data, err := os.ReadFile(filepath.Join(out, existing))
				require.NoError(t, err)
				assert.Equal(t, "old", string(data))
				assert.NotEqual(t, filepath.Join(out, existing), jobs[0].Outputs[0])
				assert.Contains(t, jobs[0].Outputs[0], jobs[0].ID[:8])
			}
			assert.Len(t, entries, want)
		})
	}
}

type fakeReporter struct {
	fail map[string]error
}

func (f *fakeReporter) OrderBook(_ context.Context, req services.OrderBookRequest) (*domain.OrderBookReport, error) {
	return &domain.OrderBookReport{RunID: "run"}, nil
}

func (f *fakeReporter) Sales(_ context.Context, req services.SalesRequest) (*domain.SalesReport, error) {
	names := req.File.SheetNames()
	if err, ok := f.fail[names[0]]; ok {
		return nil, err
	}
	return &domain.SalesReport{RunID: "run"}, nil
}

func (f *fakeReporter) Intelligence(_ context.Context, req services.IntelligenceRequest) (*domain.IntelligenceReport, error) {
	return &domain.IntelligenceReport{RunID: "run"}, nil
}

func TestRunner_FailuresAreIsolated(t *testing.T) {
	out := t.TempDir()
	reporter := &fakeReporter{fail: map[string]error{"Broken": errors.New("no sales sheet")}}
	r := newTestRunner(t, reporter)

	good := testutil.NewWorkbook(t).Sheet("Artikel", testutil.Row("Artikelnr")).Save("jan.xlsx")
	bad := testutil.NewWorkbook(t).Sheet("Broken", testutil.Row("x")).Save("feb.xlsx")
	missing := filepath.Join(t.TempDir(), "mar.xlsx")

	jobs, err := r.Run(context.Background(), Options{
		Kind:      services.KindSales,
		Inputs:    []string{good, bad, missing},
		OutputDir: out,
		Formats:   []exporter.Format{exporter.FormatJSON},
		Workers:   1,
	})
	require.EqualError(t, err, "2 of 3 files failed")
	require.Len(t, jobs, 3)

	assert.Equal(t, JobStatusCompleted, jobs[0].Status)
	assert.Equal(t, JobStatusFailed, jobs[1].Status)
	assert.Equal(t, "no sales sheet", jobs[1].Error)
	assert.Equal(t, JobStatusFailed, jobs[2].Status)
	assert.Empty(t, jobs[2].Outputs)
}

func TestRunner_UnsupportedFormatFailsJob(t *testing.T) {
	out := t.TempDir()
	r := newTestRunner(t, &fakeReporter{})

	jobs, err := r.Run(context.Background(), Options{
		Kind:      services.KindSales,
		Inputs:    []string{testutil.NewWorkbook(t).Sheet("Artikel").Save("jan.xlsx")},
		OutputDir: out,
		Formats:   []exporter.Format{exporter.FormatHTML},
	})
	require.Error(t, err)
	assert.Contains(t, jobs[0].Error, "html")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunner_CancelledContext(t *testing.T) {
	out := t.TempDir()
	r := newTestRunner(t, &fakeReporter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs, err := r.Run(ctx, Options{
		Kind:      services.KindIntelligence,
		Inputs:    []string{testutil.NewWorkbook(t).Sheet("Data").Save("master.xlsx")},
		OutputDir: out,
	})
	require.Error(t, err)
	assert.Equal(t, context.Canceled.Error(), jobs[0].Error)
}

func TestRunner_InvalidOptions(t *testing.T) {
	r := newTestRunner(t, &fakeReporter{})

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "kind", opts: Options{Kind: "weekly", Inputs: []string{"a.xlsx"}, OutputDir: "out"}, want: "unknown report kind"},
		{name: "inputs", opts: Options{Kind: services.KindSales, OutputDir: "out"}, want: "no input files"},
		{name: "output", opts: Options{Kind: services.KindSales, Inputs: []string{"a.xlsx"}}, want: "output directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFileDetector_Expand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.xlsx", "b.XLSM", "~$a.xlsx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	logger, _ := testutil.NewTestLogger(t)
	fd := NewFileDetector(logger)

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{name: "directory", args: []string{dir}, want: []string{"a.xlsx", "b.XLSM"}},
		{name: "glob", args: []string{filepath.Join(dir, "*.xlsx")}, want: []string{"a.xlsx"}},
		{name: "comma list dedup", args: []string{filepath.Join(dir, "a.xlsx") + "," + filepath.Join(dir, "a.xlsx")}, want: []string{"a.xlsx"}},
		{name: "missing", args: []string{filepath.Join(dir, "nope.xlsx")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fd.Expand(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, p := range got {
				names = append(names, filepath.Base(p))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
