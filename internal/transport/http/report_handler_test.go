package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesintel/internal/config"
	apierrors "salesintel/internal/errors"
	"salesintel/internal/services"
	"salesintel/internal/shared/testutil"
	"salesintel/pkg/contracts/domain"
)

type fakeReports struct {
	orderBook    services.OrderBookRequest
	sales        services.SalesRequest
	intelligence services.IntelligenceRequest
	err          error
}

func (f *fakeReports) OrderBook(_ context.Context, req services.OrderBookRequest) (*domain.OrderBookReport, error) {
	f.orderBook = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OrderBookReport{RunID: "run-1", OrderCount: 2}, nil
}

func (f *fakeReports) Sales(_ context.Context, req services.SalesRequest) (*domain.SalesReport, error) {
	f.sales = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SalesReport{RunID: "run-2"}, nil
}

func (f *fakeReports) Intelligence(_ context.Context, req services.IntelligenceRequest) (*domain.IntelligenceReport, error) {
	f.intelligence = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.IntelligenceReport{RunID: "run-3", CurrentPeriod: "2025-03", PreviousPeriod: "2024-03"}, nil
}

type upload struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func emptyWorkbook(t *testing.T) []byte {
	return testutil.NewWorkbook(t).Sheet("Sheet1", testutil.Row("x")).Bytes()
}

func newTestRouter(t *testing.T, svc ReportServiceInterface, upload config.UploadConfig) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewReportHandler(svc, upload, apierrors.NewErrorHandler(logger, false), logger)

	r := chi.NewRouter()
	r.Mount("/api/reports", h.Routes())
	return r
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestReportHandler_OrderBook(t *testing.T) {
	fake := &fakeReports{}
	router := newTestRouter(t, fake, config.Default().Upload)
	wb := emptyWorkbook(t)

	req := multipartRequest(t, "/api/reports/orderbook",
		map[string]string{"eur": "11,50", "usd": "", "today": "2025-03-31"},
		upload{fieldFile, "Orderstock.xlsx", wb},
		upload{fieldPrevious, "Orderstock_prev.xlsx", wb},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var report domain.OrderBookReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)

	assert.NotNil(t, fake.orderBook.Current)
	assert.NotNil(t, fake.orderBook.Previous)
	assert.Equal(t, map[domain.Currency]float64{domain.EUR: 11.5}, fake.orderBook.FX)
	assert.Equal(t, "2025-03-31", fake.orderBook.Today.Format("2006-01-02"))
}

func TestReportHandler_Formats(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		format      string
		contentType string
		disposition string
	}{
		{name: "order book xlsx", path: "/api/reports/orderbook", format: "xlsx",
			contentType: "spreadsheetml", disposition: `attachment; filename="orderbook_`},
		{name: "sales csv", path: "/api/reports/sales", format: "CSV",
			contentType: "text/csv", disposition: `attachment; filename="sales_`},
		{name: "intelligence html", path: "/api/reports/intelligence", format: "html",
			contentType: "text/html", disposition: `inline; filename="intelligence_`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeReports{}, config.Default().Upload)
			req := multipartRequest(t, tt.path, map[string]string{"format": tt.format},
				upload{fieldFile, "book.xlsx", emptyWorkbook(t)})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), tt.disposition),
				rec.Header().Get("Content-Disposition"))
			assert.NotZero(t, rec.Body.Len())
		})
	}
}

func TestReportHandler_SalesWithMaster(t *testing.T) {
	fake := &fakeReports{}
	router := newTestRouter(t, fake, config.Default().Upload)

	req := multipartRequest(t, "/api/reports/sales", nil,
		upload{fieldFile, "sales.xlsx", emptyWorkbook(t)},
		upload{fieldMaster, "MASTER.xlsm", emptyWorkbook(t)},
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotNil(t, fake.sales.File)
	assert.NotNil(t, fake.sales.Master)
}

func TestReportHandler_IntelligencePeriods(t *testing.T) {
	fake := &fakeReports{}
	router := newTestRouter(t, fake, config.Default().Upload)

	req := multipartRequest(t, "/api/reports/intelligence",
		map[string]string{"current": " okt 24 ", "previous": "okt 23"},
		upload{fieldFile, "master.xlsx", emptyWorkbook(t)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "okt 24", fake.intelligence.Current)
	assert.Equal(t, "okt 23", fake.intelligence.Previous)
}

func TestReportHandler_Errors(t *testing.T) {
	wb := emptyWorkbook(t)

	tests := []struct {
		name      string
		path      string
		fields    map[string]string
		files     []upload
		svcErr    error
		status    int
		errorCode string
	}{
		{
			name:      "missing file",
			path:      "/api/reports/orderbook",
			status:    http.StatusBadRequest,
			errorCode: "VALIDATION_FAILED",
		},
		{
			name:      "not a workbook name",
			path:      "/api/reports/sales",
			files:     []upload{{fieldFile, "sales.csv", wb}},
			status:    http.StatusBadRequest,
			errorCode: "VALIDATION_FAILED",
		},
		{
			name:      "bad rate",
			path:      "/api/reports/orderbook",
			fields:    map[string]string{"gbp": "abc"},
			files:     []upload{{fieldFile, "o.xlsx", wb}},
			status:    http.StatusBadRequest,
			errorCode: "VALIDATION_FAILED",
		},
		{
			name:      "html not offered for order book",
			path:      "/api/reports/orderbook",
			fields:    map[string]string{"format": "html"},
			files:     []upload{{fieldFile, "o.xlsx", wb}},
			status:    http.StatusBadRequest,
			errorCode: "VALIDATION_FAILED",
		},
		{
			name:      "corrupt workbook",
			path:      "/api/reports/sales",
			files:     []upload{{fieldFile, "s.xlsx", []byte("not a zip")}},
			status:    http.StatusBadRequest,
			errorCode: string(apierrors.ErrTypeWorkbookRead),
		},
		{
			name:      "sheet not found",
			path:      "/api/reports/orderbook",
			files:     []upload{{fieldFile, "o.xlsx", wb}},
			svcErr:    apierrors.NewSheetNotFoundError([]string{"Order book"}, []string{"Sheet1", "Sheet2"}),
			status:    http.StatusUnprocessableEntity,
			errorCode: string(apierrors.ErrTypeSheetNotFound),
		},
		{
			name:      "no period data",
			path:      "/api/reports/intelligence",
			files:     []upload{{fieldFile, "m.xlsx", wb}},
			svcErr:    apierrors.NewNoPeriodDataError("no LTM periods"),
			status:    http.StatusUnprocessableEntity,
			errorCode: string(apierrors.ErrTypeNoPeriodData),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeReports{err: tt.svcErr}, config.Default().Upload)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, tt.path, tt.fields, tt.files...))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
			assert.Equal(t, tt.errorCode, decodeProblem(t, rec)["error_code"])
		})
	}
}

func TestReportHandler_RejectsNonMultipart(t *testing.T) {
	router := newTestRouter(t, &fakeReports{}, config.Default().Upload)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/sales", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestReportHandler_UploadTooLarge(t *testing.T) {
	router := newTestRouter(t, &fakeReports{}, config.UploadConfig{MaxBytes: 512, MaxMemory: 256})

	req := multipartRequest(t, "/api/reports/sales", nil,
		upload{fieldFile, "big.xlsx", bytes.Repeat([]byte("x"), 4096)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, apierrors.TypePayloadTooLarge, decodeProblem(t, rec)["type"])
}

// Runs the real service so the upload, workbook reader and exporter are
// exercised together.
func TestReportHandler_OrderBookEndToEnd(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewReportService(config.Default().Analytics, nil, nil, logger)
	router := newTestRouter(t, svc, config.Default().Upload)

	wb := testutil.NewWorkbook(t).Sheet("Order book",
		testutil.Row("Ordernr", "Datum", "Kund", "Status", "Fakturastatus", "Belopp"),
		testutil.Row("A1", nil, "Acme", "Open", "", 150000.0),
		testutil.Row("B2", nil, "Beta", "Open", "", "100 EUR"),
		testutil.Row("Summa", nil, nil, nil, nil, "n/a"),
	).Bytes()

	req := multipartRequest(t, "/api/reports/orderbook",
		map[string]string{"eur": "10", "format": "xlsx"},
		upload{fieldFile, "Orderstock.xlsx", wb})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f, err := excelize.OpenReader(io.NopCloser(rec.Body))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Summary")
	assert.Contains(t, f.GetSheetList(), "Orders")

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestParseRates(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[domain.Currency]string
		want    map[domain.Currency]float64
		wantErr bool
	}{
		{name: "decimal comma one digit", fields: map[domain.Currency]string{domain.EUR: "11,2"}, want: map[domain.Currency]float64{domain.EUR: 11.2}},
		{name: "decimal comma two digits", fields: map[domain.Currency]string{domain.EUR: "11,20"}, want: map[domain.Currency]float64{domain.EUR: 11.2}},
		{name: "decimal dot", fields: map[domain.Currency]string{domain.EUR: "11.2"}, want: map[domain.Currency]float64{domain.EUR: 11.2}},
		{name: "empty keeps configured", fields: map[domain.Currency]string{domain.USD: " "}, want: map[domain.Currency]float64{}},
		{name: "negative", fields: map[domain.Currency]string{domain.GBP: "-13"}, wantErr: true},
		{name: "mixed marks", fields: map[domain.Currency]string{domain.EUR: "1.234,5"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRates(tt.fields)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for cur, rate := range tt.want {
				assert.InDelta(t, rate, got[cur], 1e-9)
			}
		})
	}
}
