package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salesintel/internal/config"
	"salesintel/internal/dataprocessing"
	apierrors "salesintel/internal/errors"
	"salesintel/internal/exporter"
	"salesintel/internal/middleware"
	"salesintel/internal/services"
	"salesintel/internal/workbook"
	"salesintel/pkg/contracts/domain"
)

// Multipart field names of the report endpoints.
const (
	fieldFile     = "file"
	fieldPrevious = "previous"
	fieldMaster   = "master"
)

type orderBookForm struct {
	File     string `form:"file" validate:"required,spreadsheet"`
	Previous string `form:"previous" validate:"omitempty,spreadsheet"`
	EUR      string `form:"eur"`
	USD      string `form:"usd"`
	GBP      string `form:"gbp"`
	Today    string `form:"today" validate:"omitempty,datetime=2006-01-02"`
	Format   string `form:"format" validate:"omitempty,oneof=json xlsx csv"`
}

type salesForm struct {
	File   string `form:"file" validate:"required,spreadsheet"`
	Master string `form:"master" validate:"omitempty,spreadsheet"`
	Format string `form:"format" validate:"omitempty,oneof=json xlsx csv"`
}

type intelligenceForm struct {
	File     string `form:"file" validate:"required,spreadsheet"`
	Current  string `form:"current" validate:"max=32"`
	Previous string `form:"previous" validate:"max=32"`
	Format   string `form:"format" validate:"omitempty,oneof=json xlsx csv html"`
}

// ReportHandler accepts spreadsheet uploads and answers with the report in
// the requested format.
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	upload       config.UploadConfig
	logger       *slog.Logger
	now          func() time.Time
}

// NewReportHandler creates a report handler
func NewReportHandler(service ReportServiceInterface, upload config.UploadConfig, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ReportHandler {
	if upload.MaxBytes <= 0 {
		upload.MaxBytes = config.DefaultMaxUploadBytes
	}
	if upload.MaxMemory <= 0 {
		upload.MaxMemory = config.DefaultMaxUploadMemory
	}
	return &ReportHandler{
		service:      service,
		validator:    middleware.NewValidator(logger),
		errorHandler: errorHandler,
		upload:       upload,
		logger:       logger.With(slog.String("component", "report_handler")),
		now:          time.Now,
	}
}

// Routes returns the report routes, mounted below /api/reports.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"))

	r.Post("/orderbook", h.OrderBook)
	r.Post("/sales", h.Sales)
	r.Post("/intelligence", h.Intelligence)
	return r
}

// OrderBook handles POST /api/reports/orderbook
func (h *ReportHandler) OrderBook(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := orderBookForm{
		File:     uploadName(r, fieldFile),
		Previous: uploadName(r, fieldPrevious),
		EUR:      r.FormValue("eur"),
		USD:      r.FormValue("usd"),
		GBP:      r.FormValue("gbp"),
		Today:    r.FormValue("today"),
		Format:   formatValue(r),
	}
	if err := h.validator.ValidateStruct(form); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	fx, err := parseRates(map[domain.Currency]string{
		domain.EUR: form.EUR,
		domain.USD: form.USD,
		domain.GBP: form.GBP,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	req := services.OrderBookRequest{FX: fx}
	if form.Today != "" {
		req.Today, _ = time.Parse(time.DateOnly, form.Today)
	}

	current, err := openUpload(r, fieldFile)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer current.Close()
	req.Current = current

	if form.Previous != "" {
		previous, err := openUpload(r, fieldPrevious)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		defer previous.Close()
		req.Previous = previous
	}

	report, err := h.service.OrderBook(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, services.KindOrderBook, form.Format, report)
}

// Sales handles POST /api/reports/sales
func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := salesForm{
		File:   uploadName(r, fieldFile),
		Master: uploadName(r, fieldMaster),
		Format: formatValue(r),
	}
	if err := h.validator.ValidateStruct(form); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	file, err := openUpload(r, fieldFile)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer file.Close()
	req := services.SalesRequest{File: file}

	if form.Master != "" {
		master, err := openUpload(r, fieldMaster)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		defer master.Close()
		req.Master = master
	}

	report, err := h.service.Sales(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, services.KindSales, form.Format, report)
}

// Intelligence handles POST /api/reports/intelligence
func (h *ReportHandler) Intelligence(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := intelligenceForm{
		File:     uploadName(r, fieldFile),
		Current:  strings.TrimSpace(r.FormValue("current")),
		Previous: strings.TrimSpace(r.FormValue("previous")),
		Format:   formatValue(r),
	}
	if err := h.validator.ValidateStruct(form); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	master, err := openUpload(r, fieldFile)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer master.Close()

	report, err := h.service.Intelligence(r.Context(), services.IntelligenceRequest{
		Master:   master,
		Current:  form.Current,
		Previous: form.Previous,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, services.KindIntelligence, form.Format, report)
}

// parseForm caps the body and parses the multipart form. It answers the
// request itself when parsing fails.
func (h *ReportHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxBytes)
	if err := r.ParseMultipartForm(h.upload.MaxMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.errorHandler.HandleError(w, r, err)
		} else {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return false
	}
	return true
}

// respond writes report in the requested format. Non-JSON bodies are
// rendered into memory first so a writer error still yields a problem
// response.
func (h *ReportHandler) respond(w http.ResponseWriter, r *http.Request, kind, format string, report any) {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	if f == exporter.FormatJSON {
		render.JSON(w, r, report)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Write(&buf, f, report); err != nil {
		if errors.Is(err, exporter.ErrUnsupported) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ReportFailedError(err))
		return
	}

	disposition := "attachment"
	if f == exporter.FormatHTML {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("%s; filename=%q", disposition, exporter.Filename(kind, h.now(), f)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write report body",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
}

func formatValue(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.FormValue("format")))
}

// uploadName returns the client file name of a multipart file field, or ""
// when the field is absent.
func uploadName(r *http.Request, field string) string {
	if r.MultipartForm == nil {
		return ""
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return ""
	}
	return files[0].Filename
}

func openUpload(r *http.Request, field string) (*workbook.File, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apierrors.MissingFileError(field)
		}
		return nil, apierrors.InvalidRequestWithError(err)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	wb, err := workbook.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return wb, nil
}

// parseRates reads FX override fields. Empty fields keep the configured
// rate. "11,2" and "11.2" both mean 11.2.
func parseRates(fields map[domain.Currency]string) (map[domain.Currency]float64, error) {
	rates := make(map[domain.Currency]float64)
	var invalid []apierrors.ValidationError
	for _, cur := range domain.KnownCurrencies {
		raw, ok := fields[cur]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		rate, ok := dataprocessing.ParseRate(raw)
		if !ok {
			invalid = append(invalid, apierrors.ValidationError{
				Field:   strings.ToLower(string(cur)),
				Message: fmt.Sprintf("%s rate must be a positive number", cur),
			})
			continue
		}
		rates[cur] = rate
	}
	if len(invalid) > 0 {
		return nil, apierrors.NewValidationErrors(invalid)
	}
	return rates, nil
}
