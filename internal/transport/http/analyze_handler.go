package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"clientpulse/internal/config"
	apierrors "clientpulse/internal/errors"
	"clientpulse/internal/exporter"
	custommw "clientpulse/internal/middleware"
	"clientpulse/internal/services"
	"clientpulse/pkg/contracts"
	"clientpulse/pkg/contracts/domain"
)

// Multipart field names. The second name of each pair is accepted for
// compatibility with older upload forms.
var (
	TransactionFields = []string{"file_transactions", "file_transacoes"}
	CampaignFields    = []string{"file_campaigns", "file_campanhas"}
)

// Export formats
const (
	ExportXLSX = "xlsx"
	ExportCSV  = "csv"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// analyzeQuery holds the query parameters of POST /api/v1/analyze.
type analyzeQuery struct {
	Charts bool `query:"charts"`
}

// exportQuery holds the query parameters of POST /api/v1/analyze/export.
type exportQuery struct {
	Format string `query:"format" validate:"oneof=xlsx csv"`
	Table  string `query:"table" validate:"oneof=summary clusters customers campaigns regression clv high_value recommendations warnings"`
	BOM    bool   `query:"bom"`
}

// AnalyzeResponse is the JSON body of a successful analysis.
type AnalyzeResponse struct {
	Report *domain.Report  `json:"report"`
	Charts []ChartResponse `json:"charts,omitempty"`
}

// ChartResponse is one chart as a PNG data URI.
type ChartResponse struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	DataURI string `json:"data_uri"`
}

// AnalyzeHandler serves the upload form, the HTML report and the JSON and
// export endpoints.
type AnalyzeHandler struct {
	service      ReportService
	pages        *Pages
	query        *custommw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
}

// NewAnalyzeHandler creates an analyze handler.
func NewAnalyzeHandler(service ReportService, pages *Pages, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUpload int64) *AnalyzeHandler {
	return &AnalyzeHandler{
		service:      service,
		pages:        pages,
		query:        custommw.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "analyze_handler")),
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
	}
}

// APIRoutes returns the JSON and export routes, mounted under /api/v1.
func (h *AnalyzeHandler) APIRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(custommw.MaxBodySize(h.maxUpload))
	r.Use(custommw.ContentTypeValidator(h.errorHandler, "multipart/form-data"))
	r.Post("/analyze", h.AnalyzeJSON)
	r.Post("/analyze/export", h.Export)
	return r
}

// UploadPage handles GET /
func (h *AnalyzeHandler) UploadPage(w http.ResponseWriter, r *http.Request) {
	view := uploadView{
		AppName:        config.AppName,
		Version:        contracts.Version,
		MaxUploadBytes: h.maxUpload,
	}
	if err := h.pages.Render(w, http.StatusOK, PageUpload, view); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render upload page", slog.String("error", err.Error()))
	}
}

// AnalyzePage handles POST /analyze and answers with the HTML report.
func (h *AnalyzeHandler) AnalyzePage(w http.ResponseWriter, r *http.Request) {
	result, err := h.run(r, true)
	if err != nil {
		h.renderErrorPage(w, r, err)
		return
	}
	if err := h.pages.Render(w, http.StatusOK, PageReport, newReportView(result.Report, result.Charts)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render report page", slog.String("error", err.Error()))
		h.renderErrorPage(w, r, err)
	}
}

// AnalyzeJSON handles POST /api/v1/analyze
func (h *AnalyzeHandler) AnalyzeJSON(w http.ResponseWriter, r *http.Request) {
	q := analyzeQuery{Charts: true}
	if !h.query.Bind(w, r, &q) {
		return
	}

	result, err := h.run(r, q.Charts)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := AnalyzeResponse{Report: result.Report}
	for _, c := range result.Charts {
		resp.Charts = append(resp.Charts, ChartResponse{Name: c.Name, Title: c.Title, DataURI: c.DataURI()})
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   resp,
	})
}

// Export handles POST /api/v1/analyze/export. The workbook holds one sheet
// per table; the CSV holds a single table, the campaign summary by default.
func (h *AnalyzeHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := exportQuery{Format: ExportXLSX, Table: "campaigns"}
	if !h.query.Bind(w, r, &q) {
		return
	}

	result, err := h.run(r, false)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	report := result.Report

	var (
		buf         bytes.Buffer
		contentType string
		filename    string
	)
	switch q.Format {
	case ExportCSV:
		table, ok := exporter.TableByKey(report, q.Table)
		if !ok {
			h.handleError(w, r, apierrors.InvalidParameterError("table", q.Table, exporter.TableKeys...))
			return
		}
		err = exporter.WriteTable(&buf, table, q.BOM)
		contentType = "text/csv; charset=utf-8"
		filename = fmt.Sprintf("clientpulse-%s-%s.csv", q.Table, report.ID)
	default:
		err = exporter.WriteWorkbook(&buf, report)
		contentType = xlsxContentType
		filename = fmt.Sprintf("clientpulse-report-%s.xlsx", report.ID)
	}
	if err != nil {
		h.handleError(w, r, fmt.Errorf("export %s: %w", q.Format, err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", slog.String("error", err.Error()))
	}
}

// run reads the uploads and builds the report.
func (h *AnalyzeHandler) run(r *http.Request, withCharts bool) (*services.ReportResult, error) {
	if err := r.ParseMultipartForm(config.MultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLarge
		}
		return nil, apierrors.InvalidRequestWithError(err)
	}
	defer r.MultipartForm.RemoveAll()

	txFile, txName, err := formFile(r, TransactionFields)
	if err != nil {
		return nil, err
	}
	defer txFile.Close()

	campaignFile, campaignName, err := formFile(r, CampaignFields)
	if err != nil {
		return nil, err
	}
	defer campaignFile.Close()

	h.logger.InfoContext(r.Context(), "analysis requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("transactions_file", txName),
		slog.String("campaigns_file", campaignName),
		slog.Bool("charts", withCharts))

	return h.service.Analyze(r.Context(), services.AnalyzeRequest{
		Transactions: services.Upload{Name: txName, Body: txFile},
		Campaigns:    services.Upload{Name: campaignName, Body: campaignFile},
		Charts:       withCharts,
		Source:       services.SourceHTTP,
	})
}

// formFile returns the first uploaded file among the field names.
func formFile(r *http.Request, fields []string) (multipart.File, string, error) {
	for _, field := range fields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, "", apierrors.InvalidRequestWithError(err)
		}
		return file, header.Filename, nil
	}
	return nil, "", apierrors.MissingFileError(fields[0])
}

// translate maps service errors onto API errors.
func translate(err error) error {
	switch {
	case errors.Is(err, services.ErrBusy):
		return apierrors.ErrServiceBusy
	case errors.Is(err, services.ErrMissingDataset):
		return apierrors.NewWithDetails(http.StatusBadRequest, apierrors.CodeMissingFile, err.Error(), nil)
	}
	return err
}

func (h *AnalyzeHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	err = translate(err)
	if errors.Is(err, apierrors.ErrServiceBusy) {
		w.Header().Set("Retry-After", "5")
	}
	h.errorHandler.HandleError(w, r, err)
}

func (h *AnalyzeHandler) renderErrorPage(w http.ResponseWriter, r *http.Request, err error) {
	err = translate(err)
	problem := h.errorHandler.ErrorToProblem(err, r)
	reqID := middleware.GetReqID(r.Context())

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "report page failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID))

	view := errorView{
		AppName: config.AppName,
		Status:  problem.Status,
		Title:   problem.Title,
		Detail:  problem.Detail,
		TraceID: reqID,
	}
	if renderErr := h.pages.Render(w, problem.Status, PageError, view); renderErr != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error page", slog.String("error", renderErr.Error()))
		http.Error(w, problem.Detail, problem.Status)
	}
}
