package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clientpulse/internal/config"
	apierrors "clientpulse/internal/errors"
	"clientpulse/internal/exporter"
	custommw "clientpulse/internal/middleware"
	"clientpulse/internal/services"
	"clientpulse/internal/shared/testutil"
	"clientpulse/pkg/contracts/domain"
)

// MockReportService is a mock implementation of ReportService
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Analyze(ctx context.Context, req services.AnalyzeRequest) (*services.ReportResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*services.ReportResult)
	return result, args.Error(1)
}

func newTestRouter(t *testing.T, service ReportService, maxUpload int64) http.Handler {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	pages, err := NewPages()
	require.NoError(t, err)

	errorHandler := apierrors.NewErrorHandler(logger, false)
	h := NewAnalyzeHandler(service, pages, logger, errorHandler, maxUpload)

	r := chi.NewRouter()
	r.Use(custommw.RequestID)
	r.Get("/", h.UploadPage)
	r.With(custommw.MaxBodySize(maxUpload)).Post("/analyze", h.AnalyzePage)
	r.Mount("/api/v1", h.APIRoutes())
	return r
}

func newRealRouter(t *testing.T) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return newTestRouter(t, services.NewReportService(config.DefaultAnalysis(), logger, nil), config.DefaultMaxUploadBytes)
}

func fixtureFiles() testutil.Files {
	return testutil.Files{
		"file_transactions": testutil.TransactionsCSV,
		"file_campaigns":    testutil.CampaignsCSV,
	}
}

func postUpload(t *testing.T, router http.Handler, target string, files testutil.Files) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := testutil.MultipartUpload(t, files)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}

type analyzeEnvelope struct {
	Status string          `json:"status"`
	Data   AnalyzeResponse `json:"data"`
}

func TestAnalyzeJSON(t *testing.T) {
	t.Run("full report with charts", func(t *testing.T) {
		rec := postUpload(t, newRealRouter(t), "/api/v1/analyze", fixtureFiles())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp analyzeEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "success", resp.Status)

		report := resp.Data.Report
		require.NotNil(t, report)
		assert.Equal(t, 7, report.TransactionCount)
		assert.Equal(t, 3, report.CampaignCount)
		assert.Equal(t, 6, report.CustomerCount)
		assert.NotEmpty(t, report.Recommendations)

		require.NotEmpty(t, resp.Data.Charts)
		for _, c := range resp.Data.Charts {
			assert.True(t, strings.HasPrefix(c.DataURI, "data:image/png;base64,"), c.Name)
		}
	})

	t.Run("charts disabled", func(t *testing.T) {
		service := new(MockReportService)
		service.On("Analyze", mock.Anything, mock.MatchedBy(func(req services.AnalyzeRequest) bool {
			return !req.Charts && req.Source == services.SourceHTTP
		})).Return(&services.ReportResult{Report: &domain.Report{ID: "r-1"}}, nil)

		rec := postUpload(t, newTestRouter(t, service, 1<<20), "/api/v1/analyze?charts=false", fixtureFiles())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp analyzeEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "r-1", resp.Data.Report.ID)
		assert.Empty(t, resp.Data.Charts)
		service.AssertExpectations(t)
	})

	t.Run("alias field names", func(t *testing.T) {
		service := new(MockReportService)
		service.On("Analyze", mock.Anything, mock.MatchedBy(func(req services.AnalyzeRequest) bool {
			return req.Transactions.Name == "file_transacoes.csv" && req.Campaigns.Name == "file_campanhas.csv"
		})).Return(&services.ReportResult{Report: &domain.Report{ID: "r-2"}}, nil)

		rec := postUpload(t, newTestRouter(t, service, 1<<20), "/api/v1/analyze", testutil.Files{
			"file_transacoes": testutil.PortugueseTransactionsCSV,
			"file_campanhas":  testutil.PortugueseCampaignsCSV,
		})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		service.AssertExpectations(t)
	})

	t.Run("invalid charts flag", func(t *testing.T) {
		service := new(MockReportService)
		rec := postUpload(t, newTestRouter(t, service, 1<<20), "/api/v1/analyze?charts=maybe", fixtureFiles())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		service.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	})
}

func TestAnalyzeJSONErrors(t *testing.T) {
	tests := []struct {
		name        string
		files       testutil.Files
		serviceErr  error
		wantStatus  int
		wantType    string
		wantHeaders map[string]string
	}{
		{
			name:       "missing campaigns file",
			files:      testutil.Files{"file_transactions": testutil.TransactionsCSV},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:        "service busy",
			files:       fixtureFiles(),
			serviceErr:  services.ErrBusy,
			wantStatus:  http.StatusServiceUnavailable,
			wantType:    apierrors.TypeServiceDown,
			wantHeaders: map[string]string{"Retry-After": "5"},
		},
		{
			name:       "empty upload",
			files:      fixtureFiles(),
			serviceErr: services.ErrMissingDataset,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockReportService)
			if tt.serviceErr != nil {
				service.On("Analyze", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}

			rec := postUpload(t, newTestRouter(t, service, 1<<20), "/api/v1/analyze", tt.files)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			problem := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.NotEmpty(t, problem["trace_id"])
			for k, v := range tt.wantHeaders {
				assert.Equal(t, v, rec.Header().Get(k))
			}
			if tt.serviceErr == nil {
				service.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
			}
		})
	}

	t.Run("invalid dataset value", func(t *testing.T) {
		broken := strings.Replace(testutil.TransactionsCSV, "6000", "abc", 1)
		rec := postUpload(t, newRealRouter(t), "/api/v1/analyze", testutil.Files{
			"file_transactions": broken,
			"file_campaigns":    testutil.CampaignsCSV,
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		problem := decodeProblem(t, rec)
		assert.Equal(t, apierrors.TypeInvalidInput, problem["type"])
		assert.Equal(t, "transactions", problem["dataset"])
		assert.Equal(t, "total_spend", problem["column"])
	})

	t.Run("wrong content type", func(t *testing.T) {
		service := new(MockReportService)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		newTestRouter(t, service, 1<<20).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, apierrors.TypeUnsupportedFormat, decodeProblem(t, rec)["type"])
	})

	t.Run("upload too large", func(t *testing.T) {
		service := new(MockReportService)
		rec := postUpload(t, newTestRouter(t, service, 64), "/api/v1/analyze", fixtureFiles())

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, apierrors.TypePayloadTooLarge, decodeProblem(t, rec)["type"])
		service.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	})
}

func TestExport(t *testing.T) {
	router := newRealRouter(t)

	t.Run("workbook by default", func(t *testing.T) {
		rec := postUpload(t, router, "/api/v1/analyze/export", fixtureFiles())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="clientpulse-report-`)
		// xlsx files are zip archives
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	})

	t.Run("campaigns csv", func(t *testing.T) {
		rec := postUpload(t, router, "/api/v1/analyze/export?format=csv", fixtureFiles())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "clientpulse-campaigns-")

		rows, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		require.NotEmpty(t, rows)
		assert.Equal(t, "campaign_name", rows[0][0])
		// Summer, Spring, Winter and the unmatched Autumn
		assert.Len(t, rows, 5)
	})

	t.Run("csv with byte order mark", func(t *testing.T) {
		rec := postUpload(t, router, "/api/v1/analyze/export?format=csv&table=clv&bom=true", fixtureFiles())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\xEF\xBB\xBF")))
	})

	invalid := []struct {
		name  string
		query string
	}{
		{"unknown format", "?format=pdf"},
		{"unknown table", "?format=csv&table=secrets"},
		{"invalid bom flag", "?format=csv&bom=perhaps"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockReportService)
			rec := postUpload(t, newTestRouter(t, service, 1<<20), "/api/v1/analyze/export"+tt.query, fixtureFiles())

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec)["type"])
			service.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
		})
	}
}

func TestPagesRoutes(t *testing.T) {
	t.Run("upload form", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(t, new(MockReportService), 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `name="file_transactions"`)
		assert.Contains(t, rec.Body.String(), `name="file_campaigns"`)
	})

	t.Run("html report", func(t *testing.T) {
		rec := postUpload(t, newRealRouter(t), "/analyze", fixtureFiles())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := rec.Body.String()
		assert.Contains(t, body, "<h2>Summary</h2>")
		assert.Contains(t, body, "<h2>Recommendations</h2>")
		assert.Contains(t, body, `src="data:image/png;base64,`)
		assert.Contains(t, body, "Autumn")
	})

	t.Run("html error page", func(t *testing.T) {
		service := new(MockReportService)
		rec := postUpload(t, newTestRouter(t, service, 1<<20), "/analyze", testutil.Files{
			"file_campaigns": testutil.CampaignsCSV,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "file_transactions")
		service.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	})

	t.Run("html busy page", func(t *testing.T) {
		service := new(MockReportService)
		service.On("Analyze", mock.Anything, mock.Anything).Return(nil, services.ErrBusy)

		rec := postUpload(t, newTestRouter(t, service, 1<<20), "/analyze", fixtureFiles())
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})
}

func TestExportTableKeysMatchExporter(t *testing.T) {
	field, ok := reflect.TypeOf(exportQuery{}).FieldByName("Table")
	require.True(t, ok)

	tag := field.Tag.Get("validate")
	require.True(t, strings.HasPrefix(tag, "oneof="), tag)
	assert.ElementsMatch(t, exporter.TableKeys, strings.Fields(strings.TrimPrefix(tag, "oneof=")))
}
