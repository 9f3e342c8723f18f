package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"clientpulse/internal/charts"
	"clientpulse/internal/config"
	"clientpulse/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names.
const (
	PageUpload = "upload.html"
	PageReport = "report.html"
	PageError  = "error.html"
)

// Pages renders the server-side HTML views.
type Pages struct {
	tmpl *template.Template
}

// NewPages parses the embedded templates.
func NewPages() (*Pages, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"num":     formatNumber,
		"opt":     formatOptional,
		"percent": formatPercent,
		"date":    func(t time.Time) string { return t.Format("2006-01-02 15:04 MST") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl}, nil
}

// Render executes the named page into a buffer first so a template error
// never produces a half-written response.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// WriteReport renders the standalone HTML report, as written by the CLI.
func (p *Pages) WriteReport(w io.Writer, report *domain.Report, rendered []charts.Chart) error {
	if err := p.tmpl.ExecuteTemplate(w, PageReport, newReportView(report, rendered)); err != nil {
		return fmt.Errorf("render %s: %w", PageReport, err)
	}
	return nil
}

// uploadView feeds the upload form.
type uploadView struct {
	AppName        string
	Version        string
	MaxUploadBytes int64
}

// chartView is a chart ready for an <img> tag.
type chartView struct {
	Name  string
	Title string
	Src   template.URL
}

// reportView feeds the report page.
type reportView struct {
	AppName string
	Report  *domain.Report
	Charts  []chartView
}

func newReportView(report *domain.Report, rendered []charts.Chart) reportView {
	view := reportView{AppName: config.AppName, Report: report}
	for _, c := range rendered {
		// The URI is built from our own PNG bytes, never from input.
		view.Charts = append(view.Charts, chartView{
			Name:  c.Name,
			Title: c.Title,
			Src:   template.URL(c.DataURI()),
		})
	}
	return view
}

// errorView feeds the error page.
type errorView struct {
	AppName string
	Status  int
	Title   string
	Detail  string
	TraceID string
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatNumber(*v)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}
