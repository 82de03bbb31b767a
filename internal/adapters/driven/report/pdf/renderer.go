// Package pdf renders financial reports to PDF documents.
//
// Narrative sections arrive as Markdown from the language model and are
// walked with goldmark onto fpdf text primitives. The forecast chart is drawn
// directly with fpdf lines, so no image toolchain is needed.
package pdf

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure Renderer implements the interface.
var _ driven.ReportRenderer = (*Renderer)(nil)

const (
	fontFamily = "Arial"
	bodySize   = 10
	lineHeight = 5
)

// DefaultMethodology is printed when the model did not produce one.
const DefaultMethodology = `- Stock prices, income statements and macroeconomic series retrieved from Alpha Vantage
- Financial news collected from NewsAPI
- Structured records stored in SQLite or PostgreSQL
- Vector embeddings generated by the configured embedding provider
- Semantic search over separate news, financial report, economic indicator and price indices
- Retrieved context fused into one answer by the language model
- Query parameters (company symbol and date range) extracted by the language model
- Polynomial regression applied to closing prices
- Technical indicators calculated: volatility, moving averages, average return, max drawdown`

// Renderer writes reports into a directory.
type Renderer struct {
	dir      string
	compress bool
	now      func() time.Time
}

// NewRenderer creates a renderer that writes into dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, compress: true, now: time.Now}
}

// Render writes the report as <dir>/<FileStem>.pdf and returns the path.
func (r *Renderer) Render(ctx context.Context, report *domain.Report) (string, error) {
	if report == nil || report.Symbol == "" {
		return "", fmt.Errorf("%w: report has no symbol", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	doc := r.build(report)
	if doc.Err() {
		return "", fmt.Errorf("build pdf: %w", doc.Error())
	}

	path := filepath.Join(r.dir, report.FileStem()+".pdf")
	if err := commit(ctx, doc, path); err != nil {
		return "", err
	}
	logger.Debug("pdf: wrote %s", path)
	return path, nil
}

// commit writes doc to a temporary file beside path and renames it into
// place only if ctx is still live, so a cancelled run leaves no report.
func commit(ctx context.Context, doc *fpdf.Fpdf, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := doc.Output(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (r *Renderer) build(report *domain.Report) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.compress)
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 15)
	doc.SetTitle("Financial Summary Report for "+report.Symbol, true)
	doc.SetCreator("finrag", true)
	doc.SetCreationDate(r.now())
	doc.AddPage()

	tr := doc.UnicodeTranslatorFromDescriptor("")
	w := &writer{doc: doc, tr: tr}

	doc.SetFont(fontFamily, "B", 16)
	doc.MultiCell(0, 8, tr("Financial Summary Report for "+report.Symbol), "", "C", false)
	doc.SetFont(fontFamily, "", bodySize)
	doc.MultiCell(0, lineHeight, tr(fmt.Sprintf("Period: %s to %s",
		report.StartDate.Format(domain.DateLayout), report.EndDate.Format(domain.DateLayout))), "", "C", false)
	doc.Ln(4)

	w.heading("1. Executive Summary")
	w.markdown(report.Sections.ExecutiveSummary)

	w.heading("2. Market Analysis")
	w.markdown(report.Sections.MarketAnalysis)

	w.heading("3. Technical Indicators")
	w.markdown(indicatorMarkdown(report.Regression, report.Indicators))

	w.heading("4. Price Predictions")
	if report.Regression != nil {
		p := report.Regression.Predicted
		doc.SetFont(fontFamily, "B", bodySize)
		doc.MultiCell(0, lineHeight, tr(fmt.Sprintf("Predicted price on %s: $%.2f",
			p.Date.Format(domain.DateLayout), p.Value)), "", "L", false)
		doc.SetFont(fontFamily, "", bodySize)
		doc.Ln(2)
		drawChart(doc, tr, report.Regression)
	} else {
		w.paragraph("No forecast available.")
	}

	w.heading("5. Risk Analysis")
	w.markdown(report.Sections.RiskAnalysis)

	w.heading("6. Data Sources and Methodology")
	if report.Sections.Methodology != "" {
		w.markdown(report.Sections.Methodology)
	} else {
		w.markdown(DefaultMethodology)
	}

	doc.Ln(6)
	doc.SetFont(fontFamily, "I", 8)
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = r.now()
	}
	doc.MultiCell(0, 4, tr("Report generated on: "+generated.Format("2006-01-02 15:04:05")), "", "L", false)
	return doc
}

// indicatorMarkdown lists the regression fit and every indicator that could be computed.
func indicatorMarkdown(reg *domain.RegressionResult, ind domain.TechnicalIndicators) string {
	var out string
	line := func(format string, args ...any) {
		out += "- " + fmt.Sprintf(format, args...) + "\n"
	}

	if reg != nil && !math.IsNaN(reg.RSquared) {
		line("R² score from regression: %.4f", reg.RSquared)
	} else {
		line("R² score from regression: n/a")
	}
	if ind.Volatility != nil {
		line("Volatility: %.4f", *ind.Volatility)
	}
	if ind.AverageReturn != nil {
		line("Average daily return: %.4f", *ind.AverageReturn)
	}
	if ind.MaxDrawdown != nil {
		line("Max drawdown: %.2f%%", *ind.MaxDrawdown*100)
	}
	if ind.MA20 != nil {
		line("20-day MA: $%.2f", *ind.MA20)
	}
	if ind.MA50 != nil {
		line("50-day MA: $%.2f", *ind.MA50)
	}
	return out
}
