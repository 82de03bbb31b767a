package pdf

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

const (
	chartHeight = 75.0
	chartPad    = 12.0
)

type rgb struct{ r, g, b int }

var (
	colorActual    = rgb{31, 119, 180}
	colorFitted    = rgb{214, 39, 40}
	colorPredicted = rgb{44, 160, 44}
	colorGrid      = rgb{200, 200, 200}
)

// bounds returns the value range covering the series, fit and prediction,
// padded so flat series still get a visible band.
func bounds(reg *domain.RegressionResult) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	take := func(v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for _, p := range reg.Series {
		take(p.Close)
	}
	for _, v := range reg.Fitted {
		take(v)
	}
	take(reg.Predicted.Value)

	if math.IsInf(lo, 1) {
		return 0, 1
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 1)
	}
	return lo - pad, hi + pad
}

// drawChart plots actual closes, the fitted curve and the predicted point
// against calendar days.
func drawChart(doc *fpdf.Fpdf, tr func(string) string, reg *domain.RegressionResult) {
	if len(reg.Series) == 0 {
		doc.MultiCell(0, lineHeight, tr("No plot available."), "", "L", false)
		return
	}

	pageW, pageH := doc.GetPageSize()
	left, _, right, bottom := doc.GetMargins()
	if doc.GetY()+chartHeight+chartPad > pageH-bottom {
		doc.AddPage()
	}

	x0 := left + chartPad
	y0 := doc.GetY()
	width := pageW - right - x0
	height := chartHeight

	origin := reg.Series[0].Date
	span := reg.Predicted.Date.Sub(origin).Hours() / 24
	if last := reg.Series[len(reg.Series)-1].Date.Sub(origin).Hours() / 24; last > span {
		span = last
	}
	if span <= 0 {
		span = 1
	}
	lo, hi := bounds(reg)

	px := func(days float64) float64 { return x0 + days/span*width }
	py := func(v float64) float64 { return y0 + height - (v-lo)/(hi-lo)*height }
	dayOf := func(i int) float64 { return reg.Series[i].Date.Sub(origin).Hours() / 24 }

	doc.SetLineWidth(0.1)
	doc.SetDrawColor(colorGrid.r, colorGrid.g, colorGrid.b)
	doc.SetFont(fontFamily, "", 7)
	for i := 0; i <= 4; i++ {
		v := lo + (hi-lo)*float64(i)/4
		y := py(v)
		doc.Line(x0, y, x0+width, y)
		doc.Text(left, y+1, fmt.Sprintf("%.2f", v))
	}
	doc.SetDrawColor(0, 0, 0)
	doc.Rect(x0, y0, width, height, "D")

	doc.SetLineWidth(0.3)
	doc.SetDrawColor(colorActual.r, colorActual.g, colorActual.b)
	for i := 1; i < len(reg.Series); i++ {
		doc.Line(px(dayOf(i-1)), py(reg.Series[i-1].Close), px(dayOf(i)), py(reg.Series[i].Close))
	}

	if len(reg.Fitted) == len(reg.Series) {
		doc.SetDrawColor(colorFitted.r, colorFitted.g, colorFitted.b)
		doc.SetDashPattern([]float64{1.5, 1}, 0)
		for i := 1; i < len(reg.Fitted); i++ {
			doc.Line(px(dayOf(i-1)), py(reg.Fitted[i-1]), px(dayOf(i)), py(reg.Fitted[i]))
		}
		doc.SetDashPattern([]float64{}, 0)
	}

	predDays := reg.Predicted.Date.Sub(origin).Hours() / 24
	if !math.IsNaN(reg.Predicted.Value) {
		doc.SetFillColor(colorPredicted.r, colorPredicted.g, colorPredicted.b)
		doc.Circle(px(predDays), py(reg.Predicted.Value), 1.2, "F")
	}

	doc.SetTextColor(0, 0, 0)
	doc.Text(x0, y0+height+4, origin.Format(domain.DateLayout))
	endLabel := reg.Predicted.Date.Format(domain.DateLayout)
	doc.Text(x0+width-doc.GetStringWidth(endLabel), y0+height+4, endLabel)

	legendY := y0 + height + 9
	legend := []struct {
		c     rgb
		label string
	}{
		{colorActual, "Actual close"},
		{colorFitted, fmt.Sprintf("Polynomial fit (degree %d)", reg.Degree)},
		{colorPredicted, "Predicted"},
	}
	x := x0
	for _, item := range legend {
		doc.SetFillColor(item.c.r, item.c.g, item.c.b)
		doc.Rect(x, legendY-2.5, 3, 3, "F")
		doc.Text(x+4, legendY, tr(item.label))
		x += 6 + doc.GetStringWidth(item.label) + 6
	}

	doc.SetLineWidth(0.2)
	doc.SetDrawColor(0, 0, 0)
	doc.SetFillColor(255, 255, 255)
	doc.SetFont(fontFamily, "", bodySize)
	doc.SetY(legendY + 4)
}
