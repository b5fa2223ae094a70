package export

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
)

const (
	pdfLineHeight = 5.0
	pdfFontSize   = 9.0
)

type pdfColumn struct {
	title string
	// share of the usable page width
	share float64
}

var pdfColumns = []pdfColumn{
	{"User", 0.17},
	{"Date", 0.13},
	{"Input Data", 0.42},
	{"Result", 0.28},
}

func renderPDF(r Report) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "Letter", "")
	pdf.SetTitle(r.Title(), true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	left, top, right, bottom := pdf.GetMargins()
	usable := pageW - left - right
	bottom = pageH - bottom

	widths := make([]float64, len(pdfColumns))
	for i, c := range pdfColumns {
		widths[i] = usable * c.share
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize+1)
		pdf.SetFillColor(220, 228, 240)
		for i, c := range pdfColumns {
			pdf.CellFormat(widths[i], pdfLineHeight+2, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(usable, 10, tr(r.Title()), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	if len(r.Predictions) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(usable, 8, "No predictions found.", "", 1, "C", false, 0, "")
		return output(pdf)
	}

	header()

	for _, p := range r.Predictions {
		cells := []string{
			userLabel(p),
			p.CreatedAt.Format(constants.DateLayout + " 15:04"),
			p.Input.Summary(),
			strings.ReplaceAll(ResultSummary(p), "; ", "\n"),
		}

		lines := make([][]string, len(cells))
		maxLines := 1
		for i, text := range cells {
			for _, para := range strings.Split(tr(text), "\n") {
				lines[i] = append(lines[i], pdf.SplitText(para, widths[i]-2)...)
			}
			if len(lines[i]) > maxLines {
				maxLines = len(lines[i])
			}
		}
		rowH := float64(maxLines)*pdfLineHeight + 2

		if pdf.GetY()+rowH > bottom {
			pdf.AddPage()
			pdf.SetY(top)
			header()
		}

		x, y := pdf.GetX(), pdf.GetY()
		for i := range cells {
			pdf.Rect(x, y, widths[i], rowH, "D")
			for j, line := range lines[i] {
				pdf.SetXY(x+1, y+1+float64(j)*pdfLineHeight)
				pdf.CellFormat(widths[i]-2, pdfLineHeight, line, "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		pdf.SetXY(left, y+rowH)
	}

	return output(pdf)
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
