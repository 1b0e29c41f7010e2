package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/kalambet/interviewd/internal/interview"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 6.0
)

// RenderReport writes the feedback report as an A4 PDF.
func RenderReport(w io.Writer, r interview.Report) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Interview Feedback Report", true)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont(fontFamily, "B", 18)
	doc.Cell(0, 10, "Interview Feedback Report")
	doc.Ln(12)

	doc.SetFont(fontFamily, "", 11)
	if r.Role.Name != "" {
		doc.Cell(0, lineHeight, tr("Role: "+r.Role.Name))
		doc.Ln(lineHeight)
	}
	if r.SessionID != "" {
		doc.Cell(0, lineHeight, "Session: "+r.SessionID)
		doc.Ln(lineHeight)
	}
	doc.Ln(4)

	statsTable(doc, r)
	doc.Ln(6)

	for _, line := range strings.Split(r.Text, "\n") {
		writeLine(doc, tr, line)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}

func statsTable(doc *fpdf.Fpdf, r interview.Report) {
	rows := [][2]string{
		{"Questions", fmt.Sprintf("%d", r.QuestionCount)},
		{"Average score", fmt.Sprintf("%.1f", r.Stats.Average)},
		{"Highest score", fmt.Sprintf("%d", r.Stats.Max)},
		{"Lowest score", fmt.Sprintf("%d", r.Stats.Min)},
		{"Excellent (90+)", fmt.Sprintf("%d", r.Stats.Distribution.Excellent)},
		{"Good (70-89)", fmt.Sprintf("%d", r.Stats.Distribution.Good)},
		{"Satisfactory (50-69)", fmt.Sprintf("%d", r.Stats.Distribution.Satisfactory)},
		{"Needs improvement (<50)", fmt.Sprintf("%d", r.Stats.Distribution.NeedsImprovement)},
	}

	doc.SetFont(fontFamily, "B", 11)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(70, 7, "Metric", "1", 0, "L", true, 0, "")
	doc.CellFormat(30, 7, "Value", "1", 1, "R", true, 0, "")
	doc.SetFont(fontFamily, "", 11)
	for _, row := range rows {
		doc.CellFormat(70, 7, row[0], "1", 0, "L", false, 0, "")
		doc.CellFormat(30, 7, row[1], "1", 1, "R", false, 0, "")
	}
}

// writeLine renders one markdown line. Headings become bold, list markers
// and emphasis are flattened.
func writeLine(doc *fpdf.Fpdf, tr func(string) string, line string) {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		doc.Ln(3)
		return
	}

	if trimmed := strings.TrimLeft(line, "#"); len(trimmed) < len(line) {
		size := 15.0 - float64(len(line)-len(trimmed))
		doc.SetFont(fontFamily, "B", max(size, 11))
		doc.MultiCell(0, lineHeight+1, tr(strings.TrimSpace(trimmed)), "", "L", false)
		doc.SetFont(fontFamily, "", 11)
		return
	}

	line = strings.ReplaceAll(line, "**", "")
	if rest, ok := strings.CutPrefix(strings.TrimLeft(line, " "), "- "); ok {
		line = "  - " + rest
	}
	doc.MultiCell(0, lineHeight, tr(line), "", "L", false)
}
