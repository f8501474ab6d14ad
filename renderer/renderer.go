// Package renderer turns valuation reports into markdown, terminal, table and HTML outputs.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/valuation"
	"github.com/olekukonko/tablewriter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed *.md
var templates embed.FS

// RenderReport renders the report to a markdown string.
func RenderReport(r *Report) string {
	partials := map[string]string{
		"report_title":   "report_title.md",
		"report_summary": "report_summary.md",
		"report_charts":  "report_charts.md",
		"report_issues":  "report_issues.md",
	}
	return renderTemplate("report", "report.md", partials, r)
}

// Markdown renders a valuation report to markdown.
func Markdown(r *valuation.Report, opts Options) string {
	return RenderReport(NewReport(r, opts))
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// Terminal renders markdown for an ANSI terminal, wrapping lines at width.
func Terminal(md string, width int) (string, error) {
	if width <= 0 {
		width = 120
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// DefaultTitle is the title of reports without one.
const DefaultTitle = "Position Valuation"

// HTML renders markdown into a standalone HTML page.
func HTML(title, md string) ([]byte, error) {
	if title == "" {
		title = DefaultTitle
	}
	var body bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := gm.Convert([]byte(md), &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { padding: 0.3em 0.8em; border-bottom: 1px solid #ddd; }
td { text-align: right; }
pre { line-height: 1.1; }
</style>
</head>
<body>
`, template.HTMLEscapeString(title))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// Table writes the summary of r as a plain text table.
func Table(w io.Writer, r *Report) {
	header := []string{"#", "Position", "Quantity", "Price", "Current Value", "Cost Value", "Gain/Loss", "Gain %"}
	if r.HasOptions {
		header = append(header, "Strike Value", "Exercise Value", "Total % @ Strike", "APR @ Strike", "Days")
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, row := range r.Rows {
		line := []string{
			fmt.Sprint(row.Rank),
			row.Position,
			row.Quantity,
			row.Price.String(),
			row.CurrentValue.String(),
			row.CostValue.String(),
			row.GainLoss.SignedString(),
			row.GainPct.SignedString(),
		}
		if r.HasOptions {
			if row.Option {
				line = append(line,
					row.StrikeValue.String(),
					row.OptionExerciseValue.String(),
					row.TotalPctGainAtStrike.SignedString(),
					row.AprAtStrike.SignedString(),
					row.DaysToExpiration,
				)
			} else {
				line = append(line, "", "", "", "", "")
			}
		}
		table.Append(line)
	}
	footer := make([]string, len(header))
	footer[1] = "Total"
	footer[4] = r.Totals.CurrentValue.String()
	footer[5] = r.Totals.CostValue.String()
	footer[6] = r.Totals.GainLoss.SignedString()
	table.SetFooter(footer)
	table.Render()
}
