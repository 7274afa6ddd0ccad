// Package report renders cleaning results as text, JSON, YAML, Markdown or
// HTML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gopkg.in/yaml.v3"

	"gomend/domain/core"
	"gomend/domain/table"
	"gomend/internal/cleaning"
	"gomend/internal/errors"
	"gomend/internal/missing"
	"gomend/internal/planner"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name and a few common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "table":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown report format %q", s))
}

// Document is a titled table of rendered cells plus the structured payload
// the JSON and YAML encoders emit.
type Document struct {
	ID     core.ReportID `json:"id" yaml:"id"`
	Title  string        `json:"title" yaml:"title"`
	Header []string      `json:"-" yaml:"-"`
	Rows   [][]string    `json:"-" yaml:"-"`
	Notes  []string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	Data   interface{}   `json:"data" yaml:"data"`
}

func newDocument(title string, data interface{}) Document {
	return Document{ID: core.NewReportID(), Title: title, Data: data}
}

// Missing builds the missing-value report document.
func Missing(r *missing.Report) Document {
	doc := newDocument("Missing values", r)
	doc.Header = []string{"column", "dtype", "kind", "missing", "ratio", "status"}
	for _, c := range r.Columns {
		doc.Rows = append(doc.Rows, []string{
			c.Column, string(c.DType), string(c.Kind), strconv.Itoa(c.MissingCount),
			formatFloat(c.Ratio), string(c.Status),
		})
	}
	doc.Notes = []string{fmt.Sprintf("%d rows, %d missing cells", r.Rows, r.TotalMissing)}
	return doc
}

// Summary builds the column summary document.
func Summary(s *planner.Summary) Document {
	doc := newDocument("Column summary", s)
	doc.Header = []string{"column", "dtype", "kind", "count", "missing", "min", "max", "mean", "median", "mode"}
	for _, c := range s.Columns {
		mode := ""
		if c.Mode != nil {
			mode = fmt.Sprint(c.Mode)
		}
		doc.Rows = append(doc.Rows, []string{
			c.Column, string(c.DType), string(c.Kind), strconv.Itoa(c.Count), strconv.Itoa(c.Missing),
			formatPtr(c.Min), formatPtr(c.Max), formatPtr(c.Mean), formatPtr(c.Median), mode,
		})
	}
	doc.Notes = []string{fmt.Sprintf("%d rows", s.Rows)}
	return doc
}

// Plan builds the repair plan document.
func Plan(p *planner.Plan) Document {
	doc := newDocument("Repair plan", p)
	doc.Header = []string{"column", "kind", "missing", "strategy"}
	for _, s := range p.Steps {
		doc.Rows = append(doc.Rows, []string{s.Column, string(s.Kind), strconv.Itoa(s.Missing), string(s.Strategy)})
	}
	if len(p.Steps) == 0 {
		doc.Notes = []string{"no column has missing values"}
	}
	return doc
}

// Detection is the payload of an outlier detection run.
type Detection struct {
	Columns []string      `json:"columns" yaml:"columns"`
	Method  string        `json:"method" yaml:"method"`
	Rows    []table.RowID `json:"rows" yaml:"rows"`
}

// Outliers builds the detection document. values maps a flagged row to the
// rendered cells of the selected columns.
func Outliers(d Detection, values map[table.RowID][]string) Document {
	doc := newDocument("Outliers", d)
	doc.Header = append([]string{"row"}, d.Columns...)
	for _, id := range d.Rows {
		doc.Rows = append(doc.Rows, append([]string{strconv.FormatInt(int64(id), 10)}, values[id]...))
	}
	doc.Notes = []string{fmt.Sprintf("%d rows flagged with %s", len(d.Rows), d.Method)}
	return doc
}

// Handled builds the document of an outlier repair.
func Handled(o *cleaning.Outcome) Document {
	doc := newDocument("Outlier repair", o)
	doc.Header = []string{"row", o.Column}
	for i, id := range o.Flagged {
		doc.Rows = append(doc.Rows, []string{strconv.FormatInt(int64(id), 10), fmt.Sprint(o.Values[i])})
	}
	doc.Notes = []string{fmt.Sprintf("%d values flagged with %s and repaired with %s", len(o.Flagged), o.Method, o.Repair)}
	return doc
}

// TableData is the structured payload of a table preview.
type TableData struct {
	Index   []table.RowID `json:"index" yaml:"index"`
	Columns []string      `json:"columns" yaml:"columns"`
	Rows    [][]string    `json:"rows" yaml:"rows"`
}

// Table builds a preview of t. Missing cells render empty.
func Table(title string, t *table.Table) Document {
	data := TableData{Index: t.Index(), Columns: t.ColumnNames()}
	for pos := 0; pos < t.NumRows(); pos++ {
		row := make([]string, t.NumColumns())
		for j, c := range t.Columns() {
			if v := c.At(pos); !v.IsMissing() {
				row[j] = v.String()
			}
		}
		data.Rows = append(data.Rows, row)
	}
	doc := newDocument(title, data)
	doc.Header = append([]string{"row"}, data.Columns...)
	for i, row := range data.Rows {
		doc.Rows = append(doc.Rows, append([]string{strconv.FormatInt(int64(data.Index[i]), 10)}, row...))
	}
	doc.Notes = []string{fmt.Sprintf("%d rows, %d columns", t.NumRows(), t.NumColumns())}
	return doc
}

// Render writes doc to w in format.
func Render(w io.Writer, format Format, doc Document) error {
	var err error
	switch format {
	case FormatText:
		err = renderText(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatMarkdown:
		_, err = io.WriteString(w, toMarkdown(doc))
	case FormatHTML:
		_, err = w.Write(toHTML(doc))
	default:
		return errors.InvalidInput(fmt.Sprintf("unknown report format %q", format))
	}
	if err != nil {
		return errors.IOError("failed to render report", err)
	}
	return nil
}

func renderText(w io.Writer, doc Document) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", doc.Title); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(doc.Header, "\t"))
	for _, row := range doc.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, n := range doc.Notes {
		if _, err := fmt.Fprintf(w, "\n%s\n", n); err != nil {
			return err
		}
	}
	return nil
}

func toMarkdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	b.WriteString("| " + strings.Join(escapeAll(doc.Header), " | ") + " |\n")
	sep := make([]string, len(doc.Header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range doc.Rows {
		b.WriteString("| " + strings.Join(escapeAll(row), " | ") + " |\n")
	}
	for _, n := range doc.Notes {
		fmt.Fprintf(&b, "\n%s\n", n)
	}
	return b.String()
}

func toHTML(doc Document) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: doc.Title,
	})
	return markdown.ToHTML([]byte(toMarkdown(doc)), p, r)
}

func escapeAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}

func formatPtr(x *float64) string {
	if x == nil {
		return ""
	}
	return strconv.FormatFloat(*x, 'g', 6, 64)
}
