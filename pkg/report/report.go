// Package report renders analysis findings for humans (colored pass/fail
// lines and tables) or machines (a single JSON document).
package report

import (
    "encoding/json"
    "fmt"
    "io"
    "os"
    "strings"
    "text/tabwriter"

    "github.com/fatih/color"

    "github.com/amirimatin/cluster-doctor/pkg/analysis"
)

// Output formats.
const (
    FormatText = "text"
    FormatJSON = "json"
)

// Document is the machine readable report, shared with the HTTP server.
type Document struct {
    Infected bool               `json:"infected"`
    Total    int                `json:"total"`
    Warnings []string           `json:"warnings,omitempty"`
    Findings *analysis.Findings `json:"findings"`
}

// NewDocument wraps findings with their summary.
func NewDocument(f *analysis.Findings, warnings []string) Document {
    if f == nil { f = &analysis.Findings{} }
    return Document{Infected: f.Infected(), Total: f.Total(), Warnings: warnings, Findings: f}
}

// Formatter writes single sections. It holds no state besides its options.
type Formatter struct {
    NoColor bool
}

func (fm Formatter) paint(attr color.Attribute) *color.Color {
    c := color.New(attr, color.Bold)
    if fm.NoColor { c.DisableColor() }
    return c
}

// Status writes the one-line verdict of a section.
func (fm Formatter) Status(w io.Writer, s analysis.Section) {
    switch {
    case s.Informational:
        fm.paint(color.FgYellow).Fprint(w, "[INFO]")
        fmt.Fprintf(w, " %s (%d)\n", s.Title, s.Len)
    case s.Len == 0:
        fm.paint(color.FgGreen).Fprint(w, "[PASS]")
        fmt.Fprintf(w, " %s\n", s.Title)
    default:
        fm.paint(color.FgRed).Fprint(w, "[FAIL]")
        fmt.Fprintf(w, " %s (%d)\n", s.Title, s.Len)
    }
}

// Table writes the rows of a section as aligned columns.
func (fm Formatter) Table(w io.Writer, s analysis.Section) {
    if len(s.Rows) == 0 { return }
    tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
    fmt.Fprintf(tw, "    %s\n", strings.ToUpper(strings.Join(s.Columns, "\t")))
    for _, row := range s.Rows {
        fmt.Fprintf(tw, "    %s\n", strings.Join(row, "\t"))
    }
    _ = tw.Flush()
}

// Reporter renders complete findings in one format.
type Reporter struct {
    Out       io.Writer
    Format    string
    Formatter Formatter
}

// New returns a reporter writing to stdout.
func New(format string, noColor bool) *Reporter {
    return &Reporter{Out: os.Stdout, Format: format, Formatter: Formatter{NoColor: noColor}}
}

// Render writes the report and returns whether the cluster is infected.
func (r *Reporter) Render(f *analysis.Findings) bool {
    return r.RenderWithWarnings(f, nil)
}

// RenderWithWarnings is Render with the snapshot decode warnings included.
func (r *Reporter) RenderWithWarnings(f *analysis.Findings, warnings []string) bool {
    if f == nil { f = &analysis.Findings{} }
    out := r.Out
    if out == nil { out = os.Stdout }
    if r.Format == FormatJSON {
        enc := json.NewEncoder(out)
        enc.SetIndent("", "  ")
        _ = enc.Encode(NewDocument(f, warnings))
        return f.Infected()
    }
    for _, w := range warnings {
        r.Formatter.paint(color.FgYellow).Fprint(out, "[WARN]")
        fmt.Fprintf(out, " %s\n", w)
    }
    for _, s := range f.Sections() {
        if s.Informational && s.Len == 0 { continue }
        r.Formatter.Status(out, s)
        if s.Len > 0 { r.Formatter.Table(out, s) }
    }
    if f.Infected() {
        r.Formatter.paint(color.FgRed).Fprintf(out, "infected: %s\n", f)
    } else {
        r.Formatter.paint(color.FgGreen).Fprintln(out, "healthy: no findings")
    }
    return f.Infected()
}
