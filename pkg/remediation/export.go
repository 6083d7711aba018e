// Package remediation turns findings into repair artifacts: one JSON file
// per failing section, consumed by the named repair task.
package remediation

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "os"
    "path/filepath"

    "github.com/hashicorp/go-multierror"

    "github.com/amirimatin/cluster-doctor/pkg/analysis"
    "github.com/amirimatin/cluster-doctor/pkg/internal/logutil"
    obsmetrics "github.com/amirimatin/cluster-doctor/pkg/observability/metrics"
    "github.com/amirimatin/cluster-doctor/pkg/observability/tracing"
)

// Artifact describes one written file. Mirrored names the sink holding a
// copy; it is empty when no mirror is configured or the copy failed.
type Artifact struct {
    Section  string
    Task     string
    Path     string
    Records  int
    Mirrored string
}

// Exporter writes artifacts into Dir and optionally copies them to Mirror.
type Exporter struct {
    Dir    string
    Mirror Sink
    Logger *log.Logger
}

// NewExporter returns an exporter writing into dir ("." when empty).
func NewExporter(dir string, logger *log.Logger) *Exporter {
    if dir == "" { dir = "." }
    if logger == nil { logger = log.Default() }
    return &Exporter{Dir: dir, Logger: logger}
}

// Export writes every non-empty, non-informational section. A failing
// artifact does not stop the others; all failures are returned together.
// An artifact whose mirror copy failed is still returned with its local
// path. Dir is created on the first write.
func (e *Exporter) Export(ctx context.Context, f *analysis.Findings) ([]Artifact, error) {
    obsmetrics.Register()
    ctx, end := tracing.StartSpan(ctx, "remediation.export")
    defer end()
    if f == nil { return nil, nil }

    var (
        out     []Artifact
        errs    *multierror.Error
        dirDone bool
    )
    for _, s := range f.Sections() {
        if s.Informational || s.Len == 0 || s.Artifact == "" { continue }
        if err := ctx.Err(); err != nil { return out, multierror.Append(errs, err).ErrorOrNil() }
        if !dirDone {
            if err := os.MkdirAll(e.Dir, 0o755); err != nil { return nil, fmt.Errorf("output dir: %w", err) }
            dirDone = true
        }
        a, err := e.write(ctx, s)
        if err != nil { errs = multierror.Append(errs, err) }
        if a.Path != "" { out = append(out, a) }
    }
    return out, errs.ErrorOrNil()
}

// write stores one artifact locally and then in the mirror. The returned
// Artifact has a Path whenever the local file was written, even if the
// mirror failed.
func (e *Exporter) write(ctx context.Context, s analysis.Section) (Artifact, error) {
    data, err := Encode(s.Payload)
    if err != nil {
        obsmetrics.Artifacts.WithLabelValues("file", "error").Inc()
        return Artifact{}, fmt.Errorf("%s: encode: %w", s.Artifact, err)
    }
    path := filepath.Join(e.Dir, s.Artifact)
    if abs, err := filepath.Abs(path); err == nil { path = abs }
    if err := os.WriteFile(path, data, 0o644); err != nil {
        obsmetrics.Artifacts.WithLabelValues("file", "error").Inc()
        logutil.Errorf(e.Logger, "%s not written: %v", s.Artifact, err)
        return Artifact{}, fmt.Errorf("%s: %w", s.Artifact, err)
    }
    obsmetrics.Artifacts.WithLabelValues("file", "ok").Inc()
    logutil.Infof(e.Logger, "%d %s records written; run task %q with %s", s.Len, s.Key, s.Task, path)
    a := Artifact{Section: s.Key, Task: s.Task, Path: path, Records: s.Len}

    if e.Mirror != nil {
        if err := e.Mirror.Put(ctx, s.Artifact, data); err != nil {
            obsmetrics.Artifacts.WithLabelValues(e.Mirror.Name(), "error").Inc()
            logutil.Warnf(e.Logger, "%s kept locally at %s; %s copy failed: %v", s.Artifact, path, e.Mirror.Name(), err)
            return a, fmt.Errorf("%s: mirror %s: %w", s.Artifact, e.Mirror.Name(), err)
        }
        obsmetrics.Artifacts.WithLabelValues(e.Mirror.Name(), "ok").Inc()
        a.Mirrored = e.Mirror.Name()
    }
    return a, nil
}

// Encode renders an artifact payload: indented JSON with a trailing newline.
// Map keys are sorted by encoding/json, so equal findings give equal bytes.
func Encode(payload any) ([]byte, error) {
    data, err := json.MarshalIndent(payload, "", "  ")
    if err != nil { return nil, err }
    return append(data, '\n'), nil
}

// Task pairs a repair task with the artifact it consumes.
type Task struct {
    Section  string
    Title    string
    Artifact string
    Name     string
}

// Tasks lists every repair task in report order.
func Tasks() []Task {
    var out []Task
    for _, s := range (&analysis.Findings{}).Sections() {
        if s.Informational { continue }
        out = append(out, Task{Section: s.Key, Title: s.Title, Artifact: s.Artifact, Name: s.Task})
    }
    return out
}
